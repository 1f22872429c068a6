package calllog

import (
	"sort"
	"time"
)

func (s *Summary) add(c ProjectedRecord, policy MissedCountPolicy) {
	s.Total++
	if c.Direction == Inbound {
		s.Incoming++
	} else {
		s.Outgoing++
	}
	if c.Answered == Answered {
		s.Answered++
	}
	if policy == MissedIncomingUnanswered && c.MissedIncoming() {
		s.Missed++
	}
}

func (s *Summary) finish(policy MissedCountPolicy) {
	if policy != MissedIncomingUnanswered {
		s.Missed = s.Total - s.Answered
	}
}

// Summarize counts the Calls table. Under the default policy Missed is
// Total - Answered.
func Summarize(calls []ProjectedRecord, policy MissedCountPolicy) Summary {
	var s Summary
	for _, c := range calls {
		s.add(c, policy)
	}
	s.finish(policy)
	return s
}

// SummarizeDaily groups the counts by shifted calendar date, oldest first.
func SummarizeDaily(calls []ProjectedRecord, policy MissedCountPolicy) []DailySummary {
	byDay := map[time.Time]*DailySummary{}
	for _, c := range calls {
		y, m, d := c.Shifted.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, c.Shifted.Location())
		ds, ok := byDay[day]
		if !ok {
			ds = &DailySummary{Date: day}
			byDay[day] = ds
		}
		ds.add(c, policy)
	}
	out := make([]DailySummary, 0, len(byDay))
	for _, ds := range byDay {
		ds.finish(policy)
		out = append(out, *ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
