package calllog

import (
	"sort"
	"time"
)

// outgoingIndex maps an exported Number to its outgoing call times, ascending.
type outgoingIndex map[string][]time.Time

func indexOutgoing(calls []ProjectedRecord) outgoingIndex {
	idx := outgoingIndex{}
	for _, c := range calls {
		if c.Direction == Outbound {
			idx[c.Number] = append(idx[c.Number], c.Shifted)
		}
	}
	for _, times := range idx {
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	}
	return idx
}

// firstAfter returns the earliest outgoing time to number strictly after t.
func (idx outgoingIndex) firstAfter(number string, t time.Time) (time.Time, bool) {
	times := idx[number]
	i := sort.Search(len(times), func(i int) bool { return times[i].After(t) })
	if i == len(times) {
		return time.Time{}, false
	}
	return times[i], true
}

// MatchCallbacks pairs every missed incoming call with the first outgoing
// call to the same Number that happened strictly later. Numbers are compared
// as exported, without normalization. An outgoing call is not consumed by a
// match, so several missed calls may share one callback. Missed calls with no
// later outgoing call produce no entry. The result is ordered by missed time.
func MatchCallbacks(calls []ProjectedRecord) []CallbackEntry {
	idx := indexOutgoing(calls)
	var out []CallbackEntry
	for _, m := range calls {
		if !m.MissedIncoming() {
			continue
		}
		cb, ok := idx.firstAfter(m.Number, m.Shifted)
		if !ok {
			continue
		}
		y, mo, d := m.Shifted.Date()
		out = append(out, CallbackEntry{
			Date:          time.Date(y, mo, d, 0, 0, 0, 0, m.Shifted.Location()),
			MissedAt:      m.Shifted,
			CallbackAt:    cb,
			DelayMinutes:  int(cb.Sub(m.Shifted) / time.Minute),
			Number:        m.Number,
			UserName:      m.UserName,
			PhonebookName: m.PhonebookName,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MissedAt.Before(out[j].MissedAt) })
	return out
}
