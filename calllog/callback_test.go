package calllog

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCallbacks(t *testing.T) {
	tests := []struct {
		name  string
		calls []ProjectedRecord
		want  []CallbackEntry
	}{
		{
			name: "missed call answered thirty minutes later",
			calls: []ProjectedRecord{
				projected("555123456", Inbound, NotAnswered, "2024-01-01 11:00:00"),
				projected("555123456", Outbound, Answered, "2024-01-01 11:30:00"),
			},
			want: []CallbackEntry{{
				Date: at("2024-01-01 00:00:00"), MissedAt: at("2024-01-01 11:00:00"), CallbackAt: at("2024-01-01 11:30:00"),
				DelayMinutes: 30, Number: "555123456", UserName: "Anna",
			}},
		},
		{
			name: "no later outgoing call",
			calls: []ProjectedRecord{
				projected("555123456", Outbound, Answered, "2024-01-01 10:00:00"),
				projected("555123456", Inbound, NotAnswered, "2024-01-01 11:00:00"),
			},
		},
		{
			name: "same instant is not a callback",
			calls: []ProjectedRecord{
				projected("1", Inbound, NotAnswered, "2024-01-01 11:00:00"),
				projected("1", Outbound, Answered, "2024-01-01 11:00:00"),
			},
		},
		{
			name: "answered incoming calls are ignored",
			calls: []ProjectedRecord{
				projected("1", Inbound, Answered, "2024-01-01 11:00:00"),
				projected("1", Outbound, Answered, "2024-01-01 11:10:00"),
			},
		},
		{
			name: "other numbers do not match",
			calls: []ProjectedRecord{
				projected("555123456", Inbound, NotAnswered, "2024-01-01 11:00:00"),
				projected("48555123456", Outbound, Answered, "2024-01-01 11:10:00"),
			},
		},
		{
			name: "earliest later call wins regardless of input order",
			calls: []ProjectedRecord{
				projected("1", Outbound, Answered, "2024-01-01 15:00:00"),
				projected("1", Inbound, NotAnswered, "2024-01-01 11:00:00"),
				projected("1", Outbound, NotAnswered, "2024-01-01 12:05:30"),
				projected("1", Outbound, Answered, "2024-01-01 10:59:59"),
			},
			want: []CallbackEntry{{
				Date: at("2024-01-01 00:00:00"), MissedAt: at("2024-01-01 11:00:00"), CallbackAt: at("2024-01-01 12:05:30"),
				DelayMinutes: 65, Number: "1", UserName: "Anna",
			}},
		},
		{
			name: "one callback shared by two missed calls",
			calls: []ProjectedRecord{
				projected("7", Inbound, NotAnswered, "2024-01-01 09:00:00"),
				projected("7", Inbound, NotAnswered, "2024-01-01 09:10:00"),
				projected("7", Outbound, Answered, "2024-01-01 09:40:59"),
			},
			want: []CallbackEntry{
				{Date: at("2024-01-01 00:00:00"), MissedAt: at("2024-01-01 09:00:00"), CallbackAt: at("2024-01-01 09:40:59"), DelayMinutes: 40, Number: "7", UserName: "Anna"},
				{Date: at("2024-01-01 00:00:00"), MissedAt: at("2024-01-01 09:10:00"), CallbackAt: at("2024-01-01 09:40:59"), DelayMinutes: 30, Number: "7", UserName: "Anna"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchCallbacks(tt.calls))
		})
	}
}

func TestMatchCallbacks_OrderedByMissedTime(t *testing.T) {
	calls := []ProjectedRecord{
		projected("b", Inbound, NotAnswered, "2024-01-02 08:00:00"),
		projected("a", Inbound, NotAnswered, "2024-01-01 17:00:00"),
		projected("c", Inbound, NotAnswered, "2024-01-01 09:00:00"),
		projected("a", Outbound, Answered, "2024-01-03 08:00:00"),
		projected("b", Outbound, Answered, "2024-01-02 08:00:01"),
		projected("c", Outbound, Answered, "2024-01-01 09:45:00"),
	}

	got := MatchCallbacks(calls)
	require.Len(t, got, 3)
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i].MissedAt.Before(got[j].MissedAt) }))
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].Number, got[1].Number, got[2].Number})
	assert.Equal(t, 0, got[2].DelayMinutes)
}

// naiveCallbacks is the nested-loop definition the indexed matcher must agree with.
func naiveCallbacks(calls []ProjectedRecord) []CallbackEntry {
	var out []CallbackEntry
	for _, m := range calls {
		if !m.MissedIncoming() {
			continue
		}
		var best *ProjectedRecord
		for i := range calls {
			o := &calls[i]
			if o.Direction != Outbound || o.Number != m.Number || !o.Shifted.After(m.Shifted) {
				continue
			}
			if best == nil || o.Shifted.Before(best.Shifted) {
				best = o
			}
		}
		if best == nil {
			continue
		}
		y, mo, d := m.Shifted.Date()
		out = append(out, CallbackEntry{
			Date: time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), MissedAt: m.Shifted, CallbackAt: best.Shifted,
			DelayMinutes: int(best.Shifted.Sub(m.Shifted).Seconds()) / 60,
			Number:       m.Number, UserName: m.UserName, PhonebookName: m.PhonebookName,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MissedAt.Before(out[j].MissedAt) })
	return out
}

func TestMatchCallbacks_AgreesWithNaiveScan(t *testing.T) {
	base := at("2024-05-01 08:00:00")
	numbers := []string{"1", "2", "3"}
	var calls []ProjectedRecord
	// deterministic pseudo-random spread of calls over a day
	seed := uint32(7)
	for i := 0; i < 300; i++ {
		seed = seed*1664525 + 1013904223
		dir := Outbound
		if seed%3 != 0 {
			dir = Inbound
		}
		ans := NotAnswered
		if seed%5 == 0 {
			ans = Answered
		}
		calls = append(calls, ProjectedRecord{
			UserName:  "Anna",
			Number:    numbers[(seed>>8)%3],
			Direction: dir,
			Answered:  ans,
			Shifted:   base.Add(time.Duration((seed>>12)%86400) * time.Second),
		})
	}

	got := MatchCallbacks(calls)
	assert.Equal(t, naiveCallbacks(calls), got)
	for _, c := range got {
		assert.GreaterOrEqual(t, c.DelayMinutes, 0)
		assert.Equal(t, int(c.CallbackAt.Sub(c.MissedAt).Seconds())/60, c.DelayMinutes)
	}
}

func TestCallbackEntry_Exceeds(t *testing.T) {
	threshold := 40 * time.Minute
	assert.False(t, CallbackEntry{DelayMinutes: 40}.Exceeds(threshold))
	assert.True(t, CallbackEntry{DelayMinutes: 41}.Exceeds(threshold))
}
