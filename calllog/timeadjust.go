package calllog

import (
	"fmt"
	"strings"
	"time"
)

// padSeconds appends ":00" to a time with fewer than three components.
func padSeconds(t string) string {
	if len(strings.Split(t, ":")) < 3 {
		return t + ":00"
	}
	return t
}

// ParseDateTime combines a Date and Time cell into one instant.
func ParseDateTime(date, clock string, layouts []string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(date) + " " + padSeconds(strings.TrimSpace(clock))
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q matches none of %d date layouts", value, len(layouts))
}

// AdjustTimes parses every record's Date and Time and attaches the instant
// shifted by offset. One unparseable row fails the whole set.
func AdjustTimes(records []RawRecord, opts Options) ([]TimedRecord, error) {
	opts = opts.withDefaults()
	out := make([]TimedRecord, 0, len(records))
	for _, rec := range records {
		t, err := ParseDateTime(rec.Date, rec.Time, opts.DateLayouts, opts.Location)
		if err != nil {
			return nil, &Error{
				Kind:    KindTimeParse,
				Message: "invalid Date/Time",
				Row:     rec.Line,
				Field:   "Date/Time",
				Value:   rec.Date + " " + rec.Time,
				Cause:   err,
			}
		}
		out = append(out, TimedRecord{RawRecord: rec, Shifted: t.Add(opts.TimeOffset)})
	}
	return out, nil
}
