package calllog

import (
	"fmt"
	"strings"
)

var (
	truthy = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true, "1.0": true}
	falsy  = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true, "0.0": true}
)

func parseFlag(s string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case truthy[v]:
		return true, nil
	case falsy[v]:
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", s)
}

// ParseDirection coerces the export's Inbound flag.
func ParseDirection(inbound string) (Direction, error) {
	in, err := parseFlag(inbound)
	if err != nil {
		return Outbound, err
	}
	if in {
		return Inbound, nil
	}
	return Outbound, nil
}

// ParseAnswer coerces the export's Answered flag.
func ParseAnswer(answered string) (Answer, error) {
	ok, err := parseFlag(answered)
	if err != nil {
		return NotAnswered, err
	}
	if ok {
		return Answered, nil
	}
	return NotAnswered, nil
}

func coercionError(rec TimedRecord, field, value string, cause error) *Error {
	return &Error{
		Kind:    KindCoercion,
		Message: "unrecognized flag value",
		Row:     rec.Line,
		Field:   field,
		Value:   value,
		Cause:   cause,
	}
}

// Project classifies each record and selects the public Calls fields. Row
// order is preserved.
func Project(records []TimedRecord) ([]ProjectedRecord, error) {
	out := make([]ProjectedRecord, 0, len(records))
	for _, rec := range records {
		dir, err := ParseDirection(rec.Inbound)
		if err != nil {
			return nil, coercionError(rec, "Inbound", rec.Inbound, err)
		}
		ans, err := ParseAnswer(rec.Answered)
		if err != nil {
			return nil, coercionError(rec, "Answered", rec.Answered, err)
		}
		out = append(out, ProjectedRecord{
			UserName:      rec.UserName,
			UserEmail:     rec.UserEmail,
			UserPhone:     rec.UserPhone,
			Source:        rec.Source,
			SourceDetail:  rec.SourceDetail,
			Date:          rec.Date,
			Time:          rec.Time,
			Shifted:       rec.Shifted,
			Duration:      rec.Duration,
			Answered:      ans,
			Direction:     dir,
			Number:        rec.Number,
			PhonebookName: rec.PhonebookName,
		})
	}
	return out, nil
}
