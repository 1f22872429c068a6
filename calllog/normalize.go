package calllog

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

/* ───────── number normalization ───────── */

var (
	spaceRE  = regexp.MustCompile(`\s+`)
	nonDigit = regexp.MustCompile(`\D`)
)

func digits(s string) string { return nonDigit.ReplaceAllString(s, "") }

// NormalizeNumber keeps the digits of raw and returns the last length of them.
// Shorter digit strings are returned whole; empty input yields "".
func NormalizeNumber(raw string, length int) string {
	d := digits(raw)
	if length > 0 && len(d) > length {
		return d[len(d)-length:]
	}
	return d
}

// normHeader folds a header cell for comparison: NFKC, BOM and outer
// whitespace removed, inner runs of whitespace collapsed.
func normHeader(s string) string {
	s = norm.NFKC.String(s)
	s = strings.TrimPrefix(s, "\ufeff")
	return spaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

/* ───────── exclusion ───────── */

// NumberSet is a set of normalized numbers.
type NumberSet map[string]struct{}

// NewNumberSet normalizes every raw entry; entries without digits are skipped.
func NewNumberSet(raw []string, length int) NumberSet {
	set := make(NumberSet, len(raw))
	for _, r := range raw {
		if n := NormalizeNumber(r, length); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the normalized form of raw is in the set.
func (s NumberSet) Contains(raw string, length int) bool {
	_, ok := s[NormalizeNumber(raw, length)]
	return ok
}

// Exclude drops every record whose normalized Number is in set. It returns a
// new slice; the input is not modified.
func Exclude(records []RawRecord, set NumberSet, length int) (kept []RawRecord, excluded int) {
	kept = make([]RawRecord, 0, len(records))
	for _, rec := range records {
		if len(set) > 0 && set.Contains(rec.Number, length) {
			excluded++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, excluded
}
