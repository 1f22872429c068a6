package calllog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ValidateSchema checks that header carries every required field. All missing
// names are reported in one SchemaError.
func ValidateSchema(header []string) error {
	if missing := missingFields(header); len(missing) > 0 {
		return &Error{
			Kind:    KindSchema,
			Message: fmt.Sprintf("input is missing required columns: %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}

func missingFields(header []string) []string {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[normHeader(h)] = struct{}{}
	}
	var missing []string
	for _, f := range RequiredFields {
		if _, ok := have[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

/* column index helpers */
func colIdx(header []string, key string) int {
	for i, h := range header {
		if normHeader(h) == key {
			return i
		}
	}
	return -1
}

func pick(rec []string, idx int) string {
	if idx == -1 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// ReadTSV parses a tab-separated export. The header is validated before any
// data row is read; extra columns are ignored. UTF-8 and BOM-marked UTF-16
// input are both accepted.
func ReadTSV(r io.Reader) (*Dataset, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &Error{Kind: KindSchema, Message: "input is empty, no header row"}
	}
	if err != nil {
		return nil, newError(KindInput, "cannot read header row", err)
	}
	if err := ValidateSchema(header); err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(RequiredFields))
	for _, f := range RequiredFields {
		idx[f] = colIdx(header, f)
	}

	ds := &Dataset{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, newError(KindInput, "malformed input row", err)
		}
		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		ds.Rows = append(ds.Rows, RawRecord{
			Line:          line,
			UserName:      pick(rec, idx["UserName"]),
			UserEmail:     pick(rec, idx["UserEmail"]),
			UserPhone:     pick(rec, idx["UserPhone"]),
			Source:        pick(rec, idx["Source"]),
			SourceDetail:  pick(rec, idx["SourceDetail"]),
			Date:          pick(rec, idx["Date"]),
			Time:          pick(rec, idx["Time"]),
			Duration:      pick(rec, idx["Duration"]),
			Answered:      pick(rec, idx["Answered"]),
			Inbound:       pick(rec, idx["Inbound"]),
			Number:        pick(rec, idx["Number"]),
			PhonebookName: pick(rec, idx["PhonebookName"]),
		})
	}
	return ds, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
