// Package workbook renders a calllog.Report as an .xlsx file.
package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/callreport/calllog"
)

// Sheet names, in workbook order.
const (
	SheetCalls     = "Calls"
	SheetSummary   = "Summary"
	SheetDaily     = "Daily"
	SheetCallbacks = "Callbacks"
)

// DailyHeader is the header of the Daily sheet.
var DailyHeader = []string{
	"Date", "Total Calls", "Incoming Calls", "Outgoing Calls", "Answered Calls", "Missed Calls",
}

const (
	dateTimeFmt = "yyyy-mm-dd hh:mm:ss"
	dateFmt     = "yyyy-mm-dd"
	lateFill    = "FFC7CE"
	maxWidth    = 50
)

type styles struct {
	header       int
	dateTime     int
	date         int
	late         int
	lateDateTime int
	lateDate     int
}

func newStyles(x *excelize.File) (styles, error) {
	dt, d := dateTimeFmt, dateFmt
	fill := excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{lateFill}}
	defs := []*excelize.Style{
		{Font: &excelize.Font{Bold: true}, Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}}},
		{CustomNumFmt: &dt},
		{CustomNumFmt: &d},
		{Fill: fill},
		{Fill: fill, CustomNumFmt: &dt},
		{Fill: fill, CustomNumFmt: &d},
	}
	ids := make([]int, len(defs))
	for i, s := range defs {
		id, err := x.NewStyle(s)
		if err != nil {
			return styles{}, err
		}
		ids[i] = id
	}
	return styles{ids[0], ids[1], ids[2], ids[3], ids[4], ids[5]}, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// writeTable puts header on row 1 and rows below it, then sizes the columns.
func writeTable(x *excelize.File, sheet string, header []string, rows [][]any, st styles) error {
	widths := make([]int, len(header))
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := x.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return err
	}
	if err := x.SetCellStyle(sheet, "A1", cell(len(header), 1), st.header); err != nil {
		return err
	}
	for r, row := range rows {
		if err := x.SetSheetRow(sheet, cell(1, r+2), &row); err != nil {
			return err
		}
		for c, v := range row {
			if c < len(widths) {
				widths[c] = max(widths[c], textWidth(v))
			}
		}
	}
	for c, w := range widths {
		col, _ := excelize.ColumnNumberToName(c + 1)
		if err := x.SetColWidth(sheet, col, col, float64(min(w+2, maxWidth))); err != nil {
			return err
		}
	}
	return x.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func textWidth(v any) int {
	switch t := v.(type) {
	case time.Time:
		return len("2006-01-02 15:04:05")
	case string:
		return utf8.RuneCountInString(t)
	default:
		return len(fmt.Sprint(t))
	}
}

// styleColumn applies style to column col for data rows 2..n+1.
func styleColumn(x *excelize.File, sheet string, col, n, style int) error {
	if n == 0 {
		return nil
	}
	return x.SetCellStyle(sheet, cell(col, 2), cell(col, n+1), style)
}

// durationValue stores seconds as a number when the export gives a plain number.
func durationValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func writeCalls(x *excelize.File, rep *calllog.Report, st styles) error {
	rows := make([][]any, 0, len(rep.Calls))
	for _, c := range rep.Calls {
		rows = append(rows, []any{
			c.UserName, c.UserEmail, c.UserPhone, c.Source, c.SourceDetail,
			c.Date, c.Time, c.Shifted, durationValue(c.Duration), c.Answered.String(),
			c.IncomingCalls(), c.OutgoingCalls(), c.Number, c.PhonebookName,
		})
	}
	if err := writeTable(x, SheetCalls, rep.CallsHeader(), rows, st); err != nil {
		return err
	}
	return styleColumn(x, SheetCalls, 8, len(rows), st.dateTime)
}

func writeSummary(x *excelize.File, rep *calllog.Report, st styles) error {
	return writeTable(x, SheetSummary, calllog.SummaryHeader, rep.Summary.Rows(), st)
}

func writeDaily(x *excelize.File, rep *calllog.Report, st styles) error {
	rows := make([][]any, 0, len(rep.Daily))
	for _, d := range rep.Daily {
		rows = append(rows, []any{d.Date, d.Total, d.Incoming, d.Outgoing, d.Answered, d.Missed})
	}
	if err := writeTable(x, SheetDaily, DailyHeader, rows, st); err != nil {
		return err
	}
	return styleColumn(x, SheetDaily, 1, len(rows), st.date)
}

func writeCallbacks(x *excelize.File, rep *calllog.Report, st styles) error {
	rows := make([][]any, 0, len(rep.Callbacks))
	for _, cb := range rep.Callbacks {
		rows = append(rows, []any{
			cb.Date, cb.MissedAt, cb.CallbackAt, cb.DelayMinutes,
			cb.Number, cb.UserName, cb.PhonebookName,
		})
	}
	if err := writeTable(x, SheetCallbacks, calllog.CallbacksHeader, rows, st); err != nil {
		return err
	}
	if err := styleColumn(x, SheetCallbacks, 1, len(rows), st.date); err != nil {
		return err
	}
	for col := 2; col <= 3; col++ {
		if err := styleColumn(x, SheetCallbacks, col, len(rows), st.dateTime); err != nil {
			return err
		}
	}

	// late callbacks get a red fill across the row
	last := len(calllog.CallbacksHeader)
	for i, cb := range rep.Callbacks {
		if !cb.Exceeds(rep.DelayThreshold) {
			continue
		}
		r := i + 2
		for _, s := range []struct {
			from, to, style int
		}{
			{1, 1, st.lateDate},
			{2, 3, st.lateDateTime},
			{4, last, st.late},
		} {
			if err := x.SetCellStyle(SheetCallbacks, cell(s.from, r), cell(s.to, r), s.style); err != nil {
				return err
			}
		}
	}
	return nil
}

// Build lays out the four sheets in memory. The caller closes the file.
func Build(rep *calllog.Report) (*excelize.File, error) {
	x := excelize.NewFile()
	st, err := newStyles(x)
	if err != nil {
		x.Close()
		return nil, err
	}

	for _, s := range []struct {
		name  string
		write func(*excelize.File, *calllog.Report, styles) error
	}{
		{SheetCalls, writeCalls},
		{SheetSummary, writeSummary},
		{SheetDaily, writeDaily},
		{SheetCallbacks, writeCallbacks},
	} {
		if _, err := x.NewSheet(s.name); err != nil {
			x.Close()
			return nil, err
		}
		if err := s.write(x, rep, st); err != nil {
			x.Close()
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	x.DeleteSheet("Sheet1")
	if idx, err := x.GetSheetIndex(SheetCalls); err == nil {
		x.SetActiveSheet(idx)
	}
	return x, nil
}

// Save writes the workbook for rep to path. The file is written next to its
// destination and renamed into place, so a failure leaves nothing at path.
// All failures are calllog OUTPUT errors.
func Save(rep *calllog.Report, path string) error {
	x, err := Build(rep)
	if err != nil {
		return calllog.NewOutputError("cannot build workbook", err)
	}
	defer x.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return calllog.NewOutputError("cannot create output directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".callreport-*.xlsx")
	if err != nil {
		return calllog.NewOutputError("cannot create temporary workbook", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return calllog.NewOutputError("cannot set workbook permissions", err)
	}
	if _, err := x.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return calllog.NewOutputError("cannot write workbook", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return calllog.NewOutputError("cannot write workbook", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return calllog.NewOutputError("cannot move workbook into place", err)
	}
	return nil
}
