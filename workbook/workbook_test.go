package workbook

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/callreport/calllog"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleReport() *calllog.Report {
	calls := []calllog.ProjectedRecord{
		{
			UserName: "Anna", UserEmail: "anna@example.com", UserPhone: "100",
			Source: "PBX", SourceDetail: "queue 1",
			Date: "2024-01-02", Time: "10:00", Shifted: at("2024-01-02 11:00:00"),
			Duration: "0", Answered: calllog.NotAnswered, Direction: calllog.Inbound,
			Number: "555123456", PhonebookName: "Client A",
		},
		{
			UserName: "Anna", UserEmail: "anna@example.com", UserPhone: "100",
			Source: "PBX", SourceDetail: "queue 1",
			Date: "2024-01-02", Time: "10:50", Shifted: at("2024-01-02 11:50:00"),
			Duration: "n/a", Answered: calllog.Answered, Direction: calllog.Outbound,
			Number: "555123456", PhonebookName: "Client A",
		},
	}
	return &calllog.Report{
		Calls:   calls,
		Summary: calllog.Summary{Total: 2, Incoming: 1, Outgoing: 1, Answered: 1, Missed: 1},
		Daily: []calllog.DailySummary{
			{Date: at("2024-01-02 00:00:00"), Summary: calllog.Summary{Total: 2, Incoming: 1, Outgoing: 1, Answered: 1, Missed: 1}},
		},
		Callbacks: []calllog.CallbackEntry{
			{
				Date: at("2024-01-02 00:00:00"), MissedAt: at("2024-01-02 11:00:00"),
				CallbackAt: at("2024-01-02 11:50:00"), DelayMinutes: 50,
				Number: "555123456", UserName: "Anna", PhonebookName: "Client A",
			},
		},
		TimeOffset:     time.Hour,
		DelayThreshold: 40 * time.Minute,
	}
}

func openSaved(t *testing.T, rep *calllog.Report) *excelize.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, Save(rep, path))
	x, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { x.Close() })
	return x
}

func rawTime(t *testing.T, x *excelize.File, sheet, axis string) time.Time {
	t.Helper()
	v, err := x.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	f, err := strconv.ParseFloat(v, 64)
	require.NoError(t, err)
	tm, err := excelize.ExcelDateToTime(f, false)
	require.NoError(t, err)
	return tm.Round(time.Second)
}

func TestSave_Sheets(t *testing.T) {
	x := openSaved(t, sampleReport())
	assert.Equal(t, []string{SheetCalls, SheetSummary, SheetDaily, SheetCallbacks}, x.GetSheetList())
}

func TestSave_Calls(t *testing.T) {
	x := openSaved(t, sampleReport())

	rows, err := x.GetRows(SheetCalls)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, calllog.CallsHeader(time.Hour), rows[0])
	assert.Equal(t, "Time + 1h", rows[0][7])

	assert.Equal(t, "Anna", rows[1][0])
	assert.Equal(t, "0", rows[1][8])
	assert.Equal(t, "No", rows[1][9])
	assert.Equal(t, "Yes", rows[1][10])
	assert.Equal(t, "No", rows[1][11])
	assert.Equal(t, "n/a", rows[2][8])
	assert.Equal(t, "No", rows[2][10])
	assert.Equal(t, "Yes", rows[2][11])

	assert.Equal(t, at("2024-01-02 11:00:00"), rawTime(t, x, SheetCalls, "H2"))
}

func TestSave_Summary(t *testing.T) {
	x := openSaved(t, sampleReport())

	rows, err := x.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Metric", "Count"},
		{"Total Calls", "2"},
		{"Incoming Calls", "1"},
		{"Outgoing Calls", "1"},
		{"Answered Calls", "1"},
		{"Missed Calls", "1"},
	}, rows)
}

func TestSave_Daily(t *testing.T) {
	x := openSaved(t, sampleReport())

	rows, err := x.GetRows(SheetDaily)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, DailyHeader, rows[0])
	assert.Equal(t, []string{"2", "1", "1", "1", "1"}, rows[1][1:])
	assert.Equal(t, at("2024-01-02 00:00:00"), rawTime(t, x, SheetDaily, "A2"))
}

func TestSave_Callbacks(t *testing.T) {
	x := openSaved(t, sampleReport())

	rows, err := x.GetRows(SheetCallbacks)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, calllog.CallbacksHeader, rows[0])
	assert.Equal(t, []string{"50", "555123456", "Anna", "Client A"}, rows[1][3:])
	assert.Equal(t, at("2024-01-02 11:00:00"), rawTime(t, x, SheetCallbacks, "B2"))
	assert.Equal(t, at("2024-01-02 11:50:00"), rawTime(t, x, SheetCallbacks, "C2"))
}

func TestSave_LateCallbackHighlighted(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		late      bool
	}{
		{"over threshold", 40 * time.Minute, true},
		{"equal to threshold", 50 * time.Minute, false},
		{"under threshold", time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := sampleReport()
			rep.DelayThreshold = tt.threshold
			x := openSaved(t, rep)

			id, err := x.GetCellStyle(SheetCallbacks, "E2")
			require.NoError(t, err)
			if !tt.late {
				assert.Zero(t, id)
				return
			}
			require.NotZero(t, id)
			style, err := x.GetStyle(id)
			require.NoError(t, err)
			assert.Equal(t, "pattern", style.Fill.Type)
			require.Len(t, style.Fill.Color, 1)
			assert.Contains(t, style.Fill.Color[0], lateFill)
		})
	}
}

func TestSave_EmptyReport(t *testing.T) {
	rep := &calllog.Report{TimeOffset: 2 * time.Hour, DelayThreshold: 40 * time.Minute}
	x := openSaved(t, rep)

	rows, err := x.GetRows(SheetCalls)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Time + 2h", rows[0][7])

	rows, err = x.GetRows(SheetCallbacks)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSave_NoTemporaryFilesLeft(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(sampleReport(), filepath.Join(dir, "report.xlsx")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "report.xlsx", entries[0].Name())
}

func TestSave_FileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Save(sampleReport(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestSave_OutputError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// the parent of the destination is a regular file
	path := filepath.Join(blocker, "report.xlsx")
	err := Save(sampleReport(), path)
	assert.ErrorIs(t, err, calllog.ErrOutput)
	assert.NoFileExists(t, path)
}

func TestDurationValue(t *testing.T) {
	assert.Equal(t, int64(42), durationValue("42"))
	assert.Equal(t, 1.5, durationValue("1.5"))
	assert.Equal(t, "00:01:10", durationValue("00:01:10"))
}
