package calllog

import (
	"io"
	"log/slog"
	"time"
)

// Report is the finished result of one run, ready for the writer.
type Report struct {
	Calls     []ProjectedRecord
	Summary   Summary
	Daily     []DailySummary
	Callbacks []CallbackEntry

	RowsRead int
	Excluded int
	// Warnings holds soft conditions such as an unreadable exclusion list.
	Warnings []error

	TimeOffset     time.Duration
	DelayThreshold time.Duration
}

// CallsHeader is the Calls header for this report's offset.
func (r *Report) CallsHeader() []string { return CallsHeader(r.TimeOffset) }

// Run executes every stage over ds. The dataset is not modified. Any fatal
// error stops the run and no partial report is returned.
func Run(ds *Dataset, excluded NumberSet, opts Options, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()

	if err := ValidateSchema(ds.Header); err != nil {
		return nil, err
	}

	kept, dropped := Exclude(ds.Rows, excluded, opts.NumberLength)
	logger.Info("exclusion applied",
		slog.Int("rows_read", len(ds.Rows)),
		slog.Int("excluded", dropped),
		slog.Int("exclusion_list_size", len(excluded)))

	timed, err := AdjustTimes(kept, opts)
	if err != nil {
		return nil, err
	}

	calls, err := Project(timed)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Calls:          calls,
		Summary:        Summarize(calls, opts.MissedCount),
		Daily:          SummarizeDaily(calls, opts.MissedCount),
		Callbacks:      MatchCallbacks(calls),
		RowsRead:       len(ds.Rows),
		Excluded:       dropped,
		TimeOffset:     opts.TimeOffset,
		DelayThreshold: opts.DelayThreshold,
	}
	logger.Info("call log processed",
		slog.Int("calls", rep.Summary.Total),
		slog.Int("incoming", rep.Summary.Incoming),
		slog.Int("outgoing", rep.Summary.Outgoing),
		slog.Int("missed", rep.Summary.Missed),
		slog.Int("callbacks", len(rep.Callbacks)),
		slog.String("missed_policy", string(opts.MissedCount)))
	return rep, nil
}

// Process reads a TSV export from r and runs it.
func Process(r io.Reader, excluded NumberSet, opts Options, logger *slog.Logger) (*Report, error) {
	ds, err := ReadTSV(r)
	if err != nil {
		return nil, err
	}
	return Run(ds, excluded, opts, logger)
}
