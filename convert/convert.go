// Package convert runs one export through the pipeline and writes the
// workbook. The CLI and the upload server both go through Run.
package convert

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/jalad-shrimali/callreport/calllog"
	"github.com/jalad-shrimali/callreport/config"
	"github.com/jalad-shrimali/callreport/exclusion"
	"github.com/jalad-shrimali/callreport/metrics"
	"github.com/jalad-shrimali/callreport/workbook"
)

// Job describes one conversion.
type Job struct {
	Input  io.Reader
	Output string
	// Exclusions overrides cfg.Paths.Exclusions when set.
	Exclusions string
}

// Run processes job.Input and writes the workbook to job.Output. On any fatal
// error nothing is written. Pipeline and writer failures are *calllog.Error;
// an unreadable exclusion list is only added to the report's Warnings.
func Run(ctx context.Context, job Job, cfg *config.Config, logger *slog.Logger, rec *metrics.Recorder) (*calllog.Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	listPath := cfg.Paths.Exclusions
	if job.Exclusions != "" {
		listPath = job.Exclusions
	}

	set, warn := exclusion.Load(ctx, listPath, cfg.ExclusionOptions(), logger)
	if warn != nil && fatal(warn) {
		rec.ObserveFailure(warn)
		return nil, warn
	}

	rep, err := calllog.Process(job.Input, set, cfg.PipelineOptions(), logger)
	if err != nil {
		logger.Error("call log rejected", slog.String("error", err.Error()))
		rec.ObserveFailure(err)
		return nil, err
	}
	if warn != nil {
		rep.Warnings = append(rep.Warnings, warn)
	}

	if err := ctx.Err(); err != nil {
		rec.ObserveFailure(err)
		return nil, err
	}
	if err := workbook.Save(rep, job.Output); err != nil {
		logger.Error("workbook not written", slog.String("output", job.Output), slog.String("error", err.Error()))
		rec.ObserveFailure(err)
		return nil, err
	}

	rec.ObserveReport(rep)
	logger.Info("workbook written",
		slog.String("output", job.Output),
		slog.Int("callbacks", len(rep.Callbacks)),
		slog.Int("warnings", len(rep.Warnings)))
	return rep, nil
}

// fatal reports whether err must stop the run. Only calllog kinds marked
// non-fatal are downgraded to warnings.
func fatal(err error) bool {
	var ce *calllog.Error
	if errors.As(err, &ce) {
		return ce.Kind.Fatal()
	}
	return true
}

// IsDataError reports whether err was caused by the input itself rather than
// by the environment.
func IsDataError(err error) bool {
	var ce *calllog.Error
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Kind {
	case calllog.KindSchema, calllog.KindTimeParse, calllog.KindCoercion, calllog.KindInput:
		return true
	}
	return false
}
