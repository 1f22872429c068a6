package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jalad-shrimali/callreport/config"
	"github.com/jalad-shrimali/callreport/convert"
	"github.com/jalad-shrimali/callreport/logging"
)

type convertOptions struct {
	input        string
	output       string
	exclusions   string
	offset       time.Duration
	threshold    time.Duration
	numberLength int
	missedCount  string
	dateLayouts  []string
	location     string
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	o := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert one call-log export into a workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, root, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "tab-separated export to read (- for stdin)")
	f.StringVarP(&o.output, "output", "o", "", "workbook to write")
	f.StringVarP(&o.exclusions, "exclusions", "x", "", "exclusion list (text file or sqlite database)")
	f.DurationVar(&o.offset, "offset", time.Hour, "time offset added to every call")
	f.DurationVar(&o.threshold, "threshold", 40*time.Minute, "callback delay above which a row is highlighted")
	f.IntVar(&o.numberLength, "number-length", 9, "digits kept when comparing numbers")
	f.StringVar(&o.missedCount, "missed-count", "total-minus-answered", "missed calls policy (total-minus-answered, incoming-unanswered)")
	f.StringArrayVar(&o.dateLayouts, "date-layout", nil, `Go time layout for "Date Time", repeatable (e.g. "2/1/2006 15:04:05" for day-first)`)
	f.StringVar(&o.location, "location", "UTC", "time zone the export's timestamps are read in")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runConvert(cmd *cobra.Command, root *rootOptions, o *convertOptions) error {
	flags := cmd.Flags()
	cfg, err := root.load(cmd, func(c *config.Config) {
		if flags.Changed("exclusions") {
			c.Paths.Exclusions = o.exclusions
		}
		if flags.Changed("offset") {
			c.Pipeline.TimeOffset = o.offset
		}
		if flags.Changed("threshold") {
			c.Pipeline.DelayThreshold = o.threshold
		}
		if flags.Changed("number-length") {
			c.Pipeline.NumberLength = o.numberLength
		}
		if flags.Changed("missed-count") {
			c.Pipeline.MissedCount = o.missedCount
		}
		if flags.Changed("date-layout") {
			c.Pipeline.DateLayouts = o.dateLayouts
		}
		if flags.Changed("location") {
			c.Pipeline.Location = o.location
		}
	})
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	var in io.Reader = cmd.InOrStdin()
	if o.input != "-" {
		f, err := os.Open(o.input)
		if err != nil {
			return fmt.Errorf("cannot open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	rep, err := convert.Run(cmd.Context(), convert.Job{Input: in, Output: o.output}, cfg, logger.With("input", o.input), nil)
	if err != nil {
		return err
	}

	late := 0
	for _, cb := range rep.Callbacks {
		if cb.Exceeds(rep.DelayThreshold) {
			late++
		}
	}
	for _, w := range rep.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d calls (%d excluded), %d missed, %d callbacks, %d over %s\n",
		o.output, rep.Summary.Total, rep.Excluded, rep.Summary.Missed, len(rep.Callbacks), late, rep.DelayThreshold)
	return nil
}
