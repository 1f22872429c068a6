// Package commands implements the callreport command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/jalad-shrimali/callreport/config"
)

const version = "0.3.0"

type rootOptions struct {
	configFile string
	logLevel   string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:     "callreport",
		Short:   "Turn call-log exports into callback workbooks",
		Version: version,
		Long: `callreport reads a tab-separated call-log export, drops excluded numbers,
shifts timestamps into local time and writes an Excel workbook with the
Calls, Summary, Daily and Callbacks sheets.`,
		Example: `  # Convert one export
  $ callreport convert -i calls.tsv -o report.xlsx --exclusions staff.txt

  # Use a two hour offset
  $ callreport convert -i calls.tsv -o report.xlsx --offset 2h

  # Run the upload server
  $ callreport serve --addr :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(newConvertCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// load reads the config and applies the flags shared by every command.
func (o *rootOptions) load(cmd *cobra.Command, apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
