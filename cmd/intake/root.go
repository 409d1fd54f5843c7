package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"intake/internal/config"
	"intake/internal/format"
)

type rootOptions struct {
	jsonOutput   bool
	outputFormat string
	logLevel     string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "intake",
		Short:         "Intake stores patient records with photo, video and document attachments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyRootOptions(cmd, cfg, opts)
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&opts.outputFormat, "format", "", "structured output format (json, yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newCreateCmd(cfg, opts),
		newGetCmd(cfg, opts),
		newUpdateCmd(cfg, opts),
		newConfigCmd(cfg),
	)

	return cmd
}

func applyRootOptions(cmd *cobra.Command, cfg *config.Config, opts *rootOptions) error {
	configLevel := ""
	if cfg != nil {
		configLevel = cfg.LogLevel
	}
	warning, err := configureLoggerForCLI(opts.logLevel, configLevel)
	if err != nil {
		return err
	}
	if warning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), warning)
	}

	formatter, err := format.ByName(opts.outputFormat)
	if err != nil {
		return err
	}
	outputFormatter = formatter
	return nil
}

// structured reports whether command output should go through the formatter.
func (o *rootOptions) structured() bool {
	return o.jsonOutput || o.outputFormat != ""
}
