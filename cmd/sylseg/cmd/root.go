// SPDX-License-Identifier: EPL-2.0

// Package cmd holds the sylseg command line.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ik5/sylseg/config"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string
	logFile   bool

	cfg    *config.Config
	logger *logrus.Logger
}

// Execute runs the command line with the process arguments. SIGINT and
// SIGTERM cancel the running segmentation between segments.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sylseg",
		Short: "Split spoken audio into syllable sized segments",
		Long: `sylseg splits a spoken recording into syllable or utterance sized
segments and writes every segment as its own WAV file.

Modes:
  split  - unsupervised, cuts at acoustic onsets
  align  - forced alignment against a transcript and lexicon

Settings come from an optional TOML file (--config), SYLSEG_* environment
variables and flags, in increasing order of precedence.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "TOML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	flags.BoolVar(&a.logFile, "log-file", false, "also write syllable_segmenter.log into the output directory")

	root.AddCommand(
		newSplitCmd(a),
		newAlignCmd(a),
		newFormatsCmd(),
		newVersionCmd(),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context(), a.cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.logFile
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())
	a.logger.WithField("config", cfg.String()).Debug("configuration loaded")

	return nil
}
