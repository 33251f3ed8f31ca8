// SPDX-License-Identifier: EPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ik5/sylseg"
	"github.com/ik5/sylseg/config"
)

func newSplitCmd(a *app) *cobra.Command {
	var (
		out       string
		detector  string
		backtrack bool
		delta     float64
	)

	c := &cobra.Command{
		Use:   "split AUDIO",
		Short: "Cut a recording at its acoustic onsets",
		Long: `Detects onsets in AUDIO and writes every interval between them as
segment_NNN.wav in the output directory. The paths of the written files are
printed on stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("detector") {
				a.cfg.Detector = detector
			}
			if flags.Changed("backtrack") {
				a.cfg.Backtrack = backtrack
			}
			if flags.Changed("delta") {
				a.cfg.Delta = delta
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			return a.run(cmd.Context(), cmd.OutOrStdout(), sylseg.Request{
				Mode:      sylseg.ModeUnsupervised,
				AudioPath: args[0],
				OutputDir: outputDir(out, args[0]),
			})
		},
	}

	flags := c.Flags()
	flags.StringVarP(&out, "out", "o", "", "output directory (default: the audio file's directory)")
	flags.StringVar(&detector, "detector", config.DetectorSpectral, "onset detector (spectral, vad)")
	flags.BoolVar(&backtrack, "backtrack", false, "move onsets back to the preceding energy minimum")
	flags.Float64Var(&delta, "delta", 0.07, "peak picking threshold above the local mean")

	return c
}
