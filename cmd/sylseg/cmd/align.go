// SPDX-License-Identifier: EPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ik5/sylseg"
)

func newAlignCmd(a *app) *cobra.Command {
	var out string

	c := &cobra.Command{
		Use:   "align AUDIO TRANSCRIPT LEXICON",
		Short: "Force-align a recording against its transcript",
		Long: `Runs forced alignment of AUDIO against TRANSCRIPT using the
pronunciation LEXICON. Without an aligner_command in the configuration a
plain-text report (forced_align.txt) is written.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd.OutOrStdout(), sylseg.Request{
				Mode:           sylseg.ModeForced,
				AudioPath:      args[0],
				TranscriptPath: args[1],
				LexiconPath:    args[2],
				OutputDir:      outputDir(out, args[0]),
			})
		},
	}

	c.Flags().StringVarP(&out, "out", "o", "", "output directory (default: the audio file's directory)")

	return c
}
