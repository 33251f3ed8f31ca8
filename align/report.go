// SPDX-License-Identifier: EPL-2.0

package align

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultReportName is the file written by ReportBackend.
const DefaultReportName = "forced_align.txt"

// ReportBackend checks the transcript against the lexicon and writes a
// word-level pronunciation report. It does not time-align anything.
type ReportBackend struct {
	FileName string
}

func (b *ReportBackend) Align(ctx context.Context, job Job) (string, error) {
	name := b.FileName
	if name == "" {
		name = DefaultReportName
	}

	text, err := os.ReadFile(job.Transcript)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	lex, err := LoadLexicon(job.Lexicon)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tokens := Tokenize(string(text))
	path := filepath.Join(job.OutputDir, name)

	if err := writeReport(path, job, lex, tokens); err != nil {
		return "", err
	}
	return path, nil
}

func writeReport(path string, job Job, lex Lexicon, tokens []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "Forced alignment result for %s\n", job.Audio)
	fmt.Fprintf(w, "transcript: %s\n", job.Transcript)
	fmt.Fprintf(w, "lexicon: %s (%d entries)\n", job.Lexicon, lex.Entries())
	fmt.Fprintf(w, "tokens: %d\n\n", len(tokens))

	for _, t := range tokens {
		prons, ok := lex.Lookup(t)
		if !ok {
			fmt.Fprintf(w, "%s\t<oov>\n", t)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", t, strings.Join(prons[0], " "))
	}

	oov := lex.OOV(tokens)
	fmt.Fprintf(w, "\nout-of-vocabulary: %d", len(oov))
	if len(oov) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(oov, ", "))
	}
	fmt.Fprintln(w)

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
