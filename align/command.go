// SPDX-License-Identifier: EPL-2.0

package align

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandBackend runs an external aligner. Args and Result may contain the
// placeholders {audio}, {transcript}, {lexicon} and {output}; {output} is
// the output directory. A relative Result is taken inside the output
// directory.
type CommandBackend struct {
	Path   string
	Args   []string
	Result string
}

func (b *CommandBackend) Align(ctx context.Context, job Job) (string, error) {
	if b.Path == "" {
		return "", ErrNoCommand
	}

	r := strings.NewReplacer(
		"{audio}", job.Audio,
		"{transcript}", job.Transcript,
		"{lexicon}", job.Lexicon,
		"{output}", job.OutputDir,
	)

	args := make([]string, len(b.Args))
	for i, a := range b.Args {
		args[i] = r.Replace(a)
	}

	cmd := exec.CommandContext(ctx, b.Path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("run %s: %w", b.Path, err)
		}
		return "", fmt.Errorf("run %s: %w: %s", b.Path, err, msg)
	}

	result := b.Result
	if result == "" {
		result = DefaultReportName
	}
	result = r.Replace(result)
	if !filepath.IsAbs(result) {
		result = filepath.Join(job.OutputDir, result)
	}

	return result, nil
}
