// SPDX-License-Identifier: EPL-2.0

package sylseg

import (
	"github.com/ik5/sylseg/align"
	"github.com/ik5/sylseg/failure"
	"github.com/ik5/sylseg/segment"
)

// Mode selects how a recording is segmented.
type Mode string

const (
	ModeForced       Mode = "forced"
	ModeUnsupervised Mode = "unsupervised"
)

// State is the lifecycle position of a run.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Request describes one segmentation run. TranscriptPath and LexiconPath
// are only used in forced mode.
type Request struct {
	Mode           Mode   `validate:"required,oneof=forced unsupervised"`
	AudioPath      string `validate:"required"`
	TranscriptPath string `validate:"required_if=Mode forced"`
	LexiconPath    string `validate:"required_if=Mode forced"`
	OutputDir      string `validate:"required"`
}

// Outcome reports what a run did. On failure Err is set, State is
// StateFailed and any segments written before the failure are listed.
type Outcome struct {
	RunID      string
	Mode       Mode
	State      State
	OutputDir  string
	Boundaries []float64
	Segments   []segment.Segment
	Alignment  *align.Result
	Published  []string
	Err        *failure.Error
}

// Artifacts lists the files produced by the run.
func (o *Outcome) Artifacts() []string {
	if o.Alignment != nil {
		return []string{o.Alignment.OutputPath}
	}

	out := make([]string, len(o.Segments))
	for i, s := range o.Segments {
		out[i] = s.Path
	}
	return out
}
