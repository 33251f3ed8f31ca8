// SPDX-License-Identifier: EPL-2.0

// Package onset finds the times in a recording where new acoustic events
// start. Detectors return strictly increasing timestamps in seconds, each
// strictly inside (0, duration). A signal without events yields an empty
// list, not an error.
package onset

import (
	"context"
	"math"

	"github.com/ik5/sylseg/audio"
)

// Detector reports onset times for a signal.
type Detector interface {
	Detect(ctx context.Context, sig *audio.Signal) ([]float64, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context, sig *audio.Signal) ([]float64, error)

func (f DetectorFunc) Detect(ctx context.Context, sig *audio.Signal) ([]float64, error) {
	return f(ctx, sig)
}

// Clean drops values that are not finite, not strictly inside
// (0, duration) or not strictly greater than the previous kept value.
// The input order is preserved; nothing is sorted.
func Clean(onsets []float64, duration float64) []float64 {
	out := make([]float64, 0, len(onsets))
	last := 0.0

	for _, t := range onsets {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			continue
		}
		if t <= last || t >= duration {
			continue
		}
		out = append(out, t)
		last = t
	}

	return out
}
