// SPDX-License-Identifier: EPL-2.0

// Package boundary turns onset times into a gap-free list of cut points
// covering a whole recording.
//
// A boundary list B has B[0] == 0, B[len(B)-1] == duration and is strictly
// increasing, so it always describes len(B)-1 >= 1 non-empty intervals.
package boundary

import (
	"fmt"
	"math"

	"github.com/ik5/sylseg/failure"
)

const opBuild = "build boundaries"

// Interval is one [Start, End) span of a boundary list, in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Duration of the interval in seconds.
func (iv Interval) Duration() float64 { return iv.End - iv.Start }

// Build prepends 0 and appends duration to onsets. Values that are not
// finite, not strictly inside (0, duration) or not greater than the
// previous kept value are dropped, so onsets at exactly 0 or duration
// collapse into the edges instead of producing empty intervals.
//
// A duration that is not a positive finite number fails with
// failure.KindInvalidDuration.
func Build(onsets []float64, duration float64) ([]float64, error) {
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return nil, failure.New(failure.KindInvalidDuration, opBuild, "",
			fmt.Errorf("duration %v must be positive", duration))
	}

	out := make([]float64, 1, len(onsets)+2)
	out[0] = 0

	for _, t := range onsets {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			continue
		}
		if t <= out[len(out)-1] || t >= duration {
			continue
		}
		out = append(out, t)
	}

	return append(out, duration), nil
}

// Intervals returns the consecutive pairs of a boundary list.
func Intervals(b []float64) []Interval {
	if len(b) < 2 {
		return nil
	}

	out := make([]Interval, len(b)-1)
	for i := range out {
		out[i] = Interval{Start: b[i], End: b[i+1]}
	}
	return out
}

// Valid reports whether b satisfies the boundary list invariants for the
// given duration.
func Valid(b []float64, duration float64) bool {
	if len(b) < 2 || b[0] != 0 || b[len(b)-1] != duration {
		return false
	}
	for i := 1; i < len(b); i++ {
		if !(b[i] > b[i-1]) {
			return false
		}
	}
	return true
}
