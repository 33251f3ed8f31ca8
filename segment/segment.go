// SPDX-License-Identifier: EPL-2.0

// Package segment cuts a signal at a boundary list and writes every piece
// to its own audio file.
package segment

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/ik5/sylseg/audio"
	"github.com/ik5/sylseg/boundary"
	"github.com/ik5/sylseg/events"
	"github.com/ik5/sylseg/failure"
	"github.com/ik5/sylseg/formats/wav"
	"github.com/ik5/sylseg/utils"
)

const (
	opWrite = "write segments"

	minNameWidth = 3
)

// Encoder writes one segment file.
type Encoder interface {
	Ext() string
	WriteFile(path string, sampleRate, channels int, samples []float32) error
}

// Segment describes one written file. Start and End are the boundary times
// in seconds; StartFrame and EndFrame are the frame range actually written.
type Segment struct {
	Index      int
	Start      float64
	End        float64
	StartFrame int
	EndFrame   int
	Path       string
}

// Frames returns the number of frames in the segment.
func (s Segment) Frames() int { return s.EndFrame - s.StartFrame }

// Writer writes segments. The zero value writes 16-bit WAV files and emits
// nothing.
type Writer struct {
	Encoder  Encoder
	Progress func(Segment)
	Sink     events.Sink
}

// NameWidth is the zero-padding width used for n segments.
func NameWidth(n int) int {
	return max(minNameWidth, len(strconv.Itoa(n)))
}

// FileName returns the name of segment index (1-based) out of n.
func FileName(index, n int, ext string) string {
	return fmt.Sprintf("segment_%0*d.%s", NameWidth(n), index, ext)
}

// Frames converts a boundary list into frame ranges over a signal of the
// given length. The first start is 0 and the last end is frames, so the
// ranges tile the signal exactly.
func Frames(b []float64, sampleRate, frames int) [][2]int {
	if len(b) < 2 {
		return nil
	}

	idx := make([]int, len(b))
	for i, t := range b {
		idx[i] = utils.ClampInt(utils.SecondsToFrame(t, sampleRate), 0, frames)
	}
	idx[0] = 0
	idx[len(idx)-1] = frames

	out := make([][2]int, len(b)-1)
	for i := range out {
		out[i] = [2]int{idx[i], max(idx[i], idx[i+1])}
	}
	return out
}

// Write cuts sig at b and writes one file per interval into dir. Files are
// named segment_NNN.<ext> in boundary order. Intervals shorter than half a
// frame are folded into the following segment and reported as debug events.
//
// The context is checked before each file. On cancellation or a failed
// write the files already written stay on disk and are returned along with
// the error.
func (w *Writer) Write(ctx context.Context, sig *audio.Signal, b []float64, dir string) ([]Segment, error) {
	if sig == nil || sig.Channels <= 0 || sig.SampleRate <= 0 {
		return nil, failure.Newf(failure.KindUnreadableAudio, opWrite, "", "signal has no channels or sample rate")
	}
	if len(b) < 2 || !boundary.Valid(b, b[len(b)-1]) || math.Abs(b[len(b)-1]-sig.Duration()) > 1/float64(sig.SampleRate) {
		return nil, failure.Newf(failure.KindValidationError, opWrite, "",
			"boundaries %v do not cover %.6fs", b, sig.Duration())
	}

	enc := w.Encoder
	if enc == nil {
		enc = wav.Encoder{}
	}
	sink := w.Sink
	if sink == nil {
		sink = events.Discard
	}

	plan := pieces(b, sig.SampleRate, sig.Frames(), sink)
	out := make([]Segment, 0, len(plan))

	for i, p := range plan {
		if err := ctx.Err(); err != nil {
			return out, failure.New(failure.KindCancelled, opWrite, dir, err)
		}

		seg := p
		seg.Index = i + 1
		seg.Path = filepath.Join(dir, FileName(seg.Index, len(plan), enc.Ext()))

		if err := enc.WriteFile(seg.Path, sig.SampleRate, sig.Channels, sig.Slice(seg.StartFrame, seg.EndFrame)); err != nil {
			sink.Emit(events.New(events.LevelWarn, "segment write failed", map[string]any{
				"index": seg.Index,
				"path":  seg.Path,
				"error": err.Error(),
			}))
			return out, failure.New(failure.KindWriteError, opWrite, seg.Path, err)
		}

		out = append(out, seg)
		if w.Progress != nil {
			w.Progress(seg)
		}
		sink.Emit(events.New(events.LevelInfo, "segment written", map[string]any{
			"index": seg.Index,
			"start": seg.Start,
			"end":   seg.End,
			"path":  seg.Path,
		}))
	}

	return out, nil
}

// pieces turns boundaries into the segments to write. Intervals that round
// to no frames are merged into their neighbours so every segment holds at
// least one frame.
func pieces(b []float64, sampleRate, frames int, sink events.Sink) []Segment {
	ranges := Frames(b, sampleRate, frames)
	out := make([]Segment, 0, len(ranges))
	start := b[0]

	for i, r := range ranges {
		if r[0] == r[1] {
			sink.Emit(events.New(events.LevelDebug, "empty segment skipped", map[string]any{
				"start": b[i],
				"end":   b[i+1],
				"frame": r[0],
			}))
			continue
		}

		out = append(out, Segment{Start: start, End: b[i+1], StartFrame: r[0], EndFrame: r[1]})
		start = b[i+1]
	}

	if len(out) == 0 {
		return []Segment{{Start: b[0], End: b[len(b)-1], EndFrame: frames}}
	}
	out[len(out)-1].End = b[len(b)-1]
	return out
}
