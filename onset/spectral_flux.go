// SPDX-License-Identifier: EPL-2.0

package onset

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ik5/sylseg/audio"
	"github.com/ik5/sylseg/utils"
)

// Defaults for SpectralFlux, in analysis frames unless noted.
const (
	DefaultFrameSize   = 2048
	DefaultHopSize     = 512
	DefaultCompression = 100.0
	DefaultPreMax      = 3
	DefaultPostMax     = 3
	DefaultPreAvg      = 10
	DefaultPostAvg     = 10
	DefaultDelta       = 0.07
	DefaultWait        = 3
	DefaultRefineRatio = 0.5

	// Envelopes whose strongest frame is below this are treated as silent.
	silenceFloor = 1e-6

	// Backtracking stops once the normalized envelope falls to this level.
	backtrackFloor = 0.01

	ctxCheckEvery = 256

	refineBlocksPerSecond = 100
)

// SpectralFlux detects onsets from the positive change of the
// log-compressed magnitude spectrum between consecutive frames.
//
// Frames are centered on multiples of HopSize, zero padded at both ends and
// Hann windowed. The flux envelope is normalized to a peak of 1 and a frame
// is an onset when it is the maximum of [i-PreMax, i+PostMax], exceeds the
// mean of [i-PreAvg, i+PostAvg] by Delta, and lies more than Wait frames
// after the previous onset.
//
// With Backtrack set the onset moves back to the preceding local minimum of
// the envelope. With Refine set the time is then snapped to the first sample
// after the quietest stretch before the peak whose magnitude reaches
// RefineRatio of the peak frame's level. An onset with no quieter stretch
// ahead of it keeps its frame time.
//
// Zero numeric fields take their defaults; use NewSpectralFlux to also
// enable Refine.
type SpectralFlux struct {
	FrameSize   int
	HopSize     int
	Compression float64
	PreMax      int
	PostMax     int
	PreAvg      int
	PostAvg     int
	Delta       float64
	Wait        int
	Backtrack   bool
	Refine      bool
	RefineRatio float64
}

// NewSpectralFlux returns a detector with default parameters and attack
// refinement enabled.
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{
		FrameSize:   DefaultFrameSize,
		HopSize:     DefaultHopSize,
		Compression: DefaultCompression,
		PreMax:      DefaultPreMax,
		PostMax:     DefaultPostMax,
		PreAvg:      DefaultPreAvg,
		PostAvg:     DefaultPostAvg,
		Delta:       DefaultDelta,
		Wait:        DefaultWait,
		Refine:      true,
		RefineRatio: DefaultRefineRatio,
	}
}

func (d SpectralFlux) withDefaults() SpectralFlux {
	if d.FrameSize == 0 {
		d.FrameSize = DefaultFrameSize
	}
	if d.HopSize == 0 {
		d.HopSize = DefaultHopSize
	}
	if d.Compression <= 0 {
		d.Compression = DefaultCompression
	}
	if d.PreMax == 0 {
		d.PreMax = DefaultPreMax
	}
	if d.PostMax == 0 {
		d.PostMax = DefaultPostMax
	}
	if d.PreAvg == 0 {
		d.PreAvg = DefaultPreAvg
	}
	if d.PostAvg == 0 {
		d.PostAvg = DefaultPostAvg
	}
	if d.Delta == 0 {
		d.Delta = DefaultDelta
	}
	if d.Wait == 0 {
		d.Wait = DefaultWait
	}
	if d.RefineRatio <= 0 || d.RefineRatio > 1 {
		d.RefineRatio = DefaultRefineRatio
	}
	return d
}

func (d SpectralFlux) validate() error {
	if d.FrameSize <= 0 || d.FrameSize&(d.FrameSize-1) != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFrameSize, d.FrameSize)
	}
	if d.HopSize <= 0 || d.HopSize > d.FrameSize {
		return fmt.Errorf("%w: %d", ErrInvalidHopSize, d.HopSize)
	}
	return nil
}

// Detect implements Detector.
func (d *SpectralFlux) Detect(ctx context.Context, sig *audio.Signal) ([]float64, error) {
	p := d.withDefaults()
	if err := p.validate(); err != nil {
		return nil, err
	}
	if sig.Frames() == 0 || sig.SampleRate <= 0 {
		return []float64{}, nil
	}

	mono := sig.Mono()

	env, err := p.Envelope(ctx, mono)
	if err != nil {
		return nil, err
	}

	peaks := p.pick(env)
	onsets := make([]float64, 0, len(peaks))

	// Frames whose window runs past the end see the signal drop to zero,
	// which reads as flux.
	full := (len(mono) - p.FrameSize/2) / p.HopSize

	for _, peak := range peaks {
		if peak > full {
			break
		}

		frame := peak
		if p.Backtrack {
			frame = backtrack(env, peak)
		}

		sample := frame * p.HopSize
		if p.Refine {
			sample = p.refine(mono, sig.SampleRate, frame, peak)
		}

		// Sound that is already present at the first hop is the start of
		// the signal, not an onset.
		if sample < p.HopSize {
			continue
		}

		onsets = append(onsets, utils.FrameToSeconds(sample, sig.SampleRate))
	}

	return Clean(onsets, sig.Duration()), nil
}

// Envelope computes the normalized onset strength of a mono signal, one
// value per hop. It is all zeros for a silent signal.
func (d *SpectralFlux) Envelope(ctx context.Context, mono []float32) ([]float64, error) {
	p := d.withDefaults()
	if err := p.validate(); err != nil {
		return nil, err
	}

	n := len(mono)
	frames := 1 + n/p.HopSize
	bins := p.FrameSize/2 + 1
	half := p.FrameSize / 2

	window := utils.HannWindow(p.FrameSize)
	fft := fourier.NewFFT(p.FrameSize)
	seq := make([]float64, p.FrameSize)
	coeff := make([]complex128, bins)
	prev := make([]float64, bins)
	cur := make([]float64, bins)
	env := make([]float64, frames)

	for i := range frames {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		start := i*p.HopSize - half
		for k := range seq {
			idx := start + k
			if idx < 0 || idx >= n {
				seq[k] = 0
				continue
			}
			seq[k] = float64(mono[idx]) * window[k]
		}

		coeff = fft.Coefficients(coeff, seq)
		for b, c := range coeff {
			cur[b] = math.Log1p(p.Compression * cmplx.Abs(c))
		}

		if i > 0 {
			var flux float64
			for b := range cur {
				if diff := cur[b] - prev[b]; diff > 0 {
					flux += diff
				}
			}
			env[i] = flux
		}

		prev, cur = cur, prev
	}

	peak := 0.0
	for _, v := range env {
		peak = max(peak, v)
	}
	if peak < silenceFloor {
		clear(env)
		return env, nil
	}
	for i := range env {
		env[i] /= peak
	}

	return env, nil
}

// pick returns the indexes of envelope peaks.
func (d SpectralFlux) pick(env []float64) []int {
	var peaks []int
	last := -d.Wait - 1

	for i, v := range env {
		if v <= 0 {
			continue
		}

		lo, hi := max(0, i-d.PreMax), min(len(env), i+d.PostMax+1)
		if v < maxOf(env[lo:hi]) {
			continue
		}

		lo, hi = max(0, i-d.PreAvg), min(len(env), i+d.PostAvg+1)
		if v < meanOf(env[lo:hi])+d.Delta {
			continue
		}

		if i-last <= d.Wait {
			continue
		}

		peaks = append(peaks, i)
		last = i
	}

	return peaks
}

// backtrack walks back from peak to the preceding local minimum, or to the
// first frame at or below backtrackFloor.
func backtrack(env []float64, peak int) int {
	i := peak
	for i > 0 && env[i] > backtrackFloor && env[i-1] < env[i] {
		i--
	}
	return i
}

// refine moves the onset of peak, backtracked to frame, to the attack
// sample. It finds the quietest stretch between half a frame before frame's
// window and the center of peak, then returns the first sample after it
// whose magnitude reaches RefineRatio of the peak frame's level. When even
// the quietest stretch is that loud the previous sound is still going, and
// the frame time is kept.
func (d SpectralFlux) refine(mono []float32, rate, frame, peak int) int {
	half := d.FrameSize / 2
	fallback := frame * d.HopSize

	center := min(len(mono), peak*d.HopSize)
	hi := min(len(mono), center+half)
	lo := max(0, frame*d.HopSize-d.FrameSize)
	if lo >= center {
		return fallback
	}

	var ref float32
	for _, v := range mono[max(0, center-half):hi] {
		ref = max(ref, abs32(v))
	}
	if ref == 0 {
		return fallback
	}
	thr := float32(d.RefineRatio) * ref

	// Blocks span at least one period of a 100 Hz voice.
	block := max(1, rate/refineBlocksPerSecond)
	quiet, level := -1, float32(math.Inf(1))
	for start := lo; start < center; start += block {
		var top float32
		for _, v := range mono[start:min(start+block, center)] {
			top = max(top, abs32(v))
		}
		if top <= level {
			quiet, level = start, top
		}
	}
	if level >= thr {
		return fallback
	}

	for k := quiet; k < hi; k++ {
		if abs32(mono[k]) >= thr {
			return k
		}
	}

	return fallback
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func maxOf(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		m = max(m, x)
	}
	return m
}

func meanOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
