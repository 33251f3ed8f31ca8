// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/sylseg/utils"
)

const resampleBlockFrames = 1024

// Resampler converts src to another sample rate with cubic interpolation,
// keeping the channel count. When downsampling, a one-pole low-pass at 45%
// of the target rate runs ahead of the interpolator. Sources already at the
// target rate pass through untouched.
type Resampler struct {
	src         Source
	rate        int
	channels    int
	step        float64 // source frames per output frame
	passthrough bool

	// win holds source frames i-1, i, i+1 and i+2 around the read
	// position i+pos. Past the end of the source, frames repeat the last
	// real one; live counts the real frames in win[1:].
	win    [4][]float32
	live   int
	pos    float64
	primed bool
	done   bool

	block    []float32
	blockPos int
	blockLen int
	srcEOF   bool

	alpha float32   // low-pass coefficient, 0 when disabled
	lp    []float32 // low-pass state per channel

	err error
}

// NewResampler returns a Resampler producing dstRate from src.
func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	srcRate := src.SampleRate()

	r := &Resampler{
		src:         src,
		rate:        dstRate,
		channels:    channels,
		passthrough: srcRate == dstRate,
	}
	if r.passthrough || channels <= 0 || srcRate <= 0 || dstRate <= 0 {
		r.passthrough = true
		return r
	}

	r.step = float64(srcRate) / float64(dstRate)
	r.block = make([]float32, resampleBlockFrames*channels)
	r.lp = make([]float32, channels)
	for i := range r.win {
		r.win[i] = make([]float32, channels)
	}

	if r.step > 1 {
		cutoff := 0.45 * float64(dstRate)
		r.alpha = float32(1 - math.Exp(-2*math.Pi*cutoff/float64(srcRate)))
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("close resampler source: %w", err)
	}
	return nil
}

// fetch makes sure the block holds a frame. It reports false once the
// source is exhausted.
func (r *Resampler) fetch() (bool, error) {
	idle := 0
	for r.blockPos >= r.blockLen {
		if r.srcEOF {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.block)
		n -= n % r.channels
		r.blockPos, r.blockLen = 0, n

		if errors.Is(err, io.EOF) {
			r.srcEOF = true
		} else if err != nil {
			return false, fmt.Errorf("fetch frame: %w", err)
		}

		if n == 0 && !r.srcEOF {
			idle++
			if idle > maxIdleReads {
				return false, ErrNoProgress
			}
		}
	}
	return true, nil
}

// fill loads win[i] with the next filtered source frame, or repeats
// win[i-1] past the end.
func (r *Resampler) fill(i int) error {
	ok, err := r.fetch()
	if err != nil {
		return err
	}
	if !ok {
		copy(r.win[i], r.win[i-1])
		return nil
	}

	frame := r.block[r.blockPos : r.blockPos+r.channels]
	r.blockPos += r.channels
	for c, v := range frame {
		if r.alpha > 0 {
			r.lp[c] += r.alpha * (v - r.lp[c])
			v = r.lp[c]
		}
		r.win[i][c] = v
	}
	r.live++
	return nil
}

func (r *Resampler) start() error {
	r.primed = true

	ok, err := r.fetch()
	if err != nil {
		return err
	}
	if !ok {
		r.done = true
		return nil
	}

	// Seed the filter with the first frame so a DC offset does not ramp in.
	copy(r.lp, r.block[r.blockPos:r.blockPos+r.channels])
	if err := r.fill(1); err != nil {
		return err
	}
	copy(r.win[0], r.win[1])

	if err := r.fill(2); err != nil {
		return err
	}
	return r.fill(3)
}

// advance moves the window one source frame forward.
func (r *Resampler) advance() error {
	r.win[0], r.win[1], r.win[2], r.win[3] = r.win[1], r.win[2], r.win[3], r.win[0]
	r.live--
	if r.live < 2 {
		copy(r.win[3], r.win[2])
		return nil
	}
	return r.fill(3)
}

// ReadSamples fills dst with interleaved frames at the target rate. len(dst)
// must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if r.channels > 0 && len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.passthrough {
		return r.src.ReadSamples(dst)
	}
	if r.err != nil {
		return 0, r.err
	}

	if !r.primed {
		if err := r.start(); err != nil {
			r.err = err
			return 0, err
		}
	}

	n := 0
	for !r.done && n+r.channels <= len(dst) {
		for r.pos >= 1 && r.live > 0 {
			if err := r.advance(); err != nil {
				r.err = err
				return n, err
			}
			r.pos--
		}
		if r.live == 0 {
			r.done = true
			break
		}

		t := float32(r.pos)
		for c := range r.channels {
			dst[n+c] = utils.CubicInterpolate(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], t)
		}
		n += r.channels
		r.pos += r.step
	}

	if r.done {
		return n, io.EOF
	}
	return n, nil
}
