// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// Signal is a fully decoded recording held in memory. Samples are
// interleaved float32 values in [-1, 1]. A Signal is treated as immutable
// once built.
type Signal struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Frames returns the number of sample frames (samples per channel).
func (s *Signal) Frames() int {
	if s == nil || s.Channels <= 0 {
		return 0
	}
	return len(s.Samples) / s.Channels
}

// Duration returns the signal length in seconds.
func (s *Signal) Duration() float64 {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return float64(s.Frames()) / float64(s.SampleRate)
}

// Slice returns the interleaved samples of frames [start, end). The result
// shares memory with the signal and must not be modified.
func (s *Signal) Slice(start, end int) []float32 {
	frames := s.Frames()
	start = min(max(start, 0), frames)
	end = min(max(end, start), frames)

	return s.Samples[start*s.Channels : end*s.Channels]
}

// Mono returns a channel-averaged copy of the signal. For mono input the
// samples are returned as is.
func (s *Signal) Mono() []float32 {
	if s.Channels <= 1 {
		return s.Samples
	}

	frames := s.Frames()
	out := make([]float32, frames)
	inv := float32(1) / float32(s.Channels)

	for f := range frames {
		var sum float32
		base := f * s.Channels
		for c := range s.Channels {
			sum += s.Samples[base+c]
		}
		out[f] = sum * inv
	}

	return out
}

// Source returns a streaming view over the signal.
func (s *Signal) Source() Source {
	return &signalSource{sig: s}
}

type signalSource struct {
	sig *Signal
	pos int
}

func (s *signalSource) SampleRate() int { return s.sig.SampleRate }
func (s *signalSource) Channels() int   { return s.sig.Channels }
func (s *signalSource) Close() error    { return nil }

func (s *signalSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.sig.Samples) {
		return 0, io.EOF
	}

	n := len(dst) - len(dst)%s.sig.Channels
	n = copy(dst[:n], s.sig.Samples[s.pos:])
	s.pos += n

	if s.pos >= len(s.sig.Samples) {
		return n, io.EOF
	}
	return n, nil
}

const maxIdleReads = 64

// ReadAll drains src into a Signal. bufferSize is rounded down to a whole
// number of frames; values below one frame fall back to 4096.
func ReadAll(src Source, bufferSize int) (*Signal, error) {
	channels := src.Channels()
	rate := src.SampleRate()
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if rate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	if bufferSize < channels {
		bufferSize = 4096
	}
	bufferSize -= bufferSize % channels
	if bufferSize == 0 {
		bufferSize = channels
	}

	buf := make([]float32, bufferSize)
	sig := &Signal{Channels: channels, SampleRate: rate}
	idle := 0

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			sig.Samples = append(sig.Samples, buf[:n]...)
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read samples: %w", err)
		}
		if n == 0 {
			idle++
			if idle > maxIdleReads {
				return nil, ErrNoProgress
			}
			continue
		}
		idle = 0
	}

	// Drop a trailing partial frame.
	sig.Samples = sig.Samples[:len(sig.Samples)-len(sig.Samples)%channels]

	return sig, nil
}
