// SPDX-License-Identifier: EPL-2.0

// Package vad detects onsets as non-speech to speech transitions reported by
// the WebRTC voice activity detector. It needs cgo.
package vad

import (
	"context"
	"fmt"
	"slices"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/ik5/sylseg/audio"
	"github.com/ik5/sylseg/onset"
)

const (
	DefaultRate         = 16000
	DefaultMode         = 2
	DefaultFrameMs      = 30
	DefaultMinSilenceMs = 90
)

var (
	ErrInvalidMode    = fmt.Errorf("%w: VAD mode must be between 0 and 3", onset.ErrInvalidConfig)
	ErrInvalidRate    = fmt.Errorf("%w: VAD rate must be 8000, 16000, 32000 or 48000", onset.ErrInvalidConfig)
	ErrInvalidFrameMs = fmt.Errorf("%w: VAD frame must be 10, 20 or 30 ms", onset.ErrInvalidConfig)
)

var validRates = []int{8000, 16000, 32000, 48000}

// Detector reports the start of every voiced region that follows at least
// MinSilenceMs of non-speech. The signal is downmixed and resampled to Rate
// before classification; times are reported on the original timeline.
type Detector struct {
	Mode         int
	Rate         int
	FrameMs      int
	MinSilenceMs int
}

// New returns a Detector with default settings.
func New() *Detector {
	return &Detector{
		Mode:         DefaultMode,
		Rate:         DefaultRate,
		FrameMs:      DefaultFrameMs,
		MinSilenceMs: DefaultMinSilenceMs,
	}
}

func (d Detector) withDefaults() Detector {
	if d.Rate == 0 {
		d.Rate = DefaultRate
	}
	if d.FrameMs == 0 {
		d.FrameMs = DefaultFrameMs
	}
	if d.MinSilenceMs < 0 {
		d.MinSilenceMs = 0
	}
	return d
}

func (d Detector) validate() error {
	if d.Mode < 0 || d.Mode > 3 {
		return fmt.Errorf("%w: %d", ErrInvalidMode, d.Mode)
	}
	if !slices.Contains(validRates, d.Rate) {
		return fmt.Errorf("%w: %d", ErrInvalidRate, d.Rate)
	}
	if d.FrameMs != 10 && d.FrameMs != 20 && d.FrameMs != 30 {
		return fmt.Errorf("%w: %d", ErrInvalidFrameMs, d.FrameMs)
	}
	return nil
}

// Detect implements onset.Detector.
func (d *Detector) Detect(ctx context.Context, sig *audio.Signal) ([]float64, error) {
	p := d.withDefaults()
	if err := p.validate(); err != nil {
		return nil, err
	}
	if sig.Frames() == 0 || sig.SampleRate <= 0 {
		return []float64{}, nil
	}

	pcm, rate, err := audio.ResampleToMono16(sig.Source(), p.Rate, 4096)
	if err != nil {
		return nil, fmt.Errorf("prepare vad input: %w", err)
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("create vad: %w", err)
	}
	if err := v.SetMode(p.Mode); err != nil {
		return nil, fmt.Errorf("set vad mode: %w", err)
	}

	frameLen := rate * p.FrameMs / 1000
	need := (p.MinSilenceMs + p.FrameMs - 1) / p.FrameMs
	frame := make([]byte, frameLen*2)

	var onsets []float64
	silent := need // leading audio counts as preceded by silence

	for i := 0; i+frameLen <= len(pcm); i += frameLen {
		if (i/frameLen)%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		for k, s := range pcm[i : i+frameLen] {
			frame[2*k] = byte(s)
			frame[2*k+1] = byte(s >> 8)
		}

		active, err := v.Process(rate, frame)
		if err != nil {
			return nil, fmt.Errorf("vad process: %w", err)
		}

		if !active {
			silent++
			continue
		}
		if silent >= need {
			onsets = append(onsets, float64(i)/float64(rate))
		}
		silent = 0
	}

	return onset.Clean(onsets, sig.Duration()), nil
}

var _ onset.Detector = (*Detector)(nil)
