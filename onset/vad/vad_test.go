package vad

import (
	"context"
	"errors"
	"testing"

	"github.com/ik5/sylseg/audio"
	"github.com/ik5/sylseg/internal/audiotest"
	"github.com/ik5/sylseg/onset"
)

func TestDetector_Silence(t *testing.T) {
	t.Parallel()

	sig := &audio.Signal{Samples: make([]float32, 44100*2), Channels: 2, SampleRate: 44100}

	got, err := New().Detect(context.Background(), sig)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Detect() on silence = %v, want none", got)
	}
}

func TestDetector_EmptySignal(t *testing.T) {
	t.Parallel()

	got, err := New().Detect(context.Background(), &audio.Signal{Channels: 1, SampleRate: 16000})
	if err != nil || len(got) != 0 {
		t.Errorf("Detect() = %v, %v; want empty, nil", got, err)
	}
}

func TestDetector_OnsetsStayInside(t *testing.T) {
	t.Parallel()

	mono := audiotest.Bursts(16000, 3,
		audiotest.Burst{Start: 0.5, Frequency: 220, Amplitude: 0.9, Decay: 0.15},
		audiotest.Burst{Start: 1.8, Frequency: 330, Amplitude: 0.9, Decay: 0.15},
	)
	sig := &audio.Signal{Samples: mono, Channels: 1, SampleRate: 16000}

	got, err := New().Detect(context.Background(), sig)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	for i, v := range got {
		if v <= 0 || v >= sig.Duration() {
			t.Errorf("onset %d = %v outside (0, %v)", i, v, sig.Duration())
		}
		if i > 0 && v <= got[i-1] {
			t.Errorf("onsets not increasing: %v", got)
		}
	}
}

func TestDetector_InvalidSettings(t *testing.T) {
	t.Parallel()

	sig := &audio.Signal{Samples: make([]float32, 1600), Channels: 1, SampleRate: 16000}

	tests := []struct {
		name string
		det  Detector
		want error
	}{
		{"mode", Detector{Mode: 7}, ErrInvalidMode},
		{"rate", Detector{Rate: 22050}, ErrInvalidRate},
		{"frame", Detector{FrameMs: 25}, ErrInvalidFrameMs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.det.Detect(context.Background(), sig)
			if !errors.Is(err, tt.want) {
				t.Errorf("Detect() error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, onset.ErrInvalidConfig) {
				t.Errorf("Detect() error = %v, want it to wrap onset.ErrInvalidConfig", err)
			}
		})
	}
}
