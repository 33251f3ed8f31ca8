package segment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/sylseg/audio"
	"github.com/ik5/sylseg/events"
	"github.com/ik5/sylseg/failure"
	"github.com/ik5/sylseg/internal/audiotest"
	"github.com/ik5/sylseg/loader"
)

func TestFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index, n int
		want     string
	}{
		{1, 1, "segment_001.wav"},
		{3, 3, "segment_003.wav"},
		{999, 999, "segment_999.wav"},
		{1, 1000, "segment_0001.wav"},
		{1200, 1200, "segment_1200.wav"},
		{7, 123456, "segment_000007.wav"},
	}

	for _, tt := range tests {
		if got := FileName(tt.index, tt.n, "wav"); got != tt.want {
			t.Errorf("FileName(%d, %d) = %q, want %q", tt.index, tt.n, got, tt.want)
		}
	}
}

func TestFrames_Coverage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		b      []float64
		rate   int
		frames int
	}{
		{"single", []float64{0, 1}, 16000, 16000},
		{"uneven", []float64{0, 0.33333, 0.66667, 1}, 44100, 44100},
		{"sub-frame spacing", []float64{0, 0.00001, 0.00002, 0.5}, 8000, 4000},
		{"fractional duration", []float64{0, 0.1, 0.2000625}, 16000, 3201},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ranges := Frames(tt.b, tt.rate, tt.frames)
			if len(ranges) != len(tt.b)-1 {
				t.Fatalf("got %d ranges, want %d", len(ranges), len(tt.b)-1)
			}
			if ranges[0][0] != 0 {
				t.Errorf("first start = %d, want 0", ranges[0][0])
			}
			if last := ranges[len(ranges)-1][1]; last != tt.frames {
				t.Errorf("last end = %d, want %d", last, tt.frames)
			}

			total := 0
			for i, r := range ranges {
				if r[1] < r[0] {
					t.Errorf("range %d inverted: %v", i, r)
				}
				if i > 0 && r[0] != ranges[i-1][1] {
					t.Errorf("range %d starts at %d, previous ends at %d", i, r[0], ranges[i-1][1])
				}
				total += r[1] - r[0]
			}
			if total != tt.frames {
				t.Errorf("total frames = %d, want %d", total, tt.frames)
			}
		})
	}
}

func TestWrite_EndToEnd(t *testing.T) {
	t.Parallel()

	for _, channels := range []int{1, 2} {
		t.Run(fmt.Sprintf("%dch", channels), func(t *testing.T) {
			t.Parallel()

			const rate = 16000
			mono := audiotest.Tone(rate, 10, 220, 0.5)
			sig := &audio.Signal{
				Samples:    audiotest.Interleave(mono, channels),
				Channels:   channels,
				SampleRate: rate,
			}

			var rec events.Recorder
			var progress []int
			w := &Writer{
				Sink:     &rec,
				Progress: func(s Segment) { progress = append(progress, s.Index) },
			}

			dir := t.TempDir()
			segs, err := w.Write(context.Background(), sig, []float64{0, 3, 6.5, 10}, dir)
			if err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if len(segs) != 3 {
				t.Fatalf("got %d segments, want 3", len(segs))
			}

			wantFrames := []int{48000, 56000, 56000}
			for i, s := range segs {
				if want := filepath.Join(dir, fmt.Sprintf("segment_%03d.wav", i+1)); s.Path != want {
					t.Errorf("segment %d path = %s, want %s", i, s.Path, want)
				}
				if s.Frames() != wantFrames[i] {
					t.Errorf("segment %d frames = %d, want %d", i, s.Frames(), wantFrames[i])
				}

				got, err := loader.Load(context.Background(), s.Path)
				if err != nil {
					t.Fatalf("load %s: %v", s.Path, err)
				}
				if got.Frames() != wantFrames[i] {
					t.Errorf("file %d has %d frames, want %d", i, got.Frames(), wantFrames[i])
				}
				if got.SampleRate != rate || got.Channels != channels {
					t.Errorf("file %d format = %d Hz %d ch", i, got.SampleRate, got.Channels)
				}
			}

			if len(progress) != 3 || progress[2] != 3 {
				t.Errorf("progress = %v", progress)
			}
			if n := rec.Count(events.LevelInfo); n != 3 {
				t.Errorf("info events = %d, want 3", n)
			}
		})
	}
}

func TestWrite_SingleInterval(t *testing.T) {
	t.Parallel()

	sig := &audio.Signal{Samples: make([]float32, 800), Channels: 1, SampleRate: 8000}
	dir := t.TempDir()

	segs, err := (&Writer{}).Write(context.Background(), sig, []float64{0, 0.1}, dir)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(segs) != 1 || segs[0].Frames() != 800 {
		t.Fatalf("segments = %+v", segs)
	}
	if _, err := os.Stat(filepath.Join(dir, "segment_001.wav")); err != nil {
		t.Errorf("segment file missing: %v", err)
	}
}

func TestWrite_ManySegments(t *testing.T) {
	t.Parallel()

	const (
		n    = 1200
		rate = 1000
		per  = 10
	)

	sig := &audio.Signal{Samples: make([]float32, n*per), Channels: 1, SampleRate: rate}
	b := make([]float64, n+1)
	for i := range b {
		b[i] = float64(i*per) / rate
	}
	b[n] = sig.Duration()

	dir := t.TempDir()
	segs, err := (&Writer{}).Write(context.Background(), sig, b, dir)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(segs) != n {
		t.Fatalf("got %d segments, want %d", len(segs), n)
	}

	for _, name := range []string{"segment_0001.wav", "segment_0999.wav", "segment_1200.wav"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "segment_001.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("unpadded name should not exist, stat err = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != n {
		t.Errorf("directory has %d files, want %d", len(entries), n)
	}

	total := 0
	for _, s := range segs {
		total += s.Frames()
	}
	if total != sig.Frames() {
		t.Errorf("total frames = %d, want %d", total, sig.Frames())
	}
}

func TestWrite_Cancelled(t *testing.T) {
	t.Parallel()

	sig := &audio.Signal{Samples: make([]float32, 3000), Channels: 1, SampleRate: 1000}
	b := []float64{0, 1, 2, 3}

	t.Run("before start", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dir := t.TempDir()
		segs, err := (&Writer{}).Write(ctx, sig, b, dir)
		if !errors.Is(err, failure.ErrCancelled) {
			t.Fatalf("error = %v, want Cancelled", err)
		}
		if len(segs) != 0 {
			t.Errorf("wrote %d segments", len(segs))
		}
	})

	t.Run("between segments", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dir := t.TempDir()
		w := &Writer{Progress: func(Segment) { cancel() }}
		segs, err := w.Write(ctx, sig, b, dir)
		if !errors.Is(err, failure.ErrCancelled) {
			t.Fatalf("error = %v, want Cancelled", err)
		}
		if len(segs) != 1 {
			t.Fatalf("wrote %d segments, want 1", len(segs))
		}
		if _, err := os.Stat(segs[0].Path); err != nil {
			t.Errorf("written segment removed: %v", err)
		}
	})
}

type failingEncoder struct {
	calls     int
	failAfter int
}

func (*failingEncoder) Ext() string { return "raw" }

func (e *failingEncoder) WriteFile(path string, _, _ int, _ []float32) error {
	e.calls++
	if e.calls > e.failAfter {
		return errors.New("disk full")
	}
	return os.WriteFile(path, nil, 0o644)
}

func TestWrite_EncoderError(t *testing.T) {
	t.Parallel()

	sig := &audio.Signal{Samples: make([]float32, 3000), Channels: 1, SampleRate: 1000}
	var rec events.Recorder
	w := &Writer{Encoder: &failingEncoder{failAfter: 1}, Sink: &rec}

	dir := t.TempDir()
	segs, err := w.Write(context.Background(), sig, []float64{0, 1, 2, 3}, dir)
	if !errors.Is(err, failure.ErrWriteError) {
		t.Fatalf("error = %v, want WriteError", err)
	}

	fe, _ := failure.As(err)
	if want := filepath.Join(dir, "segment_002.raw"); fe.Path != want {
		t.Errorf("error path = %s, want %s", fe.Path, want)
	}
	if len(segs) != 1 {
		t.Errorf("kept %d segments, want 1", len(segs))
	}
	if _, err := os.Stat(filepath.Join(dir, "segment_001.raw")); err != nil {
		t.Errorf("first segment removed: %v", err)
	}
	if rec.Count(events.LevelError) != 0 {
		t.Errorf("error events = %d, want 0", rec.Count(events.LevelError))
	}
	if rec.Count(events.LevelWarn) != 1 {
		t.Errorf("warn events = %d, want 1", rec.Count(events.LevelWarn))
	}
}

func TestWrite_FoldsEmptyIntervals(t *testing.T) {
	t.Parallel()

	sig := &audio.Signal{Samples: make([]float32, 3000), Channels: 1, SampleRate: 1000}
	var rec events.Recorder
	w := &Writer{Encoder: &failingEncoder{failAfter: 10}, Sink: &rec}

	tests := []struct {
		name   string
		b      []float64
		frames [][2]int
		times  [][2]float64
	}{
		{"middle", []float64{0, 1, 1.0002, 3}, [][2]int{{0, 1000}, {1000, 3000}}, [][2]float64{{0, 1}, {1, 3}}},
		{"leading", []float64{0, 0.0003, 2, 3}, [][2]int{{0, 2000}, {2000, 3000}}, [][2]float64{{0, 2}, {2, 3}}},
		{"trailing", []float64{0, 1.5, 2.9998, 3}, [][2]int{{0, 1500}, {1500, 3000}}, [][2]float64{{0, 1.5}, {1.5, 3}}},
	}

	for _, tt := range tests {
		w.Encoder = &failingEncoder{failAfter: 10}
		segs, err := w.Write(context.Background(), sig, tt.b, t.TempDir())
		if err != nil {
			t.Fatalf("%s: Write() error = %v", tt.name, err)
		}
		if len(segs) != len(tt.frames) {
			t.Fatalf("%s: wrote %d segments, want %d", tt.name, len(segs), len(tt.frames))
		}
		for i, seg := range segs {
			if seg.Frames() == 0 {
				t.Errorf("%s: segment %d is empty", tt.name, seg.Index)
			}
			if got := [2]int{seg.StartFrame, seg.EndFrame}; got != tt.frames[i] {
				t.Errorf("%s: segment %d frames = %v, want %v", tt.name, seg.Index, got, tt.frames[i])
			}
			if got := [2]float64{seg.Start, seg.End}; got != tt.times[i] {
				t.Errorf("%s: segment %d times = %v, want %v", tt.name, seg.Index, got, tt.times[i])
			}
			if want := fmt.Sprintf("segment_%03d.raw", i+1); filepath.Base(seg.Path) != want {
				t.Errorf("%s: segment %d path = %s, want %s", tt.name, seg.Index, seg.Path, want)
			}
		}
	}

	if rec.Count(events.LevelDebug) != len(tests) {
		t.Errorf("debug events = %d, want %d", rec.Count(events.LevelDebug), len(tests))
	}
}

func TestWrite_MissingDir(t *testing.T) {
	t.Parallel()

	sig := &audio.Signal{Samples: make([]float32, 100), Channels: 1, SampleRate: 100}
	_, err := (&Writer{}).Write(context.Background(), sig, []float64{0, 1}, filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, failure.ErrWriteError) {
		t.Fatalf("error = %v, want WriteError", err)
	}
}

func TestWrite_InvalidInput(t *testing.T) {
	t.Parallel()

	sig := &audio.Signal{Samples: make([]float32, 100), Channels: 1, SampleRate: 100}
	dir := t.TempDir()

	tests := []struct {
		name string
		sig  *audio.Signal
		b    []float64
		want error
	}{
		{"nil signal", nil, []float64{0, 1}, failure.ErrUnreadableAudio},
		{"no boundaries", sig, nil, failure.ErrValidationError},
		{"short of duration", sig, []float64{0, 0.5}, failure.ErrValidationError},
		{"not increasing", sig, []float64{0, 0.6, 0.4, 1}, failure.ErrValidationError},
	}

	for _, tt := range tests {
		_, err := (&Writer{}).Write(context.Background(), tt.sig, tt.b, dir)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
}
