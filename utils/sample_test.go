// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestCubicInterpolateEndpoints(t *testing.T) {
	t.Parallel()

	// x=0 must return y1 and x=1 must return y2
	for i := range 50 {
		y0, y1, y2, y3 := float32(i), float32(i+1), float32(i+2), float32(i+3)

		if got := CubicInterpolate(y0, y1, y2, y3, 0); got != y1 {
			t.Errorf("x=0: got %v, want %v", got, y1)
		}
		if got := CubicInterpolate(y0, y1, y2, y3, 1); got != y2 {
			t.Errorf("x=1: got %v, want %v", got, y2)
		}
	}
}

func TestCubicInterpolateLinear(t *testing.T) {
	t.Parallel()

	got := CubicInterpolate(1, 2, 3, 4, 0.25)
	if math.Abs(float64(got-2.25)) > 0.01 {
		t.Errorf("CubicInterpolate() = %v, want 2.25", got)
	}
}

func TestFloat32ToPCM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    float32
		bitDepth int
		want     int
	}{
		{"zero 16", 0, 16, 0},
		{"max 16", 1, 16, math.MaxInt16},
		{"min 16", -1, 16, -math.MaxInt16},
		{"clamp 16", 3, 16, math.MaxInt16},
		{"half 16", 0.5, 16, 16383},
		{"max 8", 1, 8, 127},
		{"max 24", 1, 24, 8388607},
		{"clamp negative 24", -2, 24, -8388607},
		{"max 32", 1, 32, math.MaxInt32},
		{"unknown depth", 1, 12, math.MaxInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Float32ToPCM(tt.input, tt.bitDepth); got != tt.want {
				t.Errorf("Float32ToPCM(%v, %d) = %d, want %d", tt.input, tt.bitDepth, got, tt.want)
			}
		})
	}
}

func TestFloat32ToInt16Monotonic(t *testing.T) {
	t.Parallel()

	prev := Float32ToInt16(-1)
	for f := -0.99; f <= 1.0; f += 0.01 {
		curr := Float32ToInt16(float32(f))
		if curr < prev {
			t.Fatalf("not monotonic at %v: %d < %d", f, curr, prev)
		}
		prev = curr
	}
}

func TestPCMRoundTrip(t *testing.T) {
	t.Parallel()

	for _, depth := range []int{8, 16, 24, 32} {
		for _, x := range []float32{-0.75, -0.1, 0, 0.1, 0.75} {
			back := PCMToFloat32(Float32ToPCM(x, depth), depth)
			if math.Abs(float64(back-x)) > 0.01 {
				t.Errorf("depth %d: %v -> %v", depth, x, back)
			}
		}
	}
}

func TestSecondsToFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds float64
		rate    int
		want    int
	}{
		{0, 16000, 0},
		{3.0, 16000, 48000},
		{6.5, 16000, 104000},
		{0.1, 44100, 4410},
		// 1/3 s at 8 kHz is 2666.67 frames
		{1.0 / 3.0, 8000, 2667},
	}

	for _, tt := range tests {
		if got := SecondsToFrame(tt.seconds, tt.rate); got != tt.want {
			t.Errorf("SecondsToFrame(%v, %d) = %d, want %d", tt.seconds, tt.rate, got, tt.want)
		}
	}

	if got := FrameToSeconds(8000, 16000); got != 0.5 {
		t.Errorf("FrameToSeconds() = %v, want 0.5", got)
	}
	if got := FrameToSeconds(10, 0); got != 0 {
		t.Errorf("FrameToSeconds() with zero rate = %v, want 0", got)
	}
}

func TestClampInt(t *testing.T) {
	t.Parallel()

	if ClampInt(-3, 0, 10) != 0 || ClampInt(12, 0, 10) != 10 || ClampInt(5, 0, 10) != 5 {
		t.Error("ClampInt() returned value outside range")
	}
}

func TestHannWindow(t *testing.T) {
	t.Parallel()

	w := HannWindow(8)
	if len(w) != 8 {
		t.Fatalf("len = %d, want 8", len(w))
	}
	if w[0] != 0 {
		t.Errorf("w[0] = %v, want 0", w[0])
	}
	if math.Abs(w[4]-1) > 1e-12 {
		t.Errorf("w[4] = %v, want 1", w[4])
	}
	// periodic window is symmetric around n/2
	for i := 1; i < 4; i++ {
		if math.Abs(w[4-i]-w[4+i]) > 1e-12 {
			t.Errorf("w[%d]=%v != w[%d]=%v", 4-i, w[4-i], 4+i, w[4+i])
		}
	}

	if one := HannWindow(1); one[0] != 1 {
		t.Errorf("HannWindow(1) = %v, want [1]", one)
	}
}

func BenchmarkFloat32ToInt16(b *testing.B) {
	samples := make([]float32, 8000)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) * 0.1))
	}
	out := make([]int16, len(samples))

	b.ReportAllocs()

	for b.Loop() {
		for j, s := range samples {
			out[j] = Float32ToInt16(s)
		}
	}
}
