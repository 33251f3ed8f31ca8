// SPDX-License-Identifier: EPL-2.0

// Package utils holds small numeric helpers shared by the audio pipeline:
// sample format conversion, time/frame arithmetic and analysis windows.
package utils

import "math"

// CubicInterpolate performs Catmull-Rom interpolation between y1 and y2.
// x is the fractional position (0 <= x <= 1).
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*x*x*x + a1*x*x + a2*x + a3
}

// Float32ToInt16 clamps x to [-1, 1] and scales it to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	return int16(Float32ToPCM(x, 16))
}

// Float32ToPCM clamps x to [-1, 1] and scales it to a signed integer of the
// given bit depth. Unknown depths are treated as 16-bit.
func Float32ToPCM(x float32, bitDepth int) int {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	switch bitDepth {
	case 8:
		return int(x * 127.0)
	case 24:
		return int(float64(x) * 8388607.0)
	case 32:
		return int(float64(x) * 2147483647.0)
	default:
		return int(x * 32767.0)
	}
}

// PCMToFloat32 normalizes a signed integer sample of the given bit depth to
// [-1, 1).
func PCMToFloat32(v int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(v) / 128.0
	case 24:
		return float32(float64(v) / 8388608.0)
	case 32:
		return float32(float64(v) / 2147483648.0)
	default:
		return float32(v) / 32768.0
	}
}

// SecondsToFrame converts a time to the nearest frame index at rate.
func SecondsToFrame(seconds float64, rate int) int {
	return int(math.Round(seconds * float64(rate)))
}

// FrameToSeconds converts a frame index to seconds at rate.
func FrameToSeconds(frame int, rate int) float64 {
	if rate <= 0 {
		return 0
	}
	return float64(frame) / float64(rate)
}

// ClampInt limits v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HannWindow returns a periodic Hann window of length n.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	if n <= 1 {
		for i := range w {
			w[i] = 1
		}
		return w
	}

	for i := range n {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}

	return w
}
