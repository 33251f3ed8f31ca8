// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic audio fixtures for tests: streaming
// mock sources, burst signals with known onset times and in-memory WAV
// files.
package audiotest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"testing"
)

// Burst describes a decaying tone that starts abruptly at Start seconds.
// The tone starts at phase zero of a cosine, so its first sample has full
// amplitude.
type Burst struct {
	Start     float64
	Frequency float64
	Amplitude float64
	Decay     float64 // time constant in seconds; 0 means no decay
}

// Bursts renders a mono signal of the given duration that is silent except
// for the listed bursts. A burst lasts until the next one starts or the
// signal ends. Burst starts land exactly on round(Start*rate).
func Bursts(rate int, seconds float64, bursts ...Burst) []float32 {
	n := int(math.Round(seconds * float64(rate)))
	out := make([]float32, n)

	for i, b := range bursts {
		start := int(math.Round(b.Start * float64(rate)))
		end := n
		if i+1 < len(bursts) {
			end = min(n, int(math.Round(bursts[i+1].Start*float64(rate))))
		}

		for k := start; k < end; k++ {
			t := float64(k-start) / float64(rate)
			env := b.Amplitude
			if b.Decay > 0 {
				env *= math.Exp(-t / b.Decay)
			}
			out[k] = float32(env * math.Cos(2*math.Pi*b.Frequency*t))
		}
	}

	return out
}

// Tone renders a constant-amplitude sine of the given duration.
func Tone(rate int, seconds, frequency, amplitude float64) []float32 {
	n := int(math.Round(seconds * float64(rate)))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*float64(i)/float64(rate)))
	}
	return out
}

// Interleave duplicates a mono signal onto channels channels.
func Interleave(mono []float32, channels int) []float32 {
	out := make([]float32, len(mono)*channels)
	for i, v := range mono {
		for c := range channels {
			out[i*channels+c] = v
		}
	}
	return out
}

// ToInt16 converts float samples to 16-bit PCM with clamping.
func ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		v = max(-1, min(1, v))
		out[i] = int16(v * 32767)
	}
	return out
}

// WAVBytes builds a canonical 44-byte-header PCM WAV file.
func WAVBytes(sampleRate, channels, bitsPerSample int, samples []int16) []byte {
	buf := new(bytes.Buffer)

	numChannels := uint16(channels)
	bits := uint16(bitsPerSample)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bits/8)
	blockAlign := numChannels * (bits / 8)
	dataSize := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, numChannels)
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, bits)

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	for _, s := range samples {
		_ = binary.Write(buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}

// ExtensibleWAVBytes builds a 16-bit PCM WAV file whose fmt chunk uses
// WAVE_FORMAT_EXTENSIBLE with the PCM subformat GUID.
func ExtensibleWAVBytes(sampleRate, channels int, samples []int16) []byte {
	buf := new(bytes.Buffer)
	le := func(v any) { _ = binary.Write(buf, binary.LittleEndian, v) }

	blockAlign := uint16(channels * 2)
	dataSize := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	le(4 + 8 + 40 + 8 + dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	le(uint32(40))
	le(uint16(0xFFFE))
	le(uint16(channels))
	le(uint32(sampleRate))
	le(uint32(sampleRate) * uint32(blockAlign))
	le(blockAlign)
	le(uint16(16))
	le(uint16(22)) // extension size
	le(uint16(16)) // valid bits
	le(uint32(0))  // channel mask
	buf.Write([]byte{
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
		0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
	})

	buf.WriteString("data")
	le(dataSize)
	for _, s := range samples {
		le(s)
	}

	return buf.Bytes()
}

// WriteWAVFile writes float samples as 16-bit PCM WAV at path.
func WriteWAVFile(t testing.TB, path string, sampleRate, channels int, samples []float32) {
	t.Helper()

	data := WAVBytes(sampleRate, channels, 16, ToInt16(samples))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write wav fixture: %v", err)
	}
}

// WAVDataFrames returns the number of frames in the data chunk of a WAV file
// with a canonical 44-byte header.
func WAVDataFrames(t testing.TB, path string, channels int) int {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if len(data) < 44 {
		t.Fatalf("wav %s too short: %d bytes", path, len(data))
	}

	size := binary.LittleEndian.Uint32(data[40:44])
	return int(size) / (2 * channels)
}
