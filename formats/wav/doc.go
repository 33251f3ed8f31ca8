// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes RIFF/WAVE files.
//
// Decoding goes through github.com/go-audio/wav and accepts integer PCM at
// 8, 16, 24 or 32 bits per sample and IEEE float at 32 or 64 bits, with any
// channel count. WAVE_FORMAT_EXTENSIBLE headers are resolved to their
// subformat:
//
//	f, _ := os.Open("speech.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if errors.Is(err, wav.ErrNotWavFile) {
//	    // not RIFF/WAVE
//	}
//
// Encoder writes segment files. With an io.WriteSeeker the RIFF and data
// sizes are patched after the samples are written; other writers get a
// streamed 16-bit file:
//
//	err := wav.Encoder{}.WriteFile("segment_001.wav", 16000, 1, samples)
//
// WriteWAV16 is the streaming counterpart for plain io.Writers; it writes a
// canonical 44-byte header followed by 16-bit samples.
package wav
