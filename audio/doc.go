// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample-level building blocks of the segmenter.
//
//   - Source, the streaming interface every decoder returns
//   - Signal, a fully decoded recording held in memory
//   - Resampler and MonoMixer for rate and channel conversion
//   - Registry, mapping file extensions to decoders
//
// # Source
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// Samples are interleaved float32 values in [-1, 1]. ReadSamples returns the
// number of float32 values written, not frames, and io.EOF once the stream is
// exhausted. A final read may return data together with io.EOF.
//
// # Signal
//
// ReadAll drains a Source into a Signal. Onset detection and segment writing
// both work on a Signal, so the recording is decoded exactly once per run:
//
//	sig, err := audio.ReadAll(src, 4096)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(sig.Duration())
//
// Signal.Source turns it back into a stream, which lets the resampler feed
// detectors that need a fixed rate:
//
//	pcm16, rate, err := audio.ResampleToMono16(sig.Source(), 16000, 4096)
//
// # Resampling
//
// The Resampler uses cubic interpolation with a one-pole low-pass filter when
// downsampling. When source and target rates match it passes samples through.
//
// # Registry
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{}, "wave")
//	dec, ok := registry.Get(".WAV")
//
// Keys are case-insensitive and a leading dot is ignored.
package audio
