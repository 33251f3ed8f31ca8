// SPDX-License-Identifier: EPL-2.0

// Package sylseg splits a spoken recording into syllable or utterance sized
// segments and writes each one as its own audio file.
//
// Two modes are supported. In unsupervised mode the recording is decoded,
// an onset detector finds acoustic onsets, the onsets become a boundary list
// covering the whole signal and every interval is written as
// segment_NNN.wav. In forced mode the recording, its transcript and a
// pronunciation lexicon are handed to an alignment backend which produces a
// single result file.
//
// # Quick Start
//
//	ctl := sylseg.New(sylseg.WithSink(events.NewLogrusSink(nil)))
//
//	out := ctl.Run(ctx, sylseg.Request{
//	    Mode:      sylseg.ModeUnsupervised,
//	    AudioPath: "speech.wav",
//	    OutputDir: "segments",
//	})
//	if out.Err != nil {
//	    return out.Err
//	}
//	fmt.Println(len(out.Segments), "segments")
//
// # Pipeline
//
// The stages live in their own packages and can be used directly:
//
//   - loader decodes WAV, MP3, Ogg Vorbis and AIFF into an audio.Signal
//   - onset finds onset times (onset/vad adds a WebRTC VAD detector)
//   - boundary turns onsets into a gap-free boundary list
//   - segment writes one file per interval
//   - align runs forced alignment through a pluggable backend
//   - storage optionally publishes the results to S3
//
// Every stage reports through an events.Sink; nothing is printed. Failures
// are *failure.Error values carrying a Kind such as FileNotFound or
// ValidationError.
package sylseg
