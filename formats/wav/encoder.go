// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/sylseg/utils"
)

// Encoder writes interleaved float32 samples as integer PCM WAV.
// The zero value writes 16-bit files.
type Encoder struct {
	BitDepth int
}

// Ext is the file extension produced by the encoder.
func (Encoder) Ext() string { return "wav" }

func (e Encoder) bitDepth() int {
	if e.BitDepth == 0 {
		return 16
	}
	return e.BitDepth
}

// Encode writes samples to w. Seekable writers go through go-audio/wav,
// which patches the header on completion. Other writers get a streamed
// canonical header and only support 16-bit output.
func (e Encoder) Encode(w io.Writer, sampleRate, channels int, samples []float32) error {
	depth := e.bitDepth()
	switch depth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: bit depth %d", ErrInvalidFormat, depth)
	}
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("%w: %d Hz, %d channels", ErrInvalidFormat, sampleRate, channels)
	}

	ws, ok := w.(io.WriteSeeker)
	if !ok {
		if depth != 16 {
			return fmt.Errorf("%w: %d-bit output needs a seekable writer", ErrInvalidFormat, depth)
		}
		pcm := make([]int16, len(samples)-len(samples)%channels)
		for i := range pcm {
			pcm[i] = utils.Float32ToInt16(samples[i])
		}
		return WriteWAV16(w, sampleRate, channels, pcm)
	}

	frames := len(samples) / channels
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: depth,
	}
	for i := range buf.Data {
		v := utils.Float32ToPCM(samples[i], depth)
		if depth == 8 {
			v += 128
		}
		buf.Data[i] = v
	}

	enc := gowav.NewEncoder(ws, sampleRate, depth, channels, formatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}

	return nil
}

// WriteFile creates path and encodes samples into it.
func (e Encoder) WriteFile(path string, sampleRate, channels int, samples []float32) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return e.Encode(f, sampleRate, channels, samples)
}
