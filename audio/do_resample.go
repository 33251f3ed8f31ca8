// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/sylseg/utils"
)

// ResampleToMono16 resamples src to targetRate, mixes it down to mono and
// collects the result as 16-bit PCM.
//
// The pipeline is Resampler -> MonoMixer -> Float32ToInt16. bufferSize is
// the read chunk in samples; 4096 is a sensible default.
//
// Example:
//
//	pcm16, rate, err := audio.ResampleToMono16(sig.Source(), 16000, 4096)
//	if err != nil {
//	    return err
//	}
func ResampleToMono16(src Source, targetRate int, bufferSize int) ([]int16, int, error) {
	if targetRate <= 0 {
		return nil, targetRate, ErrInvalidSampleRate
	}
	if bufferSize <= 0 {
		bufferSize = 4096
	}

	mono := NewMonoMixer(NewResampler(src, targetRate))

	pcm16 := make([]int16, 0, targetRate*2)
	buf := make([]float32, bufferSize)

	for {
		n, err := mono.ReadSamples(buf)
		for i := range n {
			pcm16 = append(pcm16, utils.Float32ToInt16(buf[i]))
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, targetRate, fmt.Errorf("resample to mono16: %w", err)
		}
	}

	return pcm16, targetRate, nil
}
