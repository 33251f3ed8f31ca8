// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/sylseg/audio"
	"github.com/ik5/sylseg/utils"
)

// pcmReader is the part of gowav.Decoder the source needs.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        pcmReader
	sampleRate int
	channels   int
	bitDepth   int
	intBuf     *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, audio.ErrInvalidDstSize
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{Data: make([]int, want)}
	}
	s.intBuf.Data = s.intBuf.Data[:want]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	if n <= 0 {
		return 0, io.EOF
	}

	for i := range n {
		v := s.intBuf.Data[i]
		if s.bitDepth == 8 {
			// 8-bit WAV is unsigned.
			v -= 128
		}
		dst[i] = utils.PCMToFloat32(v, s.bitDepth)
	}

	return n, nil
}

// floatSource streams IEEE float samples straight from the data chunk;
// go-audio/wav only decodes integer PCM.
type floatSource struct {
	r          io.Reader
	sampleRate int
	channels   int
	width      int
	raw        []byte
}

func (s *floatSource) SampleRate() int { return s.sampleRate }
func (s *floatSource) Channels() int   { return s.channels }
func (s *floatSource) Close() error    { return nil }

func (s *floatSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, audio.ErrInvalidDstSize
	}

	need := want * s.width
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	raw := s.raw[:need]

	m, err := io.ReadFull(s.r, raw)
	switch {
	case errors.Is(err, io.EOF):
		return 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		m -= m % (s.width * s.channels)
		if m == 0 {
			return 0, io.EOF
		}
	case err != nil:
		return 0, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	n := m / s.width
	for i := range n {
		b := raw[i*s.width:]
		if s.width == 8 {
			dst[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
			continue
		}
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	}

	return n, nil
}

// Decoder reads WAV files holding integer PCM (8, 16, 24 or 32 bits) or
// IEEE float (32 or 64 bits) samples, including WAVE_FORMAT_EXTENSIBLE files
// with either subformat.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	tag, err := encodingOf(rs)
	if err != nil {
		return nil, err
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	switch tag {
	case formatPCM:
		switch dec.BitDepth {
		case 8, 16, 24, 32:
		default:
			return nil, fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedBitDepth, dec.BitDepth)
		}
	case formatFloat:
		if dec.BitDepth != 32 && dec.BitDepth != 64 {
			return nil, fmt.Errorf("%w: %d-bit float", ErrUnsupportedBitDepth, dec.BitDepth)
		}
	default:
		return nil, fmt.Errorf("%w: format tag %#04x", ErrUnsupportedEncoding, tag)
	}

	if err := dec.FwdToPCM(); err != nil || dec.PCMChunk == nil {
		return nil, ErrMissingData
	}

	if tag == formatFloat {
		return &floatSource{
			r:          io.LimitReader(dec.PCMChunk.R, int64(dec.PCMSize)),
			sampleRate: int(dec.SampleRate),
			channels:   int(dec.NumChans),
			width:      int(dec.BitDepth) / 8,
		}, nil
	}

	return &source{
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   int(dec.BitDepth),
	}, nil
}
