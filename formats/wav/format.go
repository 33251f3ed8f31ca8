// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

const (
	formatPCM        = 0x0001
	formatFloat      = 0x0003
	formatExtensible = 0xFFFE

	maxFmtChunk = 256
)

// Every KSDATAFORMAT_SUBTYPE GUID ends with these bytes; the first two hold
// the plain format tag.
var subtypeSuffix = []byte{
	0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00,
	0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
}

// encodingOf reads the fmt chunk of rs and returns its effective format tag.
// WAVE_FORMAT_EXTENSIBLE is resolved to the subformat tag when the GUID is a
// standard one. rs is rewound before returning.
func encodingOf(rs io.ReadSeeker) (uint16, error) {
	tag, err := scanFmt(riff.New(rs))
	if _, serr := rs.Seek(0, io.SeekStart); serr != nil && err == nil {
		err = fmt.Errorf("rewind wav: %w", serr)
	}
	return tag, err
}

func scanFmt(p *riff.Parser) (uint16, error) {
	if err := p.ParseHeaders(); err != nil || p.Format != riff.WavFormatID {
		return 0, ErrNotWavFile
	}

	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, ErrNotWavFile
		}

		switch ch.ID {
		case riff.FmtID:
			if ch.Size < 16 || ch.Size > maxFmtChunk {
				return 0, ErrNotWavFile
			}
			raw := make([]byte, ch.Size)
			if _, err := io.ReadFull(ch, raw); err != nil {
				return 0, ErrNotWavFile
			}
			return formatTag(raw), nil
		case riff.DataFormatID:
			return 0, ErrNotWavFile
		default:
			ch.Drain()
		}
	}
}

func formatTag(raw []byte) uint16 {
	tag := binary.LittleEndian.Uint16(raw[0:2])
	if tag != formatExtensible || len(raw) < 40 || !bytes.Equal(raw[26:40], subtypeSuffix) {
		return tag
	}
	return binary.LittleEndian.Uint16(raw[24:26])
}
