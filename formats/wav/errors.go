// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile          = errors.New("not a WAV file")
	ErrUnsupportedEncoding = errors.New("unsupported WAV encoding")
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")
	ErrMissingData         = errors.New("WAV data chunk not found")
	ErrCorruptData         = errors.New("corrupt WAV data")
	ErrInvalidFormat       = errors.New("invalid output format")
)
