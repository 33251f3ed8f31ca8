// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize    = errors.New("dst size must be multiple of channels")
	ErrInvalidChannels   = errors.New("source reports no channels")
	ErrInvalidSampleRate = errors.New("source reports no sample rate")
	ErrNoProgress        = errors.New("source stopped producing samples")
)
