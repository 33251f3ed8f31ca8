// SPDX-License-Identifier: EPL-2.0

package onset

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every detector parameter error.
var ErrInvalidConfig = errors.New("invalid detector configuration")

var (
	ErrInvalidFrameSize = fmt.Errorf("%w: frame size must be a positive power of two", ErrInvalidConfig)
	ErrInvalidHopSize   = fmt.Errorf("%w: hop size must be positive and not exceed the frame size", ErrInvalidConfig)
)
