// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

var (
	ErrNotMP3File  = errors.New("not an MP3 stream")
	ErrCorruptData = errors.New("corrupt MP3 data")
)
