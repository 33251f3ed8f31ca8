// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files through github.com/hajimehoshi/go-mp3.
//
// The decoder always yields two interleaved channels at the file's native
// rate; mono files are duplicated onto both channels by go-mp3. The loader
// keeps that layout and lets onset detection downmix:
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	sig, err := audio.ReadAll(src, 4096)
package mp3
