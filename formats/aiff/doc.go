// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes uncompressed AIFF files through
// github.com/go-audio/aiff.
//
// go-audio requires an io.ReadSeeker; other readers are buffered in memory
// first. Samples are normalized by bit depth to float32 in [-1, 1).
package aiff
