// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files through
// github.com/jfreymuth/oggvorbis. Channel count and rate are taken from the
// identification header; samples are already float32 in [-1, 1].
package vorbis
