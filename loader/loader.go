// SPDX-License-Identifier: EPL-2.0

// Package loader reads an audio file into an in-memory audio.Signal at its
// native sample rate and channel count.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ik5/sylseg/audio"
	"github.com/ik5/sylseg/failure"
	"github.com/ik5/sylseg/formats/aiff"
	"github.com/ik5/sylseg/formats/mp3"
	"github.com/ik5/sylseg/formats/vorbis"
	"github.com/ik5/sylseg/formats/wav"
)

const opLoad = "load audio"

var (
	ErrUnknownFormat = errors.New("unknown audio format")
	ErrNotRegular    = errors.New("not a regular file")
	ErrEmptyStream   = errors.New("stream reports no channels or sample rate")
)

// DefaultRegistry returns a registry with every built-in decoder.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{}, "wave")
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{}, "oga")
	reg.Register("aiff", aiff.Decoder{}, "aif")
	return reg
}

// Loader decodes files through a Registry.
type Loader struct {
	Registry   *audio.Registry
	BufferSize int
}

// New returns a Loader backed by DefaultRegistry.
func New() *Loader {
	return &Loader{Registry: DefaultRegistry(), BufferSize: 8192}
}

// Load decodes path with the default loader.
func Load(ctx context.Context, path string) (*audio.Signal, error) {
	return New().Load(ctx, path)
}

// Load decodes the whole file at path. Missing files fail with
// failure.KindFileNotFound; anything that cannot be decoded fails with
// failure.KindUnreadableAudio.
func (l *Loader) Load(ctx context.Context, path string) (*audio.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, failure.New(failure.KindCancelled, opLoad, path, err)
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, failure.New(failure.KindFileNotFound, opLoad, path, err)
	}
	if err != nil {
		return nil, failure.New(failure.KindUnreadableAudio, opLoad, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, failure.New(failure.KindUnreadableAudio, opLoad, path, ErrNotRegular)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, failure.New(failure.KindUnreadableAudio, opLoad, path, err)
	}
	defer f.Close()

	dec, err := l.decoderFor(path, f)
	if err != nil {
		return nil, failure.New(failure.KindUnreadableAudio, opLoad, path, err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		return nil, failure.New(failure.KindUnreadableAudio, opLoad, path, err)
	}
	defer src.Close()

	if src.Channels() <= 0 || src.SampleRate() <= 0 {
		return nil, failure.New(failure.KindUnreadableAudio, opLoad, path, ErrEmptyStream)
	}

	sig, err := audio.ReadAll(src, l.BufferSize)
	if err != nil {
		return nil, failure.New(failure.KindUnreadableAudio, opLoad, path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, failure.New(failure.KindCancelled, opLoad, path, err)
	}

	return sig, nil
}

// decoderFor picks a decoder by extension, falling back to the file's
// magic bytes. f is rewound before returning.
func (l *Loader) decoderFor(path string, f io.ReadSeeker) (audio.Decoder, error) {
	reg := l.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}

	if dec, ok := reg.Get(filepath.Ext(path)); ok {
		return dec, nil
	}

	header := make([]byte, 12)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind: %w", err)
	}

	format := Sniff(header[:n])
	if format == "" {
		return nil, ErrUnknownFormat
	}

	dec, ok := reg.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return dec, nil
}

// Sniff identifies a container from its leading bytes and returns the
// registry key for it, or "" when unknown.
func Sniff(header []byte) string {
	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return "wav"
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC"))):
		return "aiff"
	case bytes.HasPrefix(header, []byte("OggS")):
		return "ogg"
	case bytes.HasPrefix(header, []byte("ID3")):
		return "mp3"
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// MPEG audio frame sync.
		return "mp3"
	}
	return ""
}
