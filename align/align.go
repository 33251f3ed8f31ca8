// SPDX-License-Identifier: EPL-2.0

// Package align runs forced alignment of a recording against its
// transcript and pronunciation lexicon.
//
// The Adapter owns input checks and error mapping; the actual aligner is a
// Backend. ReportBackend is built in and writes a plain-text report;
// CommandBackend runs an external aligner program.
package align

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ik5/sylseg/events"
	"github.com/ik5/sylseg/failure"
)

const opAlign = "forced alignment"

var (
	ErrNotRegular     = errors.New("not a regular file")
	ErrNotDirectory   = errors.New("not a directory")
	ErrMissingResult  = errors.New("backend did not produce a result file")
	ErrOutsideOutput  = errors.New("result is outside the output directory")
	ErrNoCommand      = errors.New("aligner command is not set")
	ErrMalformedEntry = errors.New("malformed lexicon entry")
)

// Job is one alignment request handed to a Backend. All paths have been
// checked by the Adapter.
type Job struct {
	Audio      string
	Transcript string
	Lexicon    string
	OutputDir  string
}

// Backend performs the alignment and returns the path of the result file
// it wrote inside Job.OutputDir.
type Backend interface {
	Align(ctx context.Context, job Job) (string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, job Job) (string, error)

func (f BackendFunc) Align(ctx context.Context, job Job) (string, error) { return f(ctx, job) }

// Result names the alignment artifact.
type Result struct {
	SourceAudioPath string
	OutputPath      string
}

// Adapter validates inputs, runs a Backend and maps its failures.
type Adapter struct {
	Backend Backend
	Sink    events.Sink
}

// New returns an Adapter for backend; a nil backend means ReportBackend.
func New(backend Backend, sink events.Sink) *Adapter {
	return &Adapter{Backend: backend, Sink: sink}
}

// Align checks that audio, transcript and lexicon are existing regular
// files and that outDir is a directory, then runs the backend.
//
// Missing inputs fail with failure.KindFileNotFound, inputs of the wrong
// type with failure.KindValidationError, and any backend problem with
// failure.KindAlignmentBackendError.
func (a *Adapter) Align(ctx context.Context, audio, transcript, lexicon, outDir string) (Result, error) {
	for _, p := range []string{audio, transcript, lexicon} {
		if err := checkFile(p); err != nil {
			return Result{}, err
		}
	}
	if err := checkDir(outDir); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, failure.New(failure.KindCancelled, opAlign, audio, err)
	}

	backend := a.Backend
	if backend == nil {
		backend = &ReportBackend{}
	}
	sink := a.Sink
	if sink == nil {
		sink = events.Discard
	}

	sink.Emit(events.New(events.LevelDebug, "alignment started", map[string]any{
		"audio":      audio,
		"transcript": transcript,
		"lexicon":    lexicon,
	}))

	out, err := backend.Align(ctx, Job{Audio: audio, Transcript: transcript, Lexicon: lexicon, OutputDir: outDir})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, failure.New(failure.KindCancelled, opAlign, audio, errors.Join(ctx.Err(), err))
		}
		return Result{}, failure.New(failure.KindAlignmentBackendError, opAlign, audio, err)
	}

	if err := checkResult(out, outDir); err != nil {
		return Result{}, failure.New(failure.KindAlignmentBackendError, opAlign, out, err)
	}

	sink.Emit(events.New(events.LevelInfo, "alignment result written", map[string]any{
		"path": out,
	}))

	return Result{SourceAudioPath: audio, OutputPath: out}, nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return failure.New(failure.KindFileNotFound, opAlign, path, err)
		}
		return failure.New(failure.KindValidationError, opAlign, path, err)
	}
	if !info.Mode().IsRegular() {
		return failure.New(failure.KindValidationError, opAlign, path, ErrNotRegular)
	}
	return nil
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return failure.New(failure.KindFileNotFound, opAlign, path, err)
		}
		return failure.New(failure.KindValidationError, opAlign, path, err)
	}
	if !info.IsDir() {
		return failure.New(failure.KindValidationError, opAlign, path, ErrNotDirectory)
	}
	return nil
}

func checkResult(path, outDir string) error {
	if path == "" {
		return ErrMissingResult
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve result: %w", err)
	}
	rel, err := filepath.Rel(absOut, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideOutput, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMissingResult, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return nil
}
