// SPDX-License-Identifier: EPL-2.0

// Package failure defines the error taxonomy shared by every stage of the
// segmentation engine.
//
// Each failure carries a Kind, the operation that produced it, the path it
// relates to (when there is one) and the underlying cause:
//
//	err := failure.New(failure.KindFileNotFound, "load", path, fs.ErrNotExist)
//	if errors.Is(err, failure.ErrFileNotFound) {
//	    // ...
//	}
//
// Use As to recover the structured form from any wrapped error.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	KindFileNotFound          Kind = "FileNotFound"
	KindUnreadableAudio       Kind = "UnreadableAudio"
	KindInvalidDuration       Kind = "InvalidDuration"
	KindWriteError            Kind = "WriteError"
	KindAlignmentBackendError Kind = "AlignmentBackendError"
	KindValidationError       Kind = "ValidationError"
	KindCancelled             Kind = "Cancelled"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrFileNotFound          = errors.New("file not found")
	ErrUnreadableAudio       = errors.New("unreadable audio")
	ErrInvalidDuration       = errors.New("invalid duration")
	ErrWriteError            = errors.New("write error")
	ErrAlignmentBackendError = errors.New("alignment backend error")
	ErrValidationError       = errors.New("validation error")
	ErrCancelled             = errors.New("cancelled")
)

var sentinels = map[Kind]error{
	KindFileNotFound:          ErrFileNotFound,
	KindUnreadableAudio:       ErrUnreadableAudio,
	KindInvalidDuration:       ErrInvalidDuration,
	KindWriteError:            ErrWriteError,
	KindAlignmentBackendError: ErrAlignmentBackendError,
	KindValidationError:       ErrValidationError,
	KindCancelled:             ErrCancelled,
}

// Error is a structured engine failure.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// New builds an *Error. err may be nil.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Newf builds an *Error whose cause is a formatted message.
func Newf(kind Kind, op, path, format string, args ...any) *Error {
	return New(kind, op, path, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind, or another
// *Error of the same kind.
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}

	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}

	return false
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// Wrap converts err into an *Error of the given kind unless it already
// is one, in which case it is returned unchanged.
func Wrap(kind Kind, op, path string, err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return New(kind, op, path, err)
}
