// SPDX-License-Identifier: EPL-2.0

package sylseg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ik5/sylseg/align"
	"github.com/ik5/sylseg/boundary"
	"github.com/ik5/sylseg/events"
	"github.com/ik5/sylseg/failure"
	"github.com/ik5/sylseg/loader"
	"github.com/ik5/sylseg/onset"
	"github.com/ik5/sylseg/segment"
	"github.com/ik5/sylseg/storage"
)

const (
	opValidate = "validate request"
	opDetect   = "detect onsets"
	opPublish  = "publish results"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotRegular     = errors.New("not a regular file")
	ErrNotDirectory   = errors.New("not a directory")
)

// Controller runs segmentation requests. Per-run state lives in the
// returned Outcome, so one Controller can serve many runs.
type Controller struct {
	sink     events.Sink
	loader   Loader
	detector onset.Detector
	encoder  segment.Encoder
	writer   SegmentWriter
	progress func(segment.Segment)
	backend  align.Backend
	aligner  Aligner

	publisher     storage.Publisher
	publishPrefix string

	logFile  bool
	newRunID func() string
	validate *validator.Validate
}

// New returns a Controller. Without options it loads files with the
// default loader, detects onsets with spectral flux, writes 16-bit WAV
// segments, aligns with align.ReportBackend and discards events.
func New(opts ...Option) *Controller {
	c := &Controller{
		sink:     events.Discard,
		loader:   loader.New(),
		detector: onset.NewSpectralFlux(),
		newRunID: uuid.NewString,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sink == nil {
		c.sink = events.Discard
	}
	return c
}

// run is the state of one Run call.
type run struct {
	*Controller
	sink events.Sink
	out  Outcome
}

// Run executes req. The request is fully validated before any audio is
// read; a failed run emits exactly one error event.
func (c *Controller) Run(ctx context.Context, req Request) Outcome {
	id := c.newRunID()
	r := &run{
		Controller: c,
		sink:       events.WithFields(c.sink, map[string]any{"run_id": id}),
		out: Outcome{
			RunID:     id,
			Mode:      req.Mode,
			State:     StateIdle,
			OutputDir: req.OutputDir,
		},
	}

	r.out.State = StateValidating
	if err := c.validateRequest(req); err != nil {
		return r.fail("validation failed", err)
	}

	if c.logFile {
		fileSink, err := events.NewFileSink(req.OutputDir)
		if err != nil {
			r.emit(events.LevelWarn, "log file unavailable", map[string]any{"error": err.Error()})
		} else {
			defer fileSink.Close()
			r.sink = events.Multi(r.sink, events.WithFields(fileSink, map[string]any{"run_id": id}))
			r.emit(events.LevelInfo, "logging to file", map[string]any{"path": fileSink.Path()})
		}
	}

	r.emit(events.LevelInfo, "mode selected", map[string]any{"mode": string(req.Mode)})

	if err := ctx.Err(); err != nil {
		return r.fail("segmentation cancelled", failure.New(failure.KindCancelled, opValidate, req.AudioPath, err))
	}

	r.out.State = StateRunning

	var err error
	switch req.Mode {
	case ModeForced:
		err = r.runForced(ctx, req)
	default:
		err = r.runUnsupervised(ctx, req)
	}
	if err != nil {
		return r.fail("segmentation failed", err)
	}

	if c.publisher != nil {
		if err := r.publish(ctx); err != nil {
			return r.fail("publishing failed", err)
		}
	}

	r.out.State = StateCompleted
	r.emit(events.LevelInfo, "segmentation completed", map[string]any{
		"output":    req.OutputDir,
		"artifacts": len(r.out.Artifacts()),
	})

	return r.out
}

func (r *run) emit(level events.Level, msg string, ctx map[string]any) {
	r.sink.Emit(events.New(level, msg, ctx))
}

func (r *run) stage(name string) {
	r.emit(events.LevelDebug, "stage started", map[string]any{"stage": name})
}

func (r *run) fail(msg string, err error) Outcome {
	fe, ok := failure.As(err)
	if !ok {
		fe = failure.New(failure.KindValidationError, "", "", err)
	}

	ctx := map[string]any{
		"kind":  string(fe.Kind),
		"error": fe.Error(),
	}
	if fe.Path != "" {
		ctx["path"] = fe.Path
	}
	r.emit(events.LevelError, msg, ctx)

	r.out.State = StateFailed
	r.out.Err = fe
	return r.out
}

func (r *run) runUnsupervised(ctx context.Context, req Request) error {
	r.stage("load")
	sig, err := r.loader.Load(ctx, req.AudioPath)
	if err != nil {
		return failure.Wrap(failure.KindUnreadableAudio, "load audio", req.AudioPath, err)
	}
	r.emit(events.LevelInfo, "audio loaded", map[string]any{
		"path":        req.AudioPath,
		"sample_rate": sig.SampleRate,
		"channels":    sig.Channels,
		"duration":    sig.Duration(),
	})

	r.stage("detect")
	onsets, err := r.detector.Detect(ctx, sig)
	if err != nil {
		if ctx.Err() != nil {
			return failure.New(failure.KindCancelled, opDetect, req.AudioPath, err)
		}
		if errors.Is(err, onset.ErrInvalidConfig) {
			return failure.Wrap(failure.KindValidationError, opDetect, "", err)
		}
		return failure.Wrap(failure.KindUnreadableAudio, opDetect, req.AudioPath, err)
	}

	r.stage("boundaries")
	b, err := boundary.Build(onsets, sig.Duration())
	if err != nil {
		return err
	}
	r.out.Boundaries = b
	r.emit(events.LevelInfo, "onsets detected", map[string]any{
		"onsets":   len(b) - 2,
		"segments": len(b) - 1,
	})

	if err := ctx.Err(); err != nil {
		return failure.New(failure.KindCancelled, opDetect, req.AudioPath, err)
	}

	r.stage("write")
	w := r.writer
	if w == nil {
		w = &segment.Writer{Encoder: r.encoder, Progress: r.progress, Sink: r.sink}
	}
	segs, err := w.Write(ctx, sig, b, req.OutputDir)
	r.out.Segments = segs
	if err != nil {
		return failure.Wrap(failure.KindWriteError, "write segments", req.OutputDir, err)
	}

	return nil
}

func (r *run) runForced(ctx context.Context, req Request) error {
	r.stage("align")
	r.emit(events.LevelInfo, "running forced alignment", map[string]any{
		"audio":      req.AudioPath,
		"transcript": req.TranscriptPath,
		"lexicon":    req.LexiconPath,
	})

	a := r.aligner
	if a == nil {
		a = align.New(r.backend, r.sink)
	}

	res, err := a.Align(ctx, req.AudioPath, req.TranscriptPath, req.LexiconPath, req.OutputDir)
	if err != nil {
		return failure.Wrap(failure.KindAlignmentBackendError, "forced alignment", req.AudioPath, err)
	}

	r.out.Alignment = &res
	r.emit(events.LevelInfo, "alignment output written", map[string]any{"path": res.OutputPath})
	return nil
}

func (r *run) publish(ctx context.Context) error {
	r.stage("publish")

	urls, err := storage.PublishAll(ctx, r.publisher, r.publishPrefix, r.out.RunID, r.out.Artifacts())
	r.out.Published = urls
	if err != nil {
		if ctx.Err() != nil {
			return failure.New(failure.KindCancelled, opPublish, r.out.OutputDir, err)
		}
		return failure.New(failure.KindWriteError, opPublish, r.out.OutputDir, err)
	}

	r.emit(events.LevelInfo, "results published", map[string]any{"count": len(urls)})
	return nil
}

// validateRequest checks the shape of req and then the filesystem.
func (c *Controller) validateRequest(req Request) error {
	if err := c.validate.Struct(req); err != nil {
		return failure.New(failure.KindValidationError, opValidate, "", describe(err))
	}

	if err := checkPath(req.AudioPath, false); err != nil {
		return err
	}
	if err := checkPath(req.OutputDir, true); err != nil {
		return err
	}
	if req.Mode == ModeForced {
		if err := checkPath(req.TranscriptPath, false); err != nil {
			return err
		}
		if err := checkPath(req.LexiconPath, false); err != nil {
			return err
		}
	}

	return nil
}

func checkPath(path string, dir bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return failure.New(failure.KindFileNotFound, opValidate, path, err)
		}
		return failure.New(failure.KindValidationError, opValidate, path, err)
	}

	switch {
	case dir && !info.IsDir():
		return failure.New(failure.KindValidationError, opValidate, path, ErrNotDirectory)
	case !dir && !info.Mode().IsRegular():
		return failure.New(failure.KindValidationError, opValidate, path, ErrNotRegular)
	}
	return nil
}

// describe turns validator errors into one readable message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}
