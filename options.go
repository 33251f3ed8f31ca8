// SPDX-License-Identifier: EPL-2.0

package sylseg

import (
	"context"

	"github.com/ik5/sylseg/align"
	"github.com/ik5/sylseg/audio"
	"github.com/ik5/sylseg/events"
	"github.com/ik5/sylseg/onset"
	"github.com/ik5/sylseg/segment"
	"github.com/ik5/sylseg/storage"
)

// Loader decodes an audio file.
type Loader interface {
	Load(ctx context.Context, path string) (*audio.Signal, error)
}

// SegmentWriter writes the intervals of a boundary list.
type SegmentWriter interface {
	Write(ctx context.Context, sig *audio.Signal, b []float64, dir string) ([]segment.Segment, error)
}

// Aligner runs forced alignment.
type Aligner interface {
	Align(ctx context.Context, audio, transcript, lexicon, outDir string) (align.Result, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithSink sets where run events go. Every event carries the run_id field.
func WithSink(sink events.Sink) Option {
	return func(c *Controller) { c.sink = sink }
}

// WithLoader replaces the audio loader.
func WithLoader(l Loader) Option {
	return func(c *Controller) { c.loader = l }
}

// WithDetector replaces the onset detector used in unsupervised mode.
func WithDetector(d onset.Detector) Option {
	return func(c *Controller) { c.detector = d }
}

// WithEncoder sets the encoder of the default segment writer.
func WithEncoder(e segment.Encoder) Option {
	return func(c *Controller) { c.encoder = e }
}

// WithSegmentWriter replaces the segment writer. The writer does not
// receive the run's event sink.
func WithSegmentWriter(w SegmentWriter) Option {
	return func(c *Controller) { c.writer = w }
}

// WithProgress registers a callback invoked after every written segment.
func WithProgress(fn func(segment.Segment)) Option {
	return func(c *Controller) { c.progress = fn }
}

// WithAlignBackend sets the backend of the default aligner.
func WithAlignBackend(b align.Backend) Option {
	return func(c *Controller) { c.backend = b }
}

// WithAligner replaces the aligner.
func WithAligner(a Aligner) Option {
	return func(c *Controller) { c.aligner = a }
}

// WithPublisher uploads the artifacts of every successful run under
// prefix/<run id>/.
func WithPublisher(p storage.Publisher, prefix string) Option {
	return func(c *Controller) {
		c.publisher = p
		c.publishPrefix = prefix
	}
}

// WithLogFile also writes the events of each run to
// <output dir>/syllable_segmenter.log.
func WithLogFile(enabled bool) Option {
	return func(c *Controller) { c.logFile = enabled }
}

// WithRunID overrides how run identifiers are generated.
func WithRunID(fn func() string) Option {
	return func(c *Controller) { c.newRunID = fn }
}
