package events

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	r.Emit(New(LevelInfo, "one", nil))
	r.Emit(New(LevelError, "two", nil))
	r.Emit(New(LevelInfo, "three", nil))

	got := r.Events()
	require.Len(t, got, 3)
	assert.Equal(t, "two", got[1].Message)
	assert.Equal(t, 2, r.Count(LevelInfo))
	assert.Equal(t, 1, r.Count(LevelError))
	assert.Zero(t, r.Count(LevelWarn))

	got[0].Message = "changed"
	assert.Equal(t, "one", r.Events()[0].Message)

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	var r Recorder
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 100 {
				r.Emit(New(LevelDebug, "x", nil))
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 800, r.Count(LevelDebug))
}

func TestMulti(t *testing.T) {
	t.Parallel()

	var a, b Recorder
	calls := 0
	sink := Multi(&a, nil, &b, SinkFunc(func(Event) { calls++ }))

	sink.Emit(New(LevelWarn, "hello", nil))

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
	assert.Equal(t, 1, calls)
}

func TestWithFields(t *testing.T) {
	t.Parallel()

	var r Recorder
	sink := WithFields(&r, map[string]any{"run_id": "abc", "mode": "forced"})

	orig := map[string]any{"mode": "unsupervised", "index": 2}
	sink.Emit(New(LevelInfo, "segment", orig))

	got := r.Events()
	require.Len(t, got, 1)
	assert.Equal(t, "abc", got[0].Context["run_id"])
	assert.Equal(t, "unsupervised", got[0].Context["mode"])
	assert.Equal(t, 2, got[0].Context["index"])
	assert.NotContains(t, orig, "run_id")
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { Discard.Emit(New(LevelError, "x", nil)) })
}

func TestLogrusSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	sink := NewLogrusSink(logger)
	sink.Emit(New(LevelDebug, "hidden", nil))
	sink.Emit(New(LevelWarn, "segment written", map[string]any{"index": 1}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "segment written", rec["msg"])
	assert.EqualValues(t, 1, rec["index"])
}

func TestNewLogrusSink_Default(t *testing.T) {
	t.Parallel()

	assert.Same(t, logrus.StandardLogger(), NewLogrusSink(nil).Logger)
}

func TestFileSink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)

	sink.Emit(New(LevelDebug, "stage started", map[string]any{"stage": "detect"}))
	sink.Emit(New(LevelError, "failed", nil))
	require.NoError(t, sink.Close())

	assert.Equal(t, filepath.Join(dir, LogFileName), sink.Path())

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "stage started")
	assert.Contains(t, string(data), "stage=detect")
	assert.Contains(t, string(data), "level=error")
}

func TestNewFileSink_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := NewFileSink(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
