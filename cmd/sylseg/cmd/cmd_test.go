package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/sylseg/align"
	"github.com/ik5/sylseg/config"
	"github.com/ik5/sylseg/failure"
	"github.com/ik5/sylseg/internal/audiotest"
	"github.com/ik5/sylseg/onset"
	"github.com/ik5/sylseg/onset/vad"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestFormats(t *testing.T) {
	out, _, err := execute(t, "formats")
	require.NoError(t, err)

	lines := strings.Fields(out)
	for _, f := range []string{"aiff", "mp3", "ogg", "wav"} {
		assert.Contains(t, lines, f)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sylseg "))
}

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "speech.wav")
	audiotest.WriteWAVFile(t, in, 16000, 1, audiotest.Bursts(16000, 4,
		audiotest.Burst{Start: 1.5, Frequency: 440, Amplitude: 0.8, Decay: 0.3},
	))
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	out, stderr, err := execute(t, "split", in, "--out", outDir, "--log-level", "debug", "--log-file")
	require.NoError(t, err, stderr)

	paths := strings.Fields(out)
	assert.Equal(t, []string{
		filepath.Join(outDir, "segment_001.wav"),
		filepath.Join(outDir, "segment_002.wav"),
	}, paths)
	assert.Contains(t, stderr, "segment written")
	assert.FileExists(t, filepath.Join(outDir, "syllable_segmenter.log"))
}

func TestSplit_DefaultOutputDir(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "speech.wav")
	audiotest.WriteWAVFile(t, in, 8000, 1, make([]float32, 8000))

	out, _, err := execute(t, "split", in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "segment_001.wav"), strings.TrimSpace(out))
}

func TestSplit_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := execute(t, "split", filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, failure.ErrFileNotFound)

	in := filepath.Join(dir, "speech.wav")
	audiotest.WriteWAVFile(t, in, 8000, 1, make([]float32, 800))

	_, _, err = execute(t, "split", in, "--detector", "neural")
	assert.ErrorIs(t, err, config.ErrInvalidDetector)

	_, _, err = execute(t, "split", in, "--log-level", "loud")
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)

	_, _, err = execute(t, "split")
	assert.Error(t, err)
}

func TestAlign(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "speech.wav")
	audiotest.WriteWAVFile(t, in, 8000, 1, make([]float32, 800))
	transcript := filepath.Join(dir, "speech.txt")
	lexicon := filepath.Join(dir, "speech.dict")
	require.NoError(t, os.WriteFile(transcript, []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(lexicon, []byte("HELLO HH AH L OW\n"), 0o644))

	out, _, err := execute(t, "align", in, transcript, lexicon)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "forced_align.txt"), strings.TrimSpace(out))

	_, _, err = execute(t, "align", in, transcript, filepath.Join(dir, "missing.dict"))
	assert.ErrorIs(t, err, failure.ErrFileNotFound)
}

func TestNewDetector(t *testing.T) {
	cfg := config.Default()
	cfg.HopSize = 256
	cfg.Backtrack = true

	sf, ok := newDetector(cfg).(*onset.SpectralFlux)
	require.True(t, ok)
	assert.Equal(t, 256, sf.HopSize)
	assert.True(t, sf.Backtrack)
	assert.True(t, sf.Refine)

	cfg.Detector = config.DetectorVAD
	cfg.VADMode = 3
	v, ok := newDetector(cfg).(*vad.Detector)
	require.True(t, ok)
	assert.Equal(t, 3, v.Mode)
	assert.Equal(t, vad.DefaultRate, v.Rate)
}

func TestNewBackend(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &align.ReportBackend{}, newBackend(cfg))

	cfg.AlignerCommand = "mfa"
	cfg.AlignerArgs = []string{"align", "{audio}"}
	cb, ok := newBackend(cfg).(*align.CommandBackend)
	require.True(t, ok)
	assert.Equal(t, "mfa", cb.Path)
	assert.Equal(t, []string{"align", "{audio}"}, cb.Args)
	assert.Equal(t, "forced_align.txt", cb.Result)
}
