// SPDX-License-Identifier: EPL-2.0

package events

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// LogFileName is the per-run log written into the output directory.
const LogFileName = "syllable_segmenter.log"

// LogrusSink renders events through a logrus logger.
type LogrusSink struct {
	Logger *logrus.Logger
}

// NewLogrusSink wraps logger, or logrus.StandardLogger when logger is nil.
func NewLogrusSink(logger *logrus.Logger) *LogrusSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusSink{Logger: logger}
}

func (s *LogrusSink) Emit(e Event) {
	entry := s.Logger.WithFields(logrus.Fields(e.Context))
	if !e.Time.IsZero() {
		entry = entry.WithTime(e.Time)
	}
	entry.Log(logrusLevel(e.Level), e.Message)
}

func logrusLevel(l Level) logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// FileSink appends events to a log file as plain text.
type FileSink struct {
	LogrusSink
	file *os.File
}

// NewFileSink opens dir/syllable_segmenter.log for appending. Every level
// including debug is written.
func NewFileSink(dir string) (*FileSink, error) {
	path := filepath.Join(dir, LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	return &FileSink{LogrusSink: LogrusSink{Logger: logger}, file: f}, nil
}

// Path returns the log file location.
func (s *FileSink) Path() string { return s.file.Name() }

func (s *FileSink) Close() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}
