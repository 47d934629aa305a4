package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const fileBufferSize = 32 * 1024

type Options struct {
	// Level is "debug" or anything else for info
	Level string
	// File, when set, receives every entry in addition to the console
	File    string
	Console io.Writer
}

// NewLogger builds the JSON logger. The returned close func flushes the log
// file, if any, and must be called before exit.
func NewLogger(opts Options) (*logrus.Logger, func(), error) {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(parseLevel(opts.Level))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	if opts.File == "" {
		logger.SetOutput(console)
		return logger, func() {}, nil
	}

	logFile := filepath.Clean(opts.File)
	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	asyncWriter, err := NewAsyncFileWriter(logFile, fileBufferSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}

	logger.SetOutput(asyncWriter)
	logger.AddHook(NewConsoleHook(console))

	return logger, asyncWriter.Close, nil
}

func parseLevel(level string) logrus.Level {
	if strings.EqualFold(strings.TrimSpace(level), "debug") {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}
