package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Options selects level, format and sink for the process logger.
type Options struct {
	Level  string
	JSON   bool
	Source bool
	// File redirects output to a log file; "-" discards output.
	File string
}

// SetupLogger installs the process default logger and returns it together
// with a closer for the underlying sink.
func SetupLogger(opts Options) (Logger, io.Closer, error) {
	out, closer, err := openSink(opts.File)
	if err != nil {
		return nil, nil, err
	}
	cfg := &Config{
		Level:      ParseLevel(opts.Level),
		Output:     out,
		JSON:       opts.JSON,
		AddSource:  opts.Source,
		TimeFormat: "15:04:05",
	}
	Init(cfg)
	return GetDefault(), closer, nil
}

func ParseLevel(level string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(level))) {
	case DebugLevel:
		return DebugLevel
	case WarnLevel:
		return WarnLevel
	case ErrorLevel:
		return ErrorLevel
	case DisabledLevel:
		return DisabledLevel
	default:
		return InfoLevel
	}
}

func openSink(path string) (io.Writer, io.Closer, error) {
	switch path {
	case "":
		return os.Stderr, nopCloser{}, nil
	case "-":
		return io.Discard, nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetLevel changes the level of l in place. Loggers derived with With
// before the call keep their level. It reports false for loggers not built
// by this package.
func SetLevel(l Logger, level LogLevel) bool {
	impl, ok := l.(*loggerImpl)
	if !ok {
		return false
	}
	impl.charmLogger.SetLevel(level.ToCharmlogLevel())
	return true
}
