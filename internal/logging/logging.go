// Package logging builds the process logger: a console encoder on stderr
// plus an optional size-rotated file sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

// Rotation defaults used when the config leaves them unset.
const (
	defaultMaxSizeMB = 10
	defaultMaxFiles  = 5
)

// New builds a logger from cfg. Console output goes to stderr; when
// cfg.File is set, JSON lines are also written to a rotating file. The
// returned closer flushes and closes the file sink.
func New(cfg types.LogConfig) (*zap.Logger, io.Closer, error) {
	return NewWithConsole(cfg, os.Stderr)
}

// NewWithConsole is New with console output sent to console instead of
// stderr.
func NewWithConsole(cfg types.LogConfig, console io.Writer) (*zap.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	consoleEnc := zap.NewDevelopmentEncoderConfig()
	consoleEnc.EncodeLevel = zapcore.CapitalLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), zapcore.AddSync(console), level),
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		w, err := NewRotatingWriter(cfg)
		if err != nil {
			return nil, nil, err
		}
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(w), level))
		closer = w
	}

	return zap.New(zapcore.NewTee(cores...)), closer, nil
}

// NewRotatingWriter opens the log file sink, creating its directory.
func NewRotatingWriter(cfg types.LogConfig) (*lumberjack.Logger, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("log file path must not be empty")
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = defaultMaxSizeMB
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxFiles
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
	}, nil
}

// ParseLevel maps a config level name to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("%w: unknown log level %q", types.ErrInvalidConfig, s)
	}
	return l, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
