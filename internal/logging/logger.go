package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where a logger writes.
type Options struct {
	// Path is the JSON log file. Parent directories are created.
	Path string
	// Level is a zap level name; empty means info.
	Level string
	// Console also writes human-readable lines to stderr.
	Console bool
}

// New creates a zap logger that writes JSON to opts.Path and, when
// opts.Console is set, also to stderr. The PID is included as an initial
// field along with any extra fields.
func New(opts Options, fields ...zap.Field) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level),
	}
	if opts.Console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stderr), level))
	}

	fields = append([]zap.Field{zap.Int("pid", os.Getpid())}, fields...)
	return zap.New(zapcore.NewTee(cores...), zap.Fields(fields...)), nil
}
