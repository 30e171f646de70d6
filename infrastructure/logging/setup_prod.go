//go:build prod

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs a logger writing to a rotating grocer.log under cfg.Dir,
// optionally mirrored to stdout. Close flushes and closes the file.
func Setup(cfg *Config) (*slog.Logger, func() error, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	dir := cfg.Dir
	if dir == "" {
		dir = DefaultLogDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "grocer.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}

	var w io.Writer = file
	if cfg.Console {
		w = io.MultiWriter(os.Stdout, file)
	}

	logger := newLogger(w, cfg)
	setGlobal(logger)
	return logger, file.Close, nil
}
