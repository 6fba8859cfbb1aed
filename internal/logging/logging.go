// Package logging provides the slog backend shared by every subsystem.
// Each subsystem gets a named logger (SRVR, TABL, HAND, STOR) whose level
// is controlled by a single debug-level string, with optional rotating
// log files on disk.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// Config describes how the backend writes and filters log output.
type Config struct {
	// LogFile is the path of the rotating log file. Empty disables file
	// logging and output goes to stderr only.
	LogFile string
	// DebugLevel is either a single level ("debug") or a comma separated
	// list of subsystem=level pairs ("SRVR=info,HAND=trace").
	DebugLevel string
	// MaxLogFiles is how many rotated files to keep.
	MaxLogFiles int
}

// Backend owns the underlying writer and hands out subsystem loggers.
type Backend struct {
	backend  *slog.Backend
	rotator  *rotator.Rotator
	levels   map[string]slog.Level
	fallback slog.Level
	loggers  map[string]slog.Logger
}

// logWriter tees log output to stderr and the rotator, when present.
type logWriter struct {
	r *rotator.Rotator
}

func (w *logWriter) Write(p []byte) (int, error) {
	os.Stderr.Write(p)
	if w.r != nil {
		return w.r.Write(p)
	}
	return len(p), nil
}

// NewBackend creates a logging backend from cfg.
func NewBackend(cfg Config) (*Backend, error) {
	var r *rotator.Rotator
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		maxFiles := cfg.MaxLogFiles
		if maxFiles == 0 {
			maxFiles = 3
		}
		var err error
		r, err = rotator.New(cfg.LogFile, 32*1024, false, maxFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to create log rotator: %w", err)
		}
	}

	b := &Backend{
		backend:  slog.NewBackend(&logWriter{r: r}),
		rotator:  r,
		levels:   make(map[string]slog.Level),
		fallback: slog.LevelInfo,
		loggers:  make(map[string]slog.Logger),
	}
	if err := b.setLevels(cfg.DebugLevel); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) setLevels(spec string) error {
	if spec == "" {
		return nil
	}
	if !strings.Contains(spec, "=") {
		lvl, ok := slog.LevelFromString(spec)
		if !ok {
			return fmt.Errorf("unknown log level %q", spec)
		}
		b.fallback = lvl
		return nil
	}
	for _, pair := range strings.Split(spec, ",") {
		name, level, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("malformed debug level pair %q", pair)
		}
		lvl, ok := slog.LevelFromString(level)
		if !ok {
			return fmt.Errorf("unknown log level %q", level)
		}
		b.levels[name] = lvl
	}
	return nil
}

// Logger returns the named subsystem logger, creating it on first use.
func (b *Backend) Logger(subsystem string) slog.Logger {
	if l, ok := b.loggers[subsystem]; ok {
		return l
	}
	l := b.backend.Logger(subsystem)
	if lvl, ok := b.levels[subsystem]; ok {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(b.fallback)
	}
	b.loggers[subsystem] = l
	return l
}

// Close flushes and closes the rotating log file, if any.
func (b *Backend) Close() error {
	if b.rotator != nil {
		return b.rotator.Close()
	}
	return nil
}

var _ io.Writer = (*logWriter)(nil)
