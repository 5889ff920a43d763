package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	logFilePrefix      = "cie10-"
	logFileSuffix      = ".log"
	defaultMaxFileSize = 100 * 1024 * 1024
)

// RotatingLogger writes to one log file per ISO week, starting a numbered
// file when the size limit is reached, and removes files past retention.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	file        *os.File
	week        string
	seq         int
	currentSize int64

	stop      chan struct{}
	done      chan struct{}
	started   atomic.Bool
	closeOnce sync.Once
}

// NewRotatingLogger creates a rotating logger with the default size limit
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, defaultMaxFileSize)
}

// NewRotatingLoggerWithSizeLimit creates a rotating logger. A maxFileSize of
// 0 disables size based rotation.
func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// getWeekKey returns the week key in YYYY-Www format (ISO week)
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// fileName returns the log file name for a week and sequence number.
// Sequence 0 is the base file of the week.
func fileName(week string, seq int) string {
	if seq == 0 {
		return logFilePrefix + week + logFileSuffix
	}
	return fmt.Sprintf("%s%s_%02d%s", logFilePrefix, week, seq, logFileSuffix)
}

// open picks the first file of the week that still has room and opens it
// for appending (caller must hold the lock)
func (rl *RotatingLogger) open(week string, seq int) error {
	if rl.file != nil {
		if err := rl.file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
		rl.file = nil
	}

	for {
		path := filepath.Join(rl.logDir, fileName(week, seq))
		info, err := os.Stat(path)
		if err != nil || rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
			break
		}
		seq++
	}

	path := filepath.Join(rl.logDir, fileName(week, seq))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	rl.file = file
	rl.week = week
	rl.seq = seq
	rl.currentSize = size
	return nil
}

// Write implements io.Writer
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(time.Now())
	switch {
	case rl.file == nil || rl.week != week:
		if err := rl.open(week, 0); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.currentSize > 0 && rl.currentSize+int64(len(p)) > rl.maxFileSize:
		if err := rl.open(week, rl.seq+1); err != nil {
			return 0, err
		}
	}

	n, err := rl.file.Write(p)
	rl.currentSize += int64(n)
	return n, err
}

// currentPath returns the path of the file being written, or "" before the first write
func (rl *RotatingLogger) currentPath() string {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.file == nil {
		return ""
	}
	return rl.file.Name()
}

// cleanupOldLogs removes log files last modified before now minus retention
func (rl *RotatingLogger) cleanupOldLogs(now time.Time) (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := now.Add(-rl.retention)
	current := rl.currentPath()
	deleted := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, logFileSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(rl.logDir, name)
		if path == current {
			continue
		}
		if err := os.Remove(path); err == nil {
			deleted++
		}
	}

	return deleted, nil
}

// startCleanup runs cleanupOldLogs once a day until Close
func (rl *RotatingLogger) startCleanup(interval time.Duration) {
	if !rl.started.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer close(rl.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-rl.stop:
				return
			case now := <-ticker.C:
				deleted, err := rl.cleanupOldLogs(now)
				if err != nil {
					// Console only, logging through slog here would recurse into Write
					fmt.Fprintf(os.Stderr, "failed to cleanup old logs: %v\n", err)
					continue
				}
				if deleted > 0 {
					fmt.Printf("Cleaned up %d old log files\n", deleted)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine and closes the current file
func (rl *RotatingLogger) Close() error {
	var err error
	rl.closeOnce.Do(func() {
		close(rl.stop)

		if rl.started.Load() {
			select {
			case <-rl.done:
			case <-time.After(5 * time.Second):
			}
		}

		rl.mu.Lock()
		defer rl.mu.Unlock()
		if rl.file != nil {
			err = rl.file.Close()
			rl.file = nil
		}
	})
	return err
}

// Options configures the logger built by SetupLogger
type Options struct {
	Dir            string // log directory, "" logs to the console only
	ConsoleLevel   slog.Level
	FileLevel      slog.Level
	RetentionWeeks int
	MaxFileSize    int64
}

// SetupLogger builds a logger writing text to stdout and JSON to a weekly
// rotating file. The returned RotatingLogger is nil when no file is used.
func SetupLogger(opts Options) (*slog.Logger, *RotatingLogger) {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: opts.ConsoleLevel})

	if opts.Dir == "" {
		return slog.New(consoleHandler), nil
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to create logs directory", "error", err)
		return logger, nil
	}

	retention := opts.RetentionWeeks
	if retention <= 0 {
		retention = 4
	}
	rotating := NewRotatingLoggerWithSizeLimit(opts.Dir, retention, opts.MaxFileSize)
	rotating.startCleanup(24 * time.Hour)

	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{Level: opts.FileLevel})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), rotating
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
