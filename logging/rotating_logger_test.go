package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGetWeekKey(t *testing.T) {
	tests := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), "2026-W01"},
		{time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC), "2026-W42"},
		{time.Date(2027, 1, 1, 12, 0, 0, 0, time.UTC), "2026-W53"},
	}

	for _, tt := range tests {
		if got := getWeekKey(tt.date); got != tt.expected {
			t.Errorf("getWeekKey(%v) = %s, want %s", tt.date, got, tt.expected)
		}
	}
}

func TestFileName(t *testing.T) {
	if got := fileName("2026-W42", 0); got != "cie10-2026-W42.log" {
		t.Errorf("Unexpected base file name: %s", got)
	}
	if got := fileName("2026-W42", 3); got != "cie10-2026-W42_03.log" {
		t.Errorf("Unexpected numbered file name: %s", got)
	}
}

func TestRotatingLoggerWrite(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 4)
	defer rl.Close()

	if _, err := rl.Write([]byte("first line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := rl.Write([]byte("second line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	path := filepath.Join(dir, fileName(getWeekKey(time.Now()), 0))
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file %s: %v", path, err)
	}
	if string(content) != "first line\nsecond line\n" {
		t.Errorf("Unexpected log content: %q", content)
	}
}

func TestRotatingLoggerWithSizeLimit(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLoggerWithSizeLimit(dir, 4, 20)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if _, err := rl.Write([]byte("0123456789abcde\n")); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	week := getWeekKey(time.Now())
	for seq := 0; seq < 3; seq++ {
		if _, err := os.Stat(filepath.Join(dir, fileName(week, seq))); err != nil {
			t.Errorf("Expected file for sequence %d: %v", seq, err)
		}
	}
}

func TestRotatingLoggerSkipsFullExistingFile(t *testing.T) {
	dir := t.TempDir()
	week := getWeekKey(time.Now())

	full := filepath.Join(dir, fileName(week, 0))
	if err := os.WriteFile(full, bytes.Repeat([]byte("x"), 64), 0644); err != nil {
		t.Fatal(err)
	}

	rl := NewRotatingLoggerWithSizeLimit(dir, 4, 64)
	defer rl.Close()

	if _, err := rl.Write([]byte("new entry\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if got := filepath.Base(rl.currentPath()); got != fileName(week, 1) {
		t.Errorf("Expected writes to go to %s, got %s", fileName(week, 1), got)
	}
}

func TestRotatingLoggerAppendsToExistingFileBelowLimit(t *testing.T) {
	dir := t.TempDir()
	week := getWeekKey(time.Now())

	existing := filepath.Join(dir, fileName(week, 0))
	if err := os.WriteFile(existing, []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rl := NewRotatingLoggerWithSizeLimit(dir, 4, 1024)
	defer rl.Close()

	if _, err := rl.Write([]byte("new\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, _ := os.ReadFile(existing)
	if string(content) != "old\nnew\n" {
		t.Errorf("Expected append to existing file, got %q", content)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 1)
	defer rl.Close()

	old := filepath.Join(dir, "cie10-2020-W01.log")
	recent := filepath.Join(dir, "cie10-2026-W40.log")
	unrelated := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, recent, unrelated} {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	now := time.Now()
	oldTime := now.Add(-30 * 24 * time.Hour)
	_ = os.Chtimes(old, oldTime, oldTime)
	_ = os.Chtimes(unrelated, oldTime, oldTime)

	deleted, err := rl.cleanupOldLogs(now)
	if err != nil {
		t.Fatalf("cleanupOldLogs failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted file, got %d", deleted)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("Expected old log file to be removed")
	}
	if _, err := os.Stat(recent); err != nil {
		t.Error("Expected recent log file to be kept")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("Expected non-log file to be kept")
	}
}

func TestCleanupOldLogsMissingDir(t *testing.T) {
	rl := NewRotatingLogger(filepath.Join(t.TempDir(), "missing"), 1)
	defer rl.Close()

	if _, err := rl.cleanupOldLogs(time.Now()); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestRotatingLoggerConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLoggerWithSizeLimit(dir, 4, 4096)
	defer rl.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = rl.Write([]byte("concurrent log line\n"))
			}
		}()
	}
	wg.Wait()

	matches, _ := filepath.Glob(filepath.Join(dir, "cie10-*.log"))
	var total int
	for _, match := range matches {
		content, _ := os.ReadFile(match)
		total += strings.Count(string(content), "\n")
	}
	if total != 1000 {
		t.Errorf("Expected 1000 lines across files, got %d", total)
	}
}

func TestRotatingLoggerCloseTwice(t *testing.T) {
	rl := NewRotatingLogger(t.TempDir(), 1)
	rl.startCleanup(time.Hour)
	_, _ = rl.Write([]byte("line\n"))

	if err := rl.Close(); err != nil {
		t.Errorf("First Close failed: %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

func TestMultiHandler(t *testing.T) {
	var infoBuf, errorBuf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected info to be enabled")
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Expected debug to be disabled")
	}

	logger := slog.New(h).With("component", "test").WithGroup("g")
	logger.Info("hello", "k", "v")
	logger.Error("boom")

	if !strings.Contains(infoBuf.String(), "hello") || !strings.Contains(infoBuf.String(), "boom") {
		t.Errorf("Expected both records in info handler, got %q", infoBuf.String())
	}
	if strings.Contains(errorBuf.String(), "hello") || !strings.Contains(errorBuf.String(), "boom") {
		t.Errorf("Expected only the error record in error handler, got %q", errorBuf.String())
	}
	if !strings.Contains(infoBuf.String(), "component=test") {
		t.Errorf("Expected attrs to propagate, got %q", infoBuf.String())
	}
}
