package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"", logging.LevelInfo, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"loud", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, logging.ErrInvalidLevel) {
				t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// Init and Close mutate process-wide state, so these tests do not run in parallel.
func TestInit_WritesComponentEntries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "imgsnap.log")

	// Obtained before Init, as package-level loggers are.
	early := logging.Get("snapshot")

	err := logging.Init(logging.Config{
		Level:      "info",
		Path:       logPath,
		Components: map[string]string{"scanner": "error"},
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	early.Info("snapshot saved", "target", "holiday")
	logging.Get("scanner").Warn("suppressed by component level")
	logging.Get("snapshot").Debug("below default level")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "snapshot saved") || !strings.Contains(content, "target=holiday") {
		t.Errorf("log missing info entry, got:\n%s", content)
	}
	if strings.Contains(content, "suppressed by component level") {
		t.Errorf("component override not applied, got:\n%s", content)
	}
	if strings.Contains(content, "below default level") {
		t.Errorf("debug entry written at info level, got:\n%s", content)
	}
}

func TestInit_InvalidLevels(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  logging.Config
	}{
		{"default level", logging.Config{Level: "nope", Path: filepath.Join(dir, "a.log")}},
		{"component level", logging.Config{Path: filepath.Join(dir, "b.log"), Components: map[string]string{"x": "nope"}}},
		{"console level", logging.Config{Path: filepath.Join(dir, "c.log"), ConsoleLevel: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := logging.Init(tt.cfg); err == nil {
				_ = logging.Close()
				t.Fatal("Init() error = nil, want error")
			}
		})
	}
}

func TestGet_BeforeInitIsSilent(t *testing.T) {
	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	l := logging.Get("untouched")
	l.Error("goes nowhere")
	l.With("k", "v").Info("also nowhere")
}

func TestRotatingWriter_RotatesBySize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "size.log")

	w, err := logging.NewRotatingWriter(logPath, logging.RotationConfig{MaxSize: 256, MaxBackups: 3})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	for i := 0; i < 20; i++ {
		if _, err := w.Write([]byte(strings.Repeat("x", 60) + "\n")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) < 2 {
		t.Errorf("expected a rotated file next to size.log, got %d entries", len(entries))
	}
	if len(entries) > 4 {
		t.Errorf("MaxBackups not enforced: %d entries", len(entries))
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	t.Parallel()

	w, err := logging.NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), logging.RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
	if _, err := w.Write([]byte("late\n")); err == nil {
		t.Error("Write() after Close error = nil, want error")
	}
}
