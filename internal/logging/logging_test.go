package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"WARN", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFileOutputJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	cfg := &Config{
		Level:     LevelInfo,
		Format:    FormatJSON,
		Output:    "file",
		FilePath:  path,
		MaxSize:   10,
		Component: "test",
	}
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Info("hello", "answer", 42)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "hello" || entry["component"] != "test" {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rotate.log")

	cfg := DefaultConfig()
	cfg.FilePath = path
	cfg.MaxSize = 1 // 1 MB
	cfg.MaxBackups = 2

	r, err := NewFileRotator(cfg)
	if err != nil {
		t.Fatalf("NewFileRotator: %v", err)
	}
	defer r.Close()

	line := strings.Repeat("x", 64*1024)
	for i := 0; i < 40; i++ { // ~2.5 MB total
		if _, err := r.Write([]byte(line)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat live file: %v", err)
	}
	if info.Size() > 1<<21 {
		t.Errorf("live log never rotated, size=%d", info.Size())
	}

	backups, _ := filepath.Glob(path + ".*")
	if len(backups) == 0 {
		t.Error("no rotated backups found")
	}
	if len(backups) > cfg.MaxBackups {
		t.Errorf("backups not pruned: %d > %d", len(backups), cfg.MaxBackups)
	}
}
