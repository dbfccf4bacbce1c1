package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/samdwyer/skirmish/internal/config"
	"github.com/samdwyer/skirmish/internal/storage"
)

func TestRunBadConfig(t *testing.T) {
	err := run(filepath.Join(t.TempDir(), "missing.yaml"), true)
	if err == nil {
		t.Fatal("run should return the config error instead of exiting")
	}
}

func TestRunHeadless(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "history.db")
	logPath := filepath.Join(dir, "skirmish.log")

	settings := "combat:\n" +
		"  action_delay: 0s\n" +
		"  seed: 7\n" +
		"  battles: 1\n" +
		"storage:\n" +
		"  history_path: " + historyPath + "\n" +
		"log:\n" +
		"  file: " + logPath + "\n" +
		"tracing:\n" +
		"  enabled: false\n"
	cfgPath := filepath.Join(dir, "skirmish.yaml")
	if err := os.WriteFile(cfgPath, []byte(settings), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := run(cfgPath, true); err != nil {
		t.Fatalf("run: %v", err)
	}

	// The session was closed on return, so the database can be reopened.
	h, err := storage.Open(historyPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()
	records, err := h.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("history records = %d, want 1", len(records))
	}

	if info, err := os.Stat(logPath); err != nil || info.Size() == 0 {
		t.Errorf("log file should hold session logs, stat err %v", err)
	}
}

func TestLogOutput(t *testing.T) {
	cfg := config.Default()

	out, closeLog, err := logOutput(cfg)
	if err != nil {
		t.Fatalf("logOutput: %v", err)
	}
	closeLog()
	if out != io.Discard {
		t.Error("interactive mode without a log file should discard logs")
	}

	cfg.Combat.Headless = true
	if out, _, _ := logOutput(cfg); out != os.Stderr {
		t.Error("headless mode should log to stderr")
	}

	cfg.Log.File = filepath.Join(t.TempDir(), "nested", "missing", "x.log")
	if _, _, err := logOutput(cfg); err == nil {
		t.Error("an unwritable log path should fail")
	}
}
