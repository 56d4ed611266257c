package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/comalice/pollfsm"
)

func TestNewFallsBackToDefaults(t *testing.T) {
	cfg, err := New("", filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TickInterval != 100*time.Millisecond || cfg.Keys.Start != "s" || cfg.Keys.Stop != "x" {
		t.Fatalf("defaults %+v", cfg)
	}
	if p, _ := cfg.Policy(); p != pollfsm.DiscardWhileStopped {
		t.Fatalf("policy = %v", p)
	}
}

func TestNewReadsFirstExistingFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.yaml")
	second := filepath.Join(dir, "second.yaml")
	_ = os.WriteFile(first, []byte(`
tick_interval: 250ms
queue_size: 8
stopped_policy: queue
keys: {start: a, stop: b}
snapshot: {dir: /tmp/sw, format: yaml}
`), 0o644)
	_ = os.WriteFile(second, []byte("queue_size: 99\n"), 0o644)

	cfg, err := New(filepath.Join(dir, "nope.yaml"), first, second)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TickInterval != 250*time.Millisecond || cfg.QueueSize != 8 {
		t.Fatalf("tick=%v queue=%d", cfg.TickInterval, cfg.QueueSize)
	}
	// Unset keys keep their defaults.
	if cfg.Debounce != 50*time.Millisecond || cfg.LogLevel != "info" {
		t.Fatalf("debounce=%v level=%q", cfg.Debounce, cfg.LogLevel)
	}
	if cfg.Keys.Start != "a" || cfg.Snapshot.Format != "yaml" {
		t.Fatalf("keys=%+v snapshot=%+v", cfg.Keys, cfg.Snapshot)
	}
	if p, _ := cfg.Policy(); p != pollfsm.QueueWhileStopped {
		t.Fatalf("policy = %v", p)
	}
	if n := len(cfg.MachineOptions()); n != 3 {
		t.Fatalf("%d machine options", n)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.TickInterval = 0
	cfg.Debounce = -time.Second
	cfg.QueueSize = 0
	cfg.StoppedPolicy = "hold"
	cfg.LogLevel = "loud"
	cfg.Keys.Stop = "s"
	cfg.Snapshot.Format = "xml"

	err := cfg.Validate()
	if n := len(multierr.Errors(err)); n != 7 {
		t.Fatalf("got %d problems, want 7: %v", n, err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(path, []byte("queue_size: -1\n"), 0o644)
	if _, err := New(path); err == nil || !strings.Contains(err.Error(), "queue_size") {
		t.Fatalf("New = %v", err)
	}
	_ = os.WriteFile(path, []byte("queue_size: [\n"), 0o644)
	if _, err := New(path); err == nil {
		t.Fatal("malformed YAML accepted")
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	cfg.LogFile = filepath.Join(t.TempDir(), "sw.log")
	logger, err := cfg.Logger(true)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.LogFile)
	if err != nil || !strings.Contains(string(data), "hello") {
		t.Fatalf("log file = %q, %v", data, err)
	}
}

func TestLoggerStaysOffTheScreen(t *testing.T) {
	cfg := Default()
	screen, err := cfg.Logger(true)
	if err != nil {
		t.Fatal(err)
	}
	if screen.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("screen logger without log_file writes output")
	}

	plain, err := cfg.Logger(false)
	if err != nil {
		t.Fatal(err)
	}
	if !plain.Core().Enabled(zapcore.InfoLevel) || plain.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("plain logger does not follow log_level")
	}

	cfg.LogLevel = "loud"
	if _, err := cfg.Logger(true); err == nil {
		t.Fatal("bad level accepted")
	}
}
