package logger

import (
	"path/filepath"
	"testing"

	"github.com/example/studybot/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	log, err := New(config.LogConfig{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Info("hello")
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("New() with unknown level should fail")
	}
}

func TestNewWithoutOutputsIsNop(t *testing.T) {
	log, err := New(config.LogConfig{Level: "info"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if log.Core().Enabled(0) {
		t.Fatal("expected a no-op logger")
	}
}
