package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "gm-test")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("SQLITE_PATH", ":memory:")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TelegramBotToken != "123:abc" {
		t.Fatalf("TelegramBotToken = %q", cfg.TelegramBotToken)
	}
	if cfg.Media.MaxDuration != 15*time.Second {
		t.Fatalf("Media.MaxDuration = %v, want 15s", cfg.Media.MaxDuration)
	}
	if cfg.Media.MaxFileSize != 50*1024*1024 {
		t.Fatalf("Media.MaxFileSize = %d", cfg.Media.MaxFileSize)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo" {
		t.Fatalf("OpenAI.Model = %q", cfg.OpenAI.Model)
	}
	if cfg.Gemini.Model != "gemini-1.5-flash" {
		t.Fatalf("Gemini.Model = %q", cfg.Gemini.Model)
	}
	if cfg.Quiz.SessionTTL != 2*time.Hour {
		t.Fatalf("Quiz.SessionTTL = %v", cfg.Quiz.SessionTTL)
	}
	if cfg.Database.DSN() != ":memory:" {
		t.Fatalf("DSN() = %q", cfg.Database.DSN())
	}
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		want  string
	}{
		{"token", "TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN is required"},
		{"openai", "OPENAI_API_KEY", "OPENAI_API_KEY is required"},
		{"gemini", "GEMINI_API_KEY", "GEMINI_API_KEY is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if err.Error() != tt.want {
				t.Fatalf("Load() error = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestLoadPostgresNeedsConnectionParams(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "")

	_, err := Load()
	if err == nil || err.Error() != "DB_HOST is required" {
		t.Fatalf("Load() error = %v, want DB_HOST is required", err)
	}

	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "bot")
	t.Setenv("DB_NAME", "studybot")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := "host=localhost port=5432 user=bot password= dbname=studybot sslmode=disable"
	if cfg.Database.DSN() != want {
		t.Fatalf("DSN() = %q, want %q", cfg.Database.DSN(), want)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	if err == nil || err.Error() != "DB_DRIVER must be one of: postgres sqlite3" {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoadAdminIDs(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_USER_IDS", "42, 7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.IsAdmin(42) || !cfg.IsAdmin(7) || cfg.IsAdmin(1) {
		t.Fatalf("AdminUserIDs = %v", cfg.AdminUserIDs)
	}

	t.Setenv("ADMIN_USER_IDS", "42,abc")
	if _, err := Load(); err == nil {
		t.Fatal("Load() with bad admin id should fail")
	}
}

func TestLoadEnvFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("STUDYBOT_TEST_ONLY=1\nMEDIA_MAX_DURATION=20s\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEDIA_MAX_DURATION", "")
	os.Unsetenv("MEDIA_MAX_DURATION")
	t.Cleanup(func() { os.Unsetenv("STUDYBOT_TEST_ONLY") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Media.MaxDuration != 20*time.Second {
		t.Fatalf("Media.MaxDuration = %v, want 20s", cfg.Media.MaxDuration)
	}
}
