package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the bot reads from the environment
type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN" validate:"required"`
	AdminUserIDs     []int64

	Database   DatabaseConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	Quiz       QuizConfig
	Motivation MotivationConfig
	Media      MediaConfig
	Log        LogConfig
}

// DatabaseConfig describes the SQL connection
type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" validate:"oneof=postgres sqlite3"`
	Host       string `env:"DB_HOST" validate:"required_if=Driver postgres"`
	Port       int    `env:"DB_PORT"`
	User       string `env:"DB_USER" validate:"required_if=Driver postgres"`
	Password   string `env:"DB_PASSWORD"`
	Name       string `env:"DB_NAME" validate:"required_if=Driver postgres"`
	SSLMode    string `env:"DB_SSLMODE"`
	SQLitePath string `env:"SQLITE_PATH" validate:"required_if=Driver sqlite3"`
}

// DSN returns the driver specific data source name
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite3" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// OpenAIConfig configures the chat completions client
type OpenAIConfig struct {
	APIKey  string        `env:"OPENAI_API_KEY" validate:"required"`
	Model   string        `env:"OPENAI_MODEL"`
	BaseURL string        `env:"OPENAI_BASE_URL" validate:"url"`
	Timeout time.Duration `env:"OPENAI_TIMEOUT" validate:"gt=0"`
}

// GeminiConfig configures the question generator
type GeminiConfig struct {
	APIKey  string        `env:"GEMINI_API_KEY" validate:"required"`
	Model   string        `env:"GEMINI_MODEL"`
	BaseURL string        `env:"GEMINI_BASE_URL" validate:"url"`
	Timeout time.Duration `env:"GEMINI_TIMEOUT" validate:"gt=0"`
}

// QuizConfig configures the English test
type QuizConfig struct {
	QuestionsFile string        `env:"QUESTIONS_FILE"`
	SessionTTL    time.Duration `env:"SESSION_TTL" validate:"gt=0"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" validate:"gt=0"`
}

// MotivationConfig configures the periodic motivation messages
type MotivationConfig struct {
	TickInterval   time.Duration `env:"MOTIVATION_TICK_INTERVAL" validate:"gt=0"`
	SendsPerSecond int           `env:"MOTIVATION_SENDS_PER_SECOND" validate:"gt=0"`
	AssetsDir      string        `env:"MOTIVATION_ASSETS_DIR"`
}

// MediaConfig limits video to GIF conversion
type MediaConfig struct {
	MaxDuration   time.Duration `env:"MEDIA_MAX_DURATION" validate:"gt=0"`
	MaxFileSize   int64         `env:"MEDIA_MAX_FILE_SIZE" validate:"gt=0"`
	TempDir       string        `env:"MEDIA_TEMP_DIR"`
	FFmpegTimeout time.Duration `env:"FFMPEG_TIMEOUT" validate:"gt=0"`
}

// LogConfig configures zap
type LogConfig struct {
	Level   string `env:"LOG_LEVEL"`
	File    string `env:"LOG_FILE"`
	Console bool   `env:"LOG_CONSOLE"`
}

var defaults = map[string]interface{}{
	"DB_DRIVER":                   "postgres",
	"DB_PORT":                     5432,
	"DB_SSLMODE":                  "disable",
	"SQLITE_PATH":                 "data/studybot.db",
	"OPENAI_MODEL":                "gpt-3.5-turbo",
	"OPENAI_BASE_URL":             "https://api.openai.com/v1",
	"OPENAI_TIMEOUT":              "30s",
	"GEMINI_MODEL":                "gemini-1.5-flash",
	"GEMINI_BASE_URL":             "https://generativelanguage.googleapis.com/v1beta",
	"GEMINI_TIMEOUT":              "60s",
	"QUESTIONS_FILE":              "my_questions.json",
	"SESSION_TTL":                 "2h",
	"SESSION_SWEEP_INTERVAL":      "10m",
	"MOTIVATION_TICK_INTERVAL":    "1m",
	"MOTIVATION_SENDS_PER_SECOND": 20,
	"MEDIA_MAX_DURATION":          "15s",
	"MEDIA_MAX_FILE_SIZE":         50 * 1024 * 1024,
	"FFMPEG_TIMEOUT":              "2m",
	"LOG_LEVEL":                   "info",
	"LOG_FILE":                    "logs/bot.log",
	"LOG_CONSOLE":                 true,
}

// Load reads an optional .env file and the process environment.
// Missing required settings are reported as "<ENV_NAME> is required".
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	admins, err := parseIDList(v.GetString("ADMIN_USER_IDS"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		TelegramBotToken: strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN")),
		AdminUserIDs:     admins,
		Database: DatabaseConfig{
			Driver:     v.GetString("DB_DRIVER"),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetInt("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			Name:       v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
			Model:   v.GetString("OPENAI_MODEL"),
			BaseURL: v.GetString("OPENAI_BASE_URL"),
			Timeout: v.GetDuration("OPENAI_TIMEOUT"),
		},
		Gemini: GeminiConfig{
			APIKey:  strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
			Model:   v.GetString("GEMINI_MODEL"),
			BaseURL: v.GetString("GEMINI_BASE_URL"),
			Timeout: v.GetDuration("GEMINI_TIMEOUT"),
		},
		Quiz: QuizConfig{
			QuestionsFile: v.GetString("QUESTIONS_FILE"),
			SessionTTL:    v.GetDuration("SESSION_TTL"),
			SweepInterval: v.GetDuration("SESSION_SWEEP_INTERVAL"),
		},
		Motivation: MotivationConfig{
			TickInterval:   v.GetDuration("MOTIVATION_TICK_INTERVAL"),
			SendsPerSecond: v.GetInt("MOTIVATION_SENDS_PER_SECOND"),
			AssetsDir:      v.GetString("MOTIVATION_ASSETS_DIR"),
		},
		Media: MediaConfig{
			MaxDuration:   v.GetDuration("MEDIA_MAX_DURATION"),
			MaxFileSize:   v.GetInt64("MEDIA_MAX_FILE_SIZE"),
			TempDir:       v.GetString("MEDIA_TEMP_DIR"),
			FFmpegTimeout: v.GetDuration("FFMPEG_TIMEOUT"),
		},
		Log: LogConfig{
			Level:   v.GetString("LOG_LEVEL"),
			File:    v.GetString("LOG_FILE"),
			Console: v.GetBool("LOG_CONSOLE"),
		},
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsAdmin reports whether the user may run admin commands
func (c Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_USER_IDS contains invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func validate(cfg Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("env"); name != "" {
			return name
		}
		return field.Name
	})

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s is required", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Errorf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}
