package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned by Load when the generation backend has no API key.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is required")

// Config holds all configuration for sheetscribe.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	AI         AIConfig
	Generation GenerationConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Markers    MarkerConfig
}

type ServerConfig struct {
	Port             int
	Env              string
	TriggerTokenHash string
	RunSchedule      string
	RequestsPerMin   int
}

type LogConfig struct {
	Level slog.Level
}

type AIConfig struct {
	Provider string
	Gemini   GeminiConfig
}

type GeminiConfig struct {
	APIKey           string
	BaseURL          string
	FallbackModel    string
	ModelPreferences []string
	RequestTimeout   time.Duration
}

// GenerationConfig controls the retry policy and prompt of a generation request.
type GenerationConfig struct {
	MaxAttempts    int
	RetryDelay     time.Duration
	PromptTemplate string
}

type StoreConfig struct {
	Backend         string
	SpreadsheetID   string
	SpreadsheetName string
	Worksheet       string
	CredentialsFile string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL       string
	ClaimTTL  time.Duration
	ReportTTL time.Duration
}

// MarkerConfig holds the literal status-cell values shared with the people
// editing the sheet. They must match the sheet exactly.
type MarkerConfig struct {
	Unprocessed      string
	Completed        string
	GenerationFailed string
	MissingTopic     string
}

var validProviders = map[string]bool{
	"gemini": true,
	"mock":   true,
}

var validBackends = map[string]bool{
	"sheets":   true,
	"postgres": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:             envInt("SHEETSCRIBE_PORT", 8080),
			Env:              envString("SHEETSCRIBE_ENV", "development"),
			TriggerTokenHash: os.Getenv("TRIGGER_TOKEN_HASH"),
			RunSchedule:      os.Getenv("RUN_SCHEDULE"),
			RequestsPerMin:   envInt("TRIGGER_REQUESTS_PER_MIN", 6),
		},
		Log: LogConfig{
			Level: envLevel("SHEETSCRIBE_LOG_LEVEL", slog.LevelInfo),
		},
		AI: AIConfig{
			Provider: envString("AI_PROVIDER", "gemini"),
			Gemini: GeminiConfig{
				APIKey:           os.Getenv("GEMINI_API_KEY"),
				BaseURL:          envString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
				FallbackModel:    envString("GEMINI_FALLBACK_MODEL", "gemini-1.5-flash"),
				ModelPreferences: envList("GEMINI_MODEL_PREFERENCES", []string{"2.5-flash", "2.0-flash", "1.5-flash"}),
				RequestTimeout:   envDuration("GEMINI_REQUEST_TIMEOUT", 2*time.Minute),
			},
		},
		Generation: GenerationConfig{
			MaxAttempts:    envInt("GENERATION_MAX_ATTEMPTS", 3),
			RetryDelay:     envDurationSecs("GENERATION_RETRY_DELAY_SECS", 15*time.Second),
			PromptTemplate: os.Getenv("GENERATION_PROMPT_TEMPLATE"),
		},
		Store: StoreConfig{
			Backend:         envString("STORE_BACKEND", "sheets"),
			SpreadsheetID:   os.Getenv("SHEETS_SPREADSHEET_ID"),
			SpreadsheetName: envString("SHEETS_SPREADSHEET_NAME", "TikTok管理シートAI"),
			Worksheet:       os.Getenv("SHEETS_WORKSHEET"),
			CredentialsFile: os.Getenv("SHEETS_CREDENTIALS_FILE"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 4),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir:   envString("DATABASE_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL:       os.Getenv("REDIS_URL"),
			ClaimTTL:  envDuration("CLAIM_TTL", 10*time.Minute),
			ReportTTL: envDuration("RUN_REPORT_TTL", 7*24*time.Hour),
		},
		Markers: MarkerConfig{
			Unprocessed:      envString("MARKER_UNPROCESSED", "未処理"),
			Completed:        envString("MARKER_COMPLETED", "プロンプト完了"),
			GenerationFailed: envString("MARKER_GENERATION_FAILED", "APIエラー"),
			MissingTopic:     envString("MARKER_MISSING_TOPIC", "テーマ未入力"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of gemini, mock; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "gemini" {
		if c.AI.Gemini.APIKey == "" {
			return ErrMissingAPIKey
		}
		if !strings.HasPrefix(c.AI.Gemini.BaseURL, "http://") && !strings.HasPrefix(c.AI.Gemini.BaseURL, "https://") {
			return fmt.Errorf("GEMINI_BASE_URL must start with http:// or https://, got %q", c.AI.Gemini.BaseURL)
		}
	}
	if c.AI.Gemini.FallbackModel == "" {
		return fmt.Errorf("GEMINI_FALLBACK_MODEL must not be empty")
	}

	if c.Generation.MaxAttempts < 1 {
		return fmt.Errorf("GENERATION_MAX_ATTEMPTS must be at least 1, got %d", c.Generation.MaxAttempts)
	}
	if c.Generation.PromptTemplate != "" && !strings.Contains(c.Generation.PromptTemplate, "{topic}") {
		return fmt.Errorf("GENERATION_PROMPT_TEMPLATE must contain the {topic} placeholder")
	}

	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("STORE_BACKEND must be one of sheets, postgres; got %q", c.Store.Backend)
	}
	if c.Store.Backend == "sheets" && c.Store.SpreadsheetID == "" && c.Store.SpreadsheetName == "" {
		return fmt.Errorf("SHEETS_SPREADSHEET_ID or SHEETS_SPREADSHEET_NAME is required when STORE_BACKEND is sheets")
	}
	if c.Store.Backend == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is postgres")
	}

	if c.Markers.Unprocessed == "" || c.Markers.Completed == "" ||
		c.Markers.GenerationFailed == "" || c.Markers.MissingTopic == "" {
		return fmt.Errorf("status markers must not be empty")
	}
	if c.Markers.Unprocessed == c.Markers.Completed ||
		c.Markers.Unprocessed == c.Markers.GenerationFailed ||
		c.Markers.Unprocessed == c.Markers.MissingTopic {
		return fmt.Errorf("MARKER_UNPROCESSED must differ from the terminal markers")
	}
	if c.Markers.GenerationFailed == c.Markers.MissingTopic {
		return fmt.Errorf("MARKER_GENERATION_FAILED and MARKER_MISSING_TOPIC must differ")
	}

	return nil
}

// ValidateServer checks the settings only the long-running server needs.
func (c *Config) ValidateServer() error {
	if c.Server.TriggerTokenHash == "" {
		return fmt.Errorf("TRIGGER_TOKEN_HASH is required to run the server")
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// envList splits a comma-separated value, dropping blank entries.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func envLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
