package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken     string
	DiscordChannelID string // fixed destination for scheduled flows
	DiscordWebhook   string

	LLMProvider    string // anthropic, openai, ollama
	AnthropicKey   string // API key (X-Api-Key header)
	AnthropicToken string // OAuth token (Authorization: Bearer header)
	OpenAIKey      string
	LLMModel       string
	OllamaBaseURL  string
	OracleTimeout  time.Duration

	StoreBackend      string // sheets, sqlite, postgres, memory
	GoogleCredentials string // service-account JSON blob
	SheetID           string
	CalendarID        string
	DatabasePath      string
	DatabaseURL       string

	Location         *time.Location
	MorningCron      string
	EveningCron      string
	WeeklyCron       string
	MonthlyCron      string
	SleepScreenshots int
	WeatherLocations []string

	HistoryLimit     int
	MaxContextTokens int
	LogLevel         slog.Level
}

// ConfigDir is where the installed service keeps its env file.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".zeroism")
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config")
}

func Load() *Config {
	_ = godotenv.Load()             // ignore error if no .env
	_ = godotenv.Load(ConfigFile()) // installed service config; never overrides .env

	loc, err := time.LoadLocation(envOr("TIMEZONE", "Atlantic/Canary"))
	if err != nil {
		slog.Warn("config: unknown TIMEZONE, using UTC", "error", err)
		loc = time.UTC
	}

	return &Config{
		DiscordToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		DiscordWebhook:   os.Getenv("DISCORD_WEBHOOK_URL"),

		LLMProvider:    envOr("LLM_PROVIDER", "anthropic"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicToken: os.Getenv("ANTHROPIC_AUTH_TOKEN"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		LLMModel:       os.Getenv("LLM_MODEL"),
		OllamaBaseURL:  envOr("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		OracleTimeout:  envDuration("ORACLE_TIMEOUT", 90*time.Second),

		StoreBackend:      envOr("STORE_BACKEND", "sheets"),
		GoogleCredentials: os.Getenv("GOOGLE_CREDENTIALS"),
		SheetID:           os.Getenv("SHEET_ID"),
		CalendarID:        os.Getenv("CALENDAR_ID"),
		DatabasePath:      envOr("DATABASE_PATH", "./zeroism.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),

		Location:         loc,
		MorningCron:      envOr("MORNING_CRON", "0 7 * * *"),
		EveningCron:      envOr("EVENING_CRON", "30 22 * * *"),
		WeeklyCron:       envOr("WEEKLY_CRON", "0 18 * * 0"),
		MonthlyCron:      envOr("MONTHLY_CRON", "0 10 1 * *"),
		SleepScreenshots: envInt("SLEEP_SCREENSHOTS", 9),
		WeatherLocations: splitList(envOr("WEATHER_LOCATIONS", "Las Palmas,Giessen")),

		HistoryLimit:     envInt("HISTORY_LIMIT", 20),
		MaxContextTokens: envInt("MAX_CONTEXT_TOKENS", 50000),
		LogLevel:         parseLevel(os.Getenv("LOG_LEVEL")),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		slog.Warn("config: invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		slog.Warn("config: invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
