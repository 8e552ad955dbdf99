package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken   string            `yaml:"discord_token" validate:"required"`
	LogLevel       string            `yaml:"log_level" validate:"oneof=debug info warn error"`
	DefaultPrefix  string            `yaml:"default_prefix" validate:"required"`
	CommandName    string            `yaml:"command_name" validate:"required"`
	CommandAliases []string          `yaml:"command_aliases"`
	Storage        StorageConfig     `yaml:"storage"`
	Interaction    InteractionConfig `yaml:"interaction"`
	RateLimit      RateLimitConfig   `yaml:"rate_limit"`
	Health         HealthConfig      `yaml:"health"`
	Audit          AuditConfig       `yaml:"audit"`
	Twitch         TwitchConfig      `yaml:"twitch"`
	YouTube        YouTubeConfig     `yaml:"youtube"`
	EmbedColors    EmbedColors       `yaml:"embed_colors"`
}

type StorageConfig struct {
	Driver          string `yaml:"driver" validate:"oneof=memory sqlite postgres redis"`
	DSN             string `yaml:"dsn" validate:"required_unless=Driver memory"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" validate:"min=0"`
}

type InteractionConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"min=1"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute" validate:"min=0"`
	Burst     int `yaml:"burst" validate:"min=1"`
}

type HealthConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	AuditToken string `yaml:"audit_token"`
}

type AuditConfig struct {
	RetentionDays int `yaml:"retention_days" validate:"min=0"`
}

type TwitchConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	APIBase      string `yaml:"api_base" validate:"omitempty,url"`
	TokenURL     string `yaml:"token_url" validate:"omitempty,url"`
}

type YouTubeConfig struct {
	APIKey  string `yaml:"api_key"`
	APIBase string `yaml:"api_base" validate:"omitempty,url"`
}

type EmbedColors struct {
	Info    int `yaml:"info"`
	Success int `yaml:"success"`
	Error   int `yaml:"error"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:       "info",
		DefaultPrefix:  "!",
		CommandName:    "settings",
		CommandAliases: []string{"options"},
		Storage:        StorageConfig{Driver: "sqlite", DSN: "/data/guildconf.db", CacheTTLSeconds: 600},
		Interaction:    InteractionConfig{TimeoutSeconds: 60},
		RateLimit:      RateLimitConfig{PerMinute: 20, Burst: 5},
		Health:         HealthConfig{Enabled: false, Addr: ":8080"},
		Audit:          AuditConfig{RetentionDays: 14},
		EmbedColors: EmbedColors{
			Info:    0x233A54,
			Success: 0x22C55E,
			Error:   0xEF4444,
		},
	}
}

// Load reads .env, then the YAML file named by CONFIG_PATH, then environment
// overrides, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Storage.CacheTTLSeconds) * time.Second
}

func (c Config) InteractionTimeout() time.Duration {
	return time.Duration(c.Interaction.TimeoutSeconds) * time.Second
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.DefaultPrefix = envString("DEFAULT_PREFIX", cfg.DefaultPrefix)
	cfg.CommandName = envString("COMMAND_NAME", cfg.CommandName)
	cfg.CommandAliases = envList("COMMAND_ALIASES", cfg.CommandAliases)
	cfg.Storage.Driver = envString("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DSN = envString("STORAGE_DSN", cfg.Storage.DSN)
	cfg.Storage.CacheTTLSeconds = envInt("STORAGE_CACHE_TTL_SECONDS", cfg.Storage.CacheTTLSeconds)
	cfg.Interaction.TimeoutSeconds = envInt("INTERACTION_TIMEOUT_SECONDS", cfg.Interaction.TimeoutSeconds)
	cfg.RateLimit.PerMinute = envInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimit.PerMinute)
	cfg.RateLimit.Burst = envInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Health.AuditToken = envString("HEALTH_AUDIT_TOKEN", cfg.Health.AuditToken)
	cfg.Audit.RetentionDays = envInt("RETENTION_DAYS", cfg.Audit.RetentionDays)
	cfg.Twitch.ClientID = envString("TWITCH_CLIENT_ID", cfg.Twitch.ClientID)
	cfg.Twitch.ClientSecret = envString("TWITCH_CLIENT_SECRET", cfg.Twitch.ClientSecret)
	cfg.YouTube.APIKey = envString("YOUTUBE_API_KEY", cfg.YouTube.APIKey)
	cfg.EmbedColors.Info = envInt("EMBED_COLOR_INFO", cfg.EmbedColors.Info)
	cfg.EmbedColors.Success = envInt("EMBED_COLOR_SUCCESS", cfg.EmbedColors.Success)
	cfg.EmbedColors.Error = envInt("EMBED_COLOR_ERROR", cfg.EmbedColors.Error)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))
	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

// envList splits a comma separated value.
func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
