package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Fairness FairnessConfig
	Builder  BuilderConfig
	Reports  ReportsConfig
	Notify   NotifyConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FairnessConfig tunes the fairness analyzer.
type FairnessConfig struct {
	// WeekendDays are three-letter day names counted as weekend (default FRI,SAT).
	WeekendDays []string
	// FallbackHolidays are ISO dates used when the holidays table is empty.
	FallbackHolidays []string
	CacheTTL         time.Duration
}

// BuilderConfig tunes the auto-builder.
type BuilderConfig struct {
	// MaxWarnings caps the unfilled-slot warnings returned from one build;
	// excess slots are still counted.
	MaxWarnings int
}

// ReportsConfig governs schedule statistics caching and export archival.
type ReportsConfig struct {
	CacheTTL time.Duration
	// ExportDir is where generated export files are archived on disk.
	ExportDir string
	ExportTTL time.Duration
}

// NotifyConfig controls publish notification delivery.
type NotifyConfig struct {
	Enabled           bool
	WorkerConcurrency int
	WorkerRetries     int
	FromAddress       string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Fairness = FairnessConfig{
		WeekendDays:      splitAndTrim(v.GetString("FAIRNESS_WEEKEND_DAYS")),
		FallbackHolidays: splitAndTrim(v.GetString("FAIRNESS_FALLBACK_HOLIDAYS")),
		CacheTTL:         parseDuration(v.GetString("FAIRNESS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Builder = BuilderConfig{
		MaxWarnings: v.GetInt("BUILDER_MAX_WARNINGS"),
	}

	cfg.Reports = ReportsConfig{
		CacheTTL:  parseDuration(v.GetString("REPORTS_CACHE_TTL"), 5*time.Minute),
		ExportDir: v.GetString("REPORTS_EXPORT_DIR"),
		ExportTTL: parseDuration(v.GetString("REPORTS_EXPORT_TTL"), 7*24*time.Hour),
	}

	cfg.Notify = NotifyConfig{
		Enabled:           v.GetBool("ENABLE_NOTIFICATIONS"),
		WorkerConcurrency: v.GetInt("NOTIFY_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("NOTIFY_WORKER_RETRIES"),
		FromAddress:       v.GetString("NOTIFY_FROM_ADDRESS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "doctor_roster")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FAIRNESS_WEEKEND_DAYS", "FRI,SAT")
	// Saudi public holidays for 2025; Eid dates are approximate.
	v.SetDefault("FAIRNESS_FALLBACK_HOLIDAYS",
		"2025-01-01,2025-02-22,2025-03-29,2025-03-30,2025-03-31,"+
			"2025-06-06,2025-06-07,2025-06-08,2025-06-09,2025-09-23")
	v.SetDefault("FAIRNESS_CACHE_TTL", "5m")

	v.SetDefault("BUILDER_MAX_WARNINGS", 50)
	v.SetDefault("REPORTS_CACHE_TTL", "5m")
	v.SetDefault("REPORTS_EXPORT_DIR", "./exports")
	v.SetDefault("REPORTS_EXPORT_TTL", "168h")

	v.SetDefault("ENABLE_NOTIFICATIONS", false)
	v.SetDefault("NOTIFY_WORKER_CONCURRENCY", 1)
	v.SetDefault("NOTIFY_WORKER_RETRIES", 3)
	v.SetDefault("NOTIFY_FROM_ADDRESS", "roster@localhost")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
