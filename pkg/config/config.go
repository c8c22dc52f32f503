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
	Env  string
	Port int

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Analytics AnalyticsConfig
	Exports   ExportsConfig
	Schedule  ScheduleConfig
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

// AnalyticsConfig governs cache behaviour for the aggregate endpoints.
type AnalyticsConfig struct {
	CacheTTL time.Duration
	StatsTTL time.Duration
}

// ExportsConfig toggles the roster export endpoints and tunes the async
// export pipeline.
type ExportsConfig struct {
	Enabled     bool
	Dir         string
	Workers     int
	DownloadTTL time.Duration
	RetainFor   time.Duration
}

// ScheduleConfig tunes the upcoming-schedule window.
type ScheduleConfig struct {
	DaysAhead int
}

// Load reads configuration from the environment, with an optional .env file
// layered underneath. Every key has a development-friendly default so the
// service starts with no configuration at all.
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

	return &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		Database:  loadDatabase(v),
		Redis:     loadRedis(v),
		JWT:       loadJWT(v),
		CORS:      CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))},
		Log:       LogConfig{Level: v.GetString("LOG_LEVEL"), Format: v.GetString("LOG_FORMAT")},
		Analytics: loadAnalytics(v),
		Exports:   loadExports(v),
		Schedule:  ScheduleConfig{DaysAhead: v.GetInt("SCHEDULE_DAYS_AHEAD")},
	}, nil
}

func loadDatabase(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
}

func loadRedis(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

func loadJWT(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}
}

func loadAnalytics(v *viper.Viper) AnalyticsConfig {
	return AnalyticsConfig{
		CacheTTL: parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 10*time.Minute),
		StatsTTL: parseDuration(v.GetString("PARTICIPATION_STATS_TTL"), time.Minute),
	}
}

func loadExports(v *viper.Viper) ExportsConfig {
	return ExportsConfig{
		Enabled:     v.GetBool("ENABLE_EXPORTS"),
		Dir:         v.GetString("EXPORTS_DIR"),
		Workers:     v.GetInt("EXPORTS_WORKERS"),
		DownloadTTL: parseDuration(v.GetString("EXPORTS_DOWNLOAD_TTL"), 24*time.Hour),
		RetainFor:   parseDuration(v.GetString("EXPORTS_RETAIN_FOR"), 72*time.Hour),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "itikaf_backend")
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

	v.SetDefault("ANALYTICS_CACHE_TTL", "10m")
	v.SetDefault("PARTICIPATION_STATS_TTL", "1m")
	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_DIR", "./exports")
	v.SetDefault("EXPORTS_WORKERS", 2)
	v.SetDefault("EXPORTS_DOWNLOAD_TTL", "24h")
	v.SetDefault("EXPORTS_RETAIN_FOR", "72h")
	v.SetDefault("SCHEDULE_DAYS_AHEAD", 30)
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
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
