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

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Reminders RemindersConfig
	Push      PushConfig
	Weather   WeatherConfig
	HTTPCache HTTPCacheConfig
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
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RemindersConfig governs the background reminder scheduler.
type RemindersConfig struct {
	Enabled           bool
	Cadence           time.Duration
	WorkerConcurrency int
}

// PushConfig configures the outbound push gateway client.
type PushConfig struct {
	GatewayURL string
	APIKey     string
	Timeout    time.Duration
	BatchSize  int
}

// WeatherConfig configures the forecast proxy for event venues.
type WeatherConfig struct {
	Enabled     bool
	ForecastURL string
	GeocodeURL  string
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// HTTPCacheConfig tunes the read-through response cache for GET endpoints.
type HTTPCacheConfig struct {
	Enabled bool
	TTL     time.Duration
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
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Reminders = RemindersConfig{
		Enabled:           v.GetBool("ENABLE_REMINDERS"),
		Cadence:           parseDuration(v.GetString("REMINDER_CADENCE"), time.Minute),
		WorkerConcurrency: v.GetInt("REMINDER_WORKER_CONCURRENCY"),
	}

	cfg.Push = PushConfig{
		GatewayURL: v.GetString("PUSH_GATEWAY_URL"),
		APIKey:     v.GetString("PUSH_GATEWAY_API_KEY"),
		Timeout:    parseDuration(v.GetString("PUSH_GATEWAY_TIMEOUT"), 10*time.Second),
		BatchSize:  v.GetInt("PUSH_BATCH_SIZE"),
	}

	cfg.Weather = WeatherConfig{
		Enabled:     v.GetBool("ENABLE_WEATHER"),
		ForecastURL: v.GetString("WEATHER_FORECAST_URL"),
		GeocodeURL:  v.GetString("WEATHER_GEOCODE_URL"),
		Timeout:     parseDuration(v.GetString("WEATHER_TIMEOUT"), 5*time.Second),
		CacheTTL:    parseDuration(v.GetString("WEATHER_CACHE_TTL"), 30*time.Minute),
	}

	cfg.HTTPCache = HTTPCacheConfig{
		Enabled: v.GetBool("ENABLE_HTTP_CACHE"),
		TTL:     parseDuration(v.GetString("HTTP_CACHE_TTL"), 5*time.Minute),
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
	v.SetDefault("DB_NAME", "planzaa")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "planzaa-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_REMINDERS", true)
	v.SetDefault("REMINDER_CADENCE", "60s")
	v.SetDefault("REMINDER_WORKER_CONCURRENCY", 4)

	v.SetDefault("PUSH_GATEWAY_URL", "https://exp.host/--/api/v2/push/send")
	v.SetDefault("PUSH_GATEWAY_API_KEY", "")
	v.SetDefault("PUSH_GATEWAY_TIMEOUT", "10s")
	v.SetDefault("PUSH_BATCH_SIZE", 100)

	v.SetDefault("ENABLE_WEATHER", false)
	v.SetDefault("WEATHER_FORECAST_URL", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("WEATHER_GEOCODE_URL", "https://geocoding-api.open-meteo.com/v1/search")
	v.SetDefault("WEATHER_TIMEOUT", "5s")
	v.SetDefault("WEATHER_CACHE_TTL", "30m")

	v.SetDefault("ENABLE_HTTP_CACHE", false)
	v.SetDefault("HTTP_CACHE_TTL", "5m")
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
