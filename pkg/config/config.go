package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// State store backends.
const (
	StateBackendFile  = "file"
	StateBackendRedis = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream UpstreamConfig
	Redis    RedisConfig
	State    StateConfig
	CORS     CORSConfig
	Log      LogConfig
	Workflow WorkflowConfig
	Reports  ReportsConfig
}

// UpstreamConfig describes the attendance backend the client talks to.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StateConfig selects where the token, profile and session cache live.
type StateConfig struct {
	Backend         string
	Dir             string
	Secret          string
	SessionCacheTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// WorkflowConfig tunes attendance-taking workflows.
type WorkflowConfig struct {
	IdleTTL      time.Duration
	SessionSlots []string
}

// ReportsConfig tunes the student report view.
type ReportsConfig struct {
	DefaultWindow time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL: strings.TrimRight(v.GetString("API_URL"), "/"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 15*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("STATE_BACKEND")))
	if backend != StateBackendRedis {
		backend = StateBackendFile
	}
	cfg.State = StateConfig{
		Backend:         backend,
		Dir:             v.GetString("STATE_DIR"),
		Secret:          v.GetString("STATE_SECRET"),
		SessionCacheTTL: parseDuration(v.GetString("SESSION_CACHE_TTL"), 5*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	slots := splitAndTrim(v.GetString("SESSION_SLOTS"))
	if len(slots) == 0 {
		slots = []string{"1", "2", "3", "4", "5", "6", "7"}
	}
	cfg.Workflow = WorkflowConfig{
		IdleTTL:      parseDuration(v.GetString("WORKFLOW_TTL"), 2*time.Hour),
		SessionSlots: slots,
	}

	cfg.Reports = ReportsConfig{
		DefaultWindow: parseDuration(v.GetString("REPORT_WINDOW"), 15*24*time.Hour),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("API_URL", "http://localhost:5000")
	v.SetDefault("API_TIMEOUT", "15s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STATE_BACKEND", StateBackendFile)
	v.SetDefault("STATE_DIR", "./.attendance")
	v.SetDefault("STATE_SECRET", "dev_state_secret")
	v.SetDefault("SESSION_CACHE_TTL", "5m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("WORKFLOW_TTL", "2h")
	v.SetDefault("SESSION_SLOTS", "1,2,3,4,5,6,7")
	v.SetDefault("REPORT_WINDOW", "360h")
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
