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

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Storage  StorageConfig
	Schedule ScheduleConfig
	Metrics  MetricsConfig
	Docs     DocsConfig
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

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects the key/value backend the planner persists to.
type StorageConfig struct {
	Driver    string
	Dir       string
	OpTimeout time.Duration
}

// ScheduleConfig tunes generation and status reconciliation.
type ScheduleConfig struct {
	PreserveDetails    bool
	PersistReconciled  bool
	AutoCompleteMissed bool
	TemplateFile       string
	ICSTimezone        string
	// CSVSeparator is the field separator of CSV week exports.
	CSVSeparator rune
	// RefreshInterval re-derives course statuses in the background; zero disables.
	RefreshInterval time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// DocsConfig toggles the Swagger UI.
type DocsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
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

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{
		Driver:    strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		Dir:       v.GetString("STORAGE_DIR"),
		OpTimeout: parseDuration(v.GetString("STORAGE_OP_TIMEOUT"), 5*time.Second),
	}

	cfg.Schedule = ScheduleConfig{
		PreserveDetails:    v.GetBool("SCHEDULE_PRESERVE_DETAILS"),
		PersistReconciled:  v.GetBool("SCHEDULE_PERSIST_RECONCILED"),
		AutoCompleteMissed: v.GetBool("SCHEDULE_AUTO_COMPLETE_MISSED"),
		TemplateFile:       v.GetString("SCHEDULE_TEMPLATE_FILE"),
		ICSTimezone:        v.GetString("SCHEDULE_ICS_TIMEZONE"),
		CSVSeparator:       parseSeparator(v.GetString("SCHEDULE_CSV_SEPARATOR")),
		RefreshInterval:    parseDuration(v.GetString("SCHEDULE_REFRESH_INTERVAL"), 0),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}
	cfg.Docs = DocsConfig{Enabled: v.GetBool("ENABLE_DOCS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "student_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("STORAGE_DIR", "./data")
	v.SetDefault("STORAGE_OP_TIMEOUT", "5s")

	v.SetDefault("SCHEDULE_PRESERVE_DETAILS", true)
	v.SetDefault("SCHEDULE_PERSIST_RECONCILED", true)
	v.SetDefault("SCHEDULE_AUTO_COMPLETE_MISSED", false)
	v.SetDefault("SCHEDULE_TEMPLATE_FILE", "")
	v.SetDefault("SCHEDULE_ICS_TIMEZONE", "Local")
	v.SetDefault("SCHEDULE_REFRESH_INTERVAL", "0")
	v.SetDefault("SCHEDULE_CSV_SEPARATOR", ",")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_DOCS", true)
}

// isMissingFile covers SetConfigFile, which reports a plain fs error instead
// of ConfigFileNotFoundError when .env is absent.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// parseSeparator accepts a single character or the word "tab".
func parseSeparator(raw string) rune {
	if strings.EqualFold(raw, "tab") {
		return '\t'
	}
	runes := []rune(raw)
	if len(runes) != 1 || runes[0] == '"' || runes[0] == '\n' || runes[0] == '\r' {
		return ','
	}
	return runes[0]
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
