package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	CORS          CORSConfig          `yaml:"cors"`
	Redis         RedisConfig         `yaml:"redis"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Photos        PhotosConfig        `yaml:"photos"`
	Log           LogConfig           `yaml:"log"`
	Environment   string              `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                   int    `yaml:"port"`
	Host                   string `yaml:"host"`
	ReadHeaderTimeoutSecs  int    `yaml:"read_header_timeout_seconds"`
	IdleTimeoutSecs        int    `yaml:"idle_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// ReadHeaderTimeout bounds how long a client may take to send headers.
func (c ServerConfig) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.ReadHeaderTimeoutSecs) * time.Second
}

// IdleTimeout bounds keep-alive idle connections.
func (c ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSecs) * time.Second
}

// DatabaseConfig holds the Postgres pool settings.
type DatabaseConfig struct {
	URL                string `yaml:"url"`
	SSL                bool   `yaml:"ssl"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMin int    `yaml:"conn_max_lifetime_minutes"`
}

// ConnMaxLifetime returns the configured connection lifetime as a duration
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMin) * time.Minute
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// TokenTTL returns the session token lifetime.
func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// CORSConfig holds the browser origin allow-list.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RedisConfig holds the optional Redis connection. An empty URL disables
// cross-replica fan-out and the reminder lock.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// Enabled reports whether a Redis URL is configured.
func (c RedisConfig) Enabled() bool { return c.URL != "" }

// NotificationsConfig holds the notification bus and daily reminder settings.
type NotificationsConfig struct {
	Channel         string `yaml:"channel"`
	ReminderEnabled bool   `yaml:"reminder_enabled"`
	ReminderTime    string `yaml:"reminder_time"` // HH:MM
	Timezone        string `yaml:"timezone"`
	ReminderMessage string `yaml:"reminder_message"`
	ObserverBuffer  int    `yaml:"observer_buffer"`
}

// ReminderClock parses ReminderTime into hour and minute.
func (c NotificationsConfig) ReminderClock() (hour, minute int, err error) {
	m := clockRe.FindStringSubmatch(c.ReminderTime)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid reminder_time %q: want HH:MM", c.ReminderTime)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// PhotosConfig holds profile-image storage settings
type PhotosConfig struct {
	Backend    string `yaml:"backend"` // "local" or "s3"
	Dir        string `yaml:"dir"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	S3Prefix   string `yaml:"s3_prefix"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxWidthPx int    `yaml:"max_width_px"`
}

// MaxBytes returns the upload limit in bytes.
func (c PhotosConfig) MaxBytes() int64 {
	return int64(c.MaxSizeMB) << 20
}

// LogConfig holds logger settings
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII bool   `yaml:"redact_pii"`
}

var defaultOrigins = []string{
	"https://mava-connect.onrender.com",
	"http://localhost:5173",
}

// Load reads and parses the configuration file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Config{Log: LogConfig{RedactPII: true}, Notifications: NotificationsConfig{ReminderEnabled: true}}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.ReadHeaderTimeoutSecs == 0 {
		cfg.Server.ReadHeaderTimeoutSecs = 10
	}
	if cfg.Server.IdleTimeoutSecs == 0 {
		cfg.Server.IdleTimeoutSecs = 120
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 15
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMin == 0 {
		cfg.Database.ConnMaxLifetimeMin = 30
	}
	if cfg.Auth.TokenTTLHours == 0 {
		cfg.Auth.TokenTTLHours = 24
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = append([]string(nil), defaultOrigins...)
	}
	if cfg.Notifications.Channel == "" {
		cfg.Notifications.Channel = "mava:notifications"
	}
	if cfg.Notifications.ReminderTime == "" {
		cfg.Notifications.ReminderTime = "09:00"
	}
	if cfg.Notifications.Timezone == "" {
		cfg.Notifications.Timezone = "America/Sao_Paulo"
	}
	if cfg.Notifications.ReminderMessage == "" {
		cfg.Notifications.ReminderMessage = "Lembrete diário: verifique os visitantes pendentes de contato."
	}
	if cfg.Notifications.ObserverBuffer == 0 {
		cfg.Notifications.ObserverBuffer = 16
	}
	if cfg.Photos.Backend == "" {
		cfg.Photos.Backend = "local"
	}
	if cfg.Photos.Dir == "" {
		cfg.Photos.Dir = "fotos"
	}
	if cfg.Photos.S3Prefix == "" {
		cfg.Photos.S3Prefix = "fotos/"
	}
	if cfg.Photos.MaxSizeMB == 0 {
		cfg.Photos.MaxSizeMB = 5
	}
	if cfg.Photos.MaxWidthPx == 0 {
		cfg.Photos.MaxWidthPx = 512
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DATABASE_SSL"); v != "" {
		cfg.Database.SSL = v == "true" || v == "1"
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TOKEN_TTL_HOURS: %w", err)
		}
		cfg.Auth.TokenTTLHours = hours
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("REMINDER_TIME"); v != "" {
		cfg.Notifications.ReminderTime = v
	}
	if v := os.Getenv("REMINDER_TIMEZONE"); v != "" {
		cfg.Notifications.Timezone = v
	}
	if v := os.Getenv("REMINDER_MESSAGE"); v != "" {
		cfg.Notifications.ReminderMessage = v
	}
	if v := os.Getenv("PHOTOS_BACKEND"); v != "" {
		cfg.Photos.Backend = v
	}
	if v := os.Getenv("PHOTOS_DIR"); v != "" {
		cfg.Photos.Dir = v
	}
	if v := os.Getenv("PHOTOS_S3_BUCKET"); v != "" {
		cfg.Photos.S3Bucket = v
	}
	if v := os.Getenv("PHOTOS_S3_REGION"); v != "" {
		cfg.Photos.S3Region = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database url is required (DATABASE_URL)"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required (JWT_SECRET)"))
	}
	if c.Auth.TokenTTLHours <= 0 {
		errs = append(errs, errors.New("token_ttl_hours must be positive"))
	}
	if _, _, err := c.Notifications.ReminderClock(); err != nil {
		errs = append(errs, err)
	}
	if _, err := time.LoadLocation(c.Notifications.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("unknown timezone %q: %w", c.Notifications.Timezone, err))
	}
	switch c.Photos.Backend {
	case "local":
	case "s3":
		if c.Photos.S3Bucket == "" {
			errs = append(errs, errors.New("photos s3 backend requires s3_bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown photos backend %q", c.Photos.Backend))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the process runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
