package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application settings
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Mail         MailConfig         `mapstructure:"mail"`
	Log          LogConfig          `mapstructure:"log"`
	Report       ReportConfig       `mapstructure:"report"`
	TP           TPConfig           `mapstructure:"tp"`
	ErrorTracker ErrorTrackerConfig `mapstructure:"errortracker"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
	// MaxUploadMB caps multipart import uploads
	MaxUploadMB int64 `mapstructure:"max_upload_mb"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string      `mapstructure:"allow_origins"`
	MaxAge       time.Duration `mapstructure:"max_age"`
}

// DatabaseConfig PostgreSQL settings
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig redis settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig token and password settings
type AuthConfig struct {
	JWTSecret               string        `mapstructure:"jwt_secret"`
	AccessTokenTTL          time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTLDefault  time.Duration `mapstructure:"refresh_token_ttl_default"`
	RefreshTokenTTLRemember time.Duration `mapstructure:"refresh_token_ttl_remember_me"`
	OTPTTL                  time.Duration `mapstructure:"otp_ttl"`
	OTPMaxAttempts          int           `mapstructure:"otp_max_attempts"`
	EnforceFirstLogin       bool          `mapstructure:"enforce_first_login"`
}

// MailConfig outgoing mail settings
type MailConfig struct {
	Provider   string `mapstructure:"provider"` // "sendgrid" | "log"
	APIKey     string `mapstructure:"api_key"`
	From       string `mapstructure:"from"`
	FromName   string `mapstructure:"from_name"`
	AdminEmail string `mapstructure:"admin_email"`
}

// LogConfig logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReportConfig PDF report settings
type ReportConfig struct {
	Institution string `mapstructure:"institution"`
	Title       string `mapstructure:"title"`
}

// TPConfig teaching practice workflow settings
type TPConfig struct {
	ClassStart      string `mapstructure:"class_start"` // HH:MM local
	ClassEnd        string `mapstructure:"class_end"`
	LetterReuseDays int    `mapstructure:"letter_reuse_days"`
	Location        string `mapstructure:"location"` // IANA zone for the class window
}

// ErrorTrackerConfig rollbar settings; an empty token disables reporting
type ErrorTrackerConfig struct {
	Token       string `mapstructure:"token"`
	Environment string `mapstructure:"environment"`
	CodeVersion string `mapstructure:"code_version"`
}

// Load reads settings from .env, an optional config file and the environment.
// Precedence: environment > config file > defaults.
func Load(path string) (*Config, error) {
	// .env only seeds the process environment; a missing file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.cors.max_age", 12*time.Hour)
	v.SetDefault("server.max_upload_mb", 10)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "kise_results")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Africa/Nairobi")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl_default", "24h")
	v.SetDefault("auth.refresh_token_ttl_remember_me", "168h")
	v.SetDefault("auth.otp_ttl", "15m")
	v.SetDefault("auth.otp_max_attempts", 5)
	v.SetDefault("auth.enforce_first_login", true)

	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.from", "no-reply@kise.ac.ke")
	v.SetDefault("mail.from_name", "KISE Results")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("report.institution", "Kenya Institute of Special Education")
	v.SetDefault("report.title", "Teaching Practice Assessment Report")

	v.SetDefault("tp.class_start", "08:00")
	v.SetDefault("tp.class_end", "17:00")
	v.SetDefault("tp.letter_reuse_days", 4)
	v.SetDefault("tp.location", "Africa/Nairobi")

	v.SetDefault("errortracker.environment", "development")

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("KISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("invalid config: auth.jwt_secret must be set")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("invalid config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	switch c.Mail.Provider {
	case "log":
	case "sendgrid":
		if c.Mail.APIKey == "" {
			return fmt.Errorf("invalid config: mail.api_key is required for the sendgrid provider")
		}
	default:
		return fmt.Errorf("invalid config: unknown mail.provider %q", c.Mail.Provider)
	}
	if _, err := time.Parse("15:04", c.TP.ClassStart); err != nil {
		return fmt.Errorf("invalid config: tp.class_start: %w", err)
	}
	if _, err := time.Parse("15:04", c.TP.ClassEnd); err != nil {
		return fmt.Errorf("invalid config: tp.class_end: %w", err)
	}
	return nil
}
