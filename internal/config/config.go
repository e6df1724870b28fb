package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string   `mapstructure:"PORT"`
	Env           string   `mapstructure:"ENV"`
	LogLevel      string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32    `mapstructure:"DB_MIN_CONNS"`
	DefaultTenant string   `mapstructure:"DEFAULT_TENANT"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	RedisURL      string   `mapstructure:"REDIS_URL"`
	AMQPURL       string   `mapstructure:"AMQP_URL"`
	AMQPExchange  string   `mapstructure:"AMQP_EXCHANGE"`
	TLSEnabled    bool     `mapstructure:"TLS_ENABLED"`
	TLSCertFile   string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile    string   `mapstructure:"TLS_KEY_FILE"`

	SchedulingTimezone    string        `mapstructure:"SCHEDULING_TIMEZONE"`
	SchedulingMinDuration time.Duration `mapstructure:"SCHEDULING_MIN_DURATION"`
	BookingLockTTL        time.Duration `mapstructure:"BOOKING_LOCK_TTL"`
	ProfessionalCacheTTL  time.Duration `mapstructure:"PROFESSIONAL_CACHE_TTL"`
	RequestTimeout        time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"DEFAULT_TENANT", "CORS_ORIGINS", "REDIS_URL", "AMQP_URL", "AMQP_EXCHANGE",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
	"SCHEDULING_TIMEZONE", "SCHEDULING_MIN_DURATION", "BOOKING_LOCK_TTL",
	"PROFESSIONAL_CACHE_TTL", "REQUEST_TIMEOUT",
}

// Load reads the environment, falling back to an optional .env file.
// Requirements are checked by Validate so offline commands can run without a
// database.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DEFAULT_TENANT", "main")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AMQP_EXCHANGE", "clinic.events")
	v.SetDefault("SCHEDULING_TIMEZONE", "UTC")
	v.SetDefault("SCHEDULING_MIN_DURATION", "15m")
	v.SetDefault("BOOKING_LOCK_TTL", "30s")
	v.SetDefault("PROFESSIONAL_CACHE_TTL", "5m")
	v.SetDefault("REQUEST_TIMEOUT", "15s")

	// Bind explicitly so Unmarshal sees variables without defaults.
	for _, k := range keys {
		v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location loads SCHEDULING_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.SchedulingTimezone)
	if err != nil {
		return nil, fmt.Errorf("SCHEDULING_TIMEZONE %q: %w", c.SchedulingTimezone, err)
	}
	return loc, nil
}

// ValidateScheduling checks the settings the scheduling rules depend on.
func (c *Config) ValidateScheduling() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.SchedulingMinDuration < time.Minute {
		return fmt.Errorf("SCHEDULING_MIN_DURATION must be at least 1m, got %s", c.SchedulingMinDuration)
	}
	return nil
}

// Validate checks that the server can start.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if err := c.ValidateScheduling(); err != nil {
		return err
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.BookingLockTTL <= 0 {
		return fmt.Errorf("BOOKING_LOCK_TTL must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	// A booking holds its lock for the whole request.
	if c.BookingLockTTL <= c.RequestTimeout {
		return fmt.Errorf("BOOKING_LOCK_TTL (%s) must exceed REQUEST_TIMEOUT (%s)", c.BookingLockTTL, c.RequestTimeout)
	}
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}
	return nil
}
