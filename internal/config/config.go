package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Env           string   `env:"APP_ENV" env-default:"local" env-description:"local, dev or prod; selects the log format"`
	Port          string   `env:"PORT" env-default:"8080"`
	StorageDriver string   `env:"STORAGE_DRIVER" env-default:"postgres" env-description:"postgres or memory"`
	DatabaseURL   string   `env:"DATABASE_URL"`
	DBMaxConns    int32    `env:"DB_MAX_CONNS" env-default:"10"`
	JWTSecret     string   `env:"JWT_SECRET"`
	JWTIssuer     string   `env:"JWT_ISSUER" env-default:"payments-dashboard"`
	JWTTTLMinutes int      `env:"JWT_TTL_MINUTES" env-default:"60"`
	BcryptCost    int      `env:"BCRYPT_COST" env-default:"12"`
	AdminUsername string   `env:"ADMIN_USERNAME" env-default:"admin"`
	AdminPassword string   `env:"ADMIN_PASSWORD" env-default:"admin123"`
	MaxPageLimit  int      `env:"MAX_PAGE_LIMIT" env-default:"100"`
	StatsTimezone string   `env:"STATS_TIMEZONE" env-default:"UTC" env-description:"IANA zone for the today boundary and day grouping"`
	CORSOrigins   []string `env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)

	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTLMinutes <= 0 {
		c.JWTTTLMinutes = 60
	}
	if strings.TrimSpace(c.AdminUsername) == "" || c.AdminPassword == "" {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must not be empty")
	}

	c.StatsTimezone = strings.TrimSpace(c.StatsTimezone)
	if strings.EqualFold(c.StatsTimezone, "Local") {
		return errors.New("STATS_TIMEZONE must be an IANA zone name such as UTC or Asia/Kolkata")
	}
	if _, err := time.LoadLocation(c.StatsTimezone); err != nil {
		return fmt.Errorf("STATS_TIMEZONE: %w", err)
	}
	c.CORSOrigins = trimAll(c.CORSOrigins)
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// JWTTTL is the access token lifetime.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

// Location is the calendar zone for stats. Load has already checked the name,
// so a failure here only happens for a hand-built Config and falls back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StatsTimezone)
	if err != nil || loc == time.Local {
		return time.UTC
	}
	return loc
}

func trimAll(in []string) []string {
	var out []string
	for _, part := range in {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
