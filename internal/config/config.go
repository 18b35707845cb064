package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or a .env file loaded by the process).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	Lookup    LookupConfig
	Reconcile ReconcileConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
}

type AppConfig struct {
	Env  string
	Port int

	// MaxUploadBytes bounds one multipart reconcile request.
	MaxUploadBytes int64
}

type LookupConfig struct {
	// TablesPath is the classifier tables YAML (regions, countries, emergency).
	TablesPath string
	// RatesPath is the client jobs YAML carrying rates. Optional: without it nothing is billed.
	RatesPath string
}

type ReconcileConfig struct {
	// MaxConcurrentPerClient caps simultaneous runs per client (needs redis).
	MaxConcurrentPerClient int
	// CacheTTL is how long a finalized result is served for identical uploads.
	CacheTTL time.Duration
	// SlotTTL frees a run slot whose holder died without releasing it.
	SlotTTL time.Duration
}

// DBConfig is optional: when Host is empty the record archive and the Postgres
// audit trail are disabled.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional: when Host is empty there is no run cap and no cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func Load() (Config, error) {
	var (
		c Config
		e envReader
	)

	c.App.Env = e.str("APP_ENV")
	c.App.Port = e.requiredInt("APP_PORT")
	c.App.MaxUploadBytes = int64(e.optionalInt("APP_MAX_UPLOAD_MB", 32)) << 20

	c.Lookup.TablesPath = e.str("LOOKUP_TABLES_PATH")
	c.Lookup.RatesPath = e.str("RATES_PATH")

	c.Reconcile.MaxConcurrentPerClient = e.optionalInt("RECONCILE_MAX_CONCURRENT", 2)
	c.Reconcile.CacheTTL = e.optionalDuration("RECONCILE_CACHE_TTL")
	c.Reconcile.SlotTTL = e.optionalDuration("RECONCILE_SLOT_TTL")

	c.DB.Host = e.str("DB_HOST")
	if c.DB.Host != "" {
		c.DB.Port = e.requiredInt("DB_PORT")
	}
	c.DB.User = e.str("DB_USER")
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = e.str("DB_NAME")
	c.DB.SSLMode = e.str("DB_SSLMODE")

	c.Redis.Host = e.str("REDIS_HOST")
	if c.Redis.Host != "" {
		c.Redis.Port = e.requiredInt("REDIS_PORT")
	}
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = e.str("JWT_ISSUER")
	c.Auth.JWTAudience = e.str("JWT_AUDIENCE")
	// defaults applied in Validate
	c.Auth.AccessTokenTTL = e.optionalDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = e.optionalDuration("JWT_REFRESH_TTL")

	if err := joinErrors(e.errs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks c and fills in defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.MaxUploadBytes <= 0 {
		c.App.MaxUploadBytes = 32 << 20
	}

	if c.Lookup.TablesPath == "" {
		errs = append(errs, errors.New("LOOKUP_TABLES_PATH is required"))
	}

	if c.Reconcile.MaxConcurrentPerClient <= 0 {
		c.Reconcile.MaxConcurrentPerClient = 2
	}
	if c.Reconcile.CacheTTL <= 0 {
		c.Reconcile.CacheTTL = 15 * time.Minute
	}
	if c.Reconcile.SlotTTL <= 0 {
		c.Reconcile.SlotTTL = 10 * time.Minute
	}

	if c.DBEnabled() {
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
		}
		if strings.TrimSpace(c.DB.SSLMode) == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				// Local-friendly default; production must be explicit.
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}

	if c.RedisEnabled() && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	return joinErrors(errs)
}

func (c Config) DBEnabled() bool { return c.DB.Host != "" }
func (c Config) RedisEnabled() bool { return c.Redis.Host != "" }

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// envReader reads environment values and collects every parse failure, so one
// run of the process reports all misconfigured keys.
type envReader struct {
	errs []error
}

func (e *envReader) str(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (e *envReader) requiredInt(key string) int {
	v := e.str(key)
	if v == "" {
		e.errs = append(e.errs, fmt.Errorf("%s is required", key))
		return 0
	}
	return e.parseInt(key, v)
}

func (e *envReader) optionalInt(key string, def int) int {
	v := e.str(key)
	if v == "" {
		return def
	}
	return e.parseInt(key, v)
}

func (e *envReader) parseInt(key, v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n
}

// optionalDuration returns 0 when key is unset.
func (e *envReader) optionalDuration(key string) time.Duration {
	v := e.str(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s must be a duration (e.g. 15m), got %q", key, v))
	}
	return d
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
