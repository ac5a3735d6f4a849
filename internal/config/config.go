// Application configuration, read from environment variables only.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

// Config is the root configuration.
type Config struct {
	App      App
	Server   Server
	Postgres Postgres
	Redis    Redis
	Security Security
	Storage  Storage
	Cache    Cache
	Ledger   Ledger
}

type App struct {
	Env     string `env:"APP_ENV" env-default:"production"`
	Version string `env:"APP_VERSION" env-default:"dev"`
}

// IsLocal reports whether the service runs on a developer machine.
func (a App) IsLocal() bool { return a.Env == "local" }

// Server holds the HTTP port and timeouts.
type Server struct {
	Port            int             `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout     durationSeconds `env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    durationSeconds `env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout durationSeconds `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// Postgres holds the DSN and pool limits.
type Postgres struct {
	DSN             string          `env:"POSTGRES_DSN" env-required:"true"`
	MaxConns        int32           `env:"POSTGRES_MAX_CONNS" env-default:"25"`
	MinConns        int32           `env:"POSTGRES_MIN_CONNS" env-default:"2"`
	MaxConnLifetime durationSeconds `env:"POSTGRES_MAX_CONN_LIFETIME" env-default:"1h"`
	MaxConnIdleTime durationSeconds `env:"POSTGRES_MAX_CONN_IDLE_TIME" env-default:"30m"`
	ConnectTimeout  durationSeconds `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"5s"`
	AutoMigrate     bool            `env:"POSTGRES_AUTO_MIGRATE" env-default:"true"`
}

// Redis is optional: an empty Addr disables rate limiting, refresh revocation and caching.
type Redis struct {
	Addr         string          `env:"REDIS_ADDR" env-default:""`
	Password     string          `env:"REDIS_PASSWORD" env-default:""`
	DB           int             `env:"REDIS_DB" env-default:"0"`
	PoolSize     int             `env:"REDIS_POOL_SIZE" env-default:"10"`
	MinIdleConns int             `env:"REDIS_MIN_IDLE" env-default:"2"`
	DialTimeout  durationSeconds `env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  durationSeconds `env:"REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout durationSeconds `env:"REDIS_WRITE_TIMEOUT" env-default:"3s"`
}

// Enabled reports whether a Redis address is configured.
func (r Redis) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

// Security holds JWT settings, request limits and the bootstrap admin.
type Security struct {
	JWTSecret       string          `env:"JWT_SECRET" env-required:"true"`
	AccessTTL       durationSeconds `env:"JWT_ACCESS_TTL" env-default:"15m"`
	RefreshTTL      durationSeconds `env:"JWT_REFRESH_TTL" env-default:"168h"`
	RateLimitRPS    int             `env:"RATE_LIMIT_RPS" env-default:"50"`
	LoginRateLimit  int             `env:"LOGIN_RATE_LIMIT" env-default:"5"`
	LoginRateWindow durationSeconds `env:"LOGIN_RATE_WINDOW" env-default:"15m"`
	CORSOrigins     []string        `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	AdminEmail      string          `env:"BOOTSTRAP_ADMIN_EMAIL" env-default:""`
	AdminPassword   string          `env:"BOOTSTRAP_ADMIN_PASSWORD" env-default:""`
	AdminName       string          `env:"BOOTSTRAP_ADMIN_NAME" env-default:"System Administrator"`
}

// Storage is the root folder for uploaded documents and generated reports.
type Storage struct {
	Root          string `env:"STORAGE_PATH" env-default:"storage"`
	MaxUploadSize int64  `env:"STORAGE_MAX_UPLOAD_BYTES" env-default:"20971520"`
}

type Cache struct {
	DashboardTTL durationSeconds `env:"CACHE_DASHBOARD_TTL" env-default:"60"`
}

// Ledger holds default rates applied when a project does not set its own.
type Ledger struct {
	DefaultVATRate        string `env:"LEDGER_DEFAULT_VAT_RATE" env-default:"20"`
	DefaultCommissionRate string `env:"LEDGER_DEFAULT_COMMISSION_RATE" env-default:"15"`
}

// VATRate parses DefaultVATRate.
func (l Ledger) VATRate() decimal.Decimal {
	return decimal.RequireFromString(l.DefaultVATRate)
}

// CommissionRate parses DefaultCommissionRate.
func (l Ledger) CommissionRate() decimal.Decimal {
	return decimal.RequireFromString(l.DefaultCommissionRate)
}

// Load reads the configuration from the environment; JWT_SECRET and POSTGRES_DSN are required.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Security.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	for name, raw := range map[string]string{
		"LEDGER_DEFAULT_VAT_RATE":        c.Ledger.DefaultVATRate,
		"LEDGER_DEFAULT_COMMISSION_RATE": c.Ledger.DefaultCommissionRate,
	} {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%s must be between 0 and 100", name)
		}
	}
	if (c.Security.AdminEmail == "") != (c.Security.AdminPassword == "") {
		return fmt.Errorf("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return nil
}

// durationSeconds parses env as time.Duration: "10s", "5m" or a bare number of seconds.
type durationSeconds time.Duration

// SetValue implements cleanenv.Setter.
func (d *durationSeconds) SetValue(data string) error {
	v, err := parseDuration(data)
	if err != nil {
		return err
	}
	*d = durationSeconds(v)
	return nil
}

func (d durationSeconds) Duration() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}
