package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string   `mapstructure:"PORT"`
	Env          string   `mapstructure:"ENV"`
	DatabaseURL  string   `mapstructure:"DATABASE_URL"`
	DBMaxConns   int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns   int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer   string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL  string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience string   `mapstructure:"AUTH_AUDIENCE"`
	DevJWTSecret string   `mapstructure:"DEV_JWT_SECRET"`
	CORSOrigins  []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// Workflow policy knobs.
	DirectorThreshold float64       `mapstructure:"DIRECTOR_APPROVAL_THRESHOLD"`
	DefaultMaxCycles  int           `mapstructure:"DEFAULT_MAX_CYCLES"`
	NegotiationTTL    time.Duration `mapstructure:"NEGOTIATION_TTL"`
	ExpirySweepEvery  time.Duration `mapstructure:"EXPIRY_SWEEP_EVERY"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("DIRECTOR_APPROVAL_THRESHOLD", 50000.0)
	v.SetDefault("DEFAULT_MAX_CYCLES", 3)
	v.SetDefault("NEGOTIATION_TTL", "720h")
	v.SetDefault("EXPIRY_SWEEP_EVERY", "1h")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "DEV_JWT_SECRET",
		"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"DIRECTOR_APPROVAL_THRESHOLD", "DEFAULT_MAX_CYCLES",
		"NEGOTIATION_TTL", "EXPIRY_SWEEP_EVERY",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; unauthenticated requests get super_admin.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a real JWT issuer (or an explicit JWKS URL) must be configured so role
// claims are actually verified.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" && c.AuthJWKSURL == "" && c.DevJWTSecret == "" {
		return fmt.Errorf("AUTH_ISSUER or AUTH_JWKS_URL must be set when ENV=%q; refusing to start without authentication", c.Env)
	}
	if c.IsProduction() && c.DevJWTSecret != "" {
		return fmt.Errorf("DEV_JWT_SECRET must not be set in production")
	}
	if c.DirectorThreshold < 0 {
		return fmt.Errorf("DIRECTOR_APPROVAL_THRESHOLD must not be negative")
	}
	if c.DefaultMaxCycles < 1 {
		return fmt.Errorf("DEFAULT_MAX_CYCLES must be at least 1")
	}
	if c.ExpirySweepEvery <= 0 {
		return fmt.Errorf("EXPIRY_SWEEP_EVERY must be positive")
	}
	return nil
}
