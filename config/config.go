// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"

	SMSProviderLog  = "log"
	SMSProviderHTTP = "http"
)

type Config struct {
	ListenAddr     string   `env:"LISTEN_ADDR" envDefault:":5200"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	ClientDir      string   `env:"CLIENT_DIR" envDefault:"./public"`
	CookieSecure   bool     `env:"COOKIE_SECURE" envDefault:"false"`
	AdminAPIKey    string   `env:"ADMIN_API_KEY"`
	VoucherPrefix  string   `env:"VOUCHER_PREFIX" envDefault:"TLB"`
	HintCredits    int      `env:"HINT_CREDITS" envDefault:"3"`

	Log       LogConfig
	Store     StoreConfig
	JWT       JWTConfig
	OTP       OTPConfig
	SMS       SMSConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	R2        R2Config
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"scavenger_hunt"`
}

type JWTConfig struct {
	Secret    string        `env:"JWT_SECRET"`
	ExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"168h"`
	Issuer    string        `env:"JWT_ISSUER" envDefault:"scavenger-hunt"`
	Audience  string        `env:"JWT_AUDIENCE" envDefault:"scavenger-hunt-client"`
}

type OTPConfig struct {
	TTL         time.Duration `env:"OTP_TTL" envDefault:"10m"`
	Cooldown    time.Duration `env:"OTP_COOLDOWN" envDefault:"2m"`
	MaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
	BcryptCost  int           `env:"OTP_BCRYPT_COST" envDefault:"10"`
}

type SMSConfig struct {
	Provider   string `env:"SMS_PROVIDER" envDefault:"log"`
	GatewayURL string `env:"SMS_GATEWAY_URL"`
	Token      string `env:"SMS_GATEWAY_TOKEN"`
	SenderID   string `env:"SMS_SENDER_ID" envDefault:"HUNT"`
}

type SessionConfig struct {
	MaxDuration   time.Duration `env:"SESSION_MAX_DURATION" envDefault:"4h"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
}

type RateLimitConfig struct {
	Max     int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	AuthMax int           `env:"AUTH_RATE_LIMIT_MAX" envDefault:"10"`
}

// R2Config holds Cloudflare R2 credentials. Exports are disabled when the
// bucket is unset.
type R2Config struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

func (c R2Config) Enabled() bool {
	return c.Bucket != "" && c.AccountID != ""
}

// Load reads an optional .env file and parses the environment into a Config.
// The returned bool reports whether a .env file was found.
func Load() (Config, bool, error) {
	foundDotEnv := godotenv.Load() == nil
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, foundDotEnv, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, foundDotEnv, err
	}
	return cfg, foundDotEnv, nil
}

// Validate checks required values for the selected drivers.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("missing DATABASE_URL environment variable")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("missing MONGO_URI environment variable")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("missing JWT_SECRET environment variable")
	}
	if c.AdminAPIKey == "" {
		return fmt.Errorf("missing ADMIN_API_KEY environment variable")
	}
	if c.OTP.MaxAttempts < 1 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive")
	}
	if c.HintCredits < 0 {
		return fmt.Errorf("HINT_CREDITS must not be negative")
	}

	switch c.SMS.Provider {
	case SMSProviderLog:
	case SMSProviderHTTP:
		if c.SMS.GatewayURL == "" {
			return fmt.Errorf("missing SMS_GATEWAY_URL environment variable")
		}
	default:
		return fmt.Errorf("unsupported SMS_PROVIDER %q", c.SMS.Provider)
	}
	return nil
}

// AllowedOriginsHeader joins the trimmed origins for Fiber's CORS config.
func (c Config) AllowedOriginsHeader() string {
	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return strings.Join(origins, ",")
}
