package config

import (
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/hunt")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_API_KEY", "admin-key")
}

func TestParseDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.ListenAddr != ":5200" {
		t.Fatalf("ListenAddr = %q, want %q", cfg.ListenAddr, ":5200")
	}
	if cfg.OTP.TTL != 10*time.Minute {
		t.Fatalf("OTP.TTL = %v, want %v", cfg.OTP.TTL, 10*time.Minute)
	}
	if cfg.OTP.Cooldown != 2*time.Minute {
		t.Fatalf("OTP.Cooldown = %v, want %v", cfg.OTP.Cooldown, 2*time.Minute)
	}
	if cfg.OTP.MaxAttempts != 5 {
		t.Fatalf("OTP.MaxAttempts = %d, want 5", cfg.OTP.MaxAttempts)
	}
	if cfg.JWT.ExpiresIn != 7*24*time.Hour {
		t.Fatalf("JWT.ExpiresIn = %v, want 168h", cfg.JWT.ExpiresIn)
	}
	if cfg.HintCredits != 3 {
		t.Fatalf("HintCredits = %d, want 3", cfg.HintCredits)
	}
	if cfg.SMS.Provider != SMSProviderLog {
		t.Fatalf("SMS.Provider = %q, want %q", cfg.SMS.Provider, SMSProviderLog)
	}
	if cfg.R2.Enabled() {
		t.Fatal("R2 should be disabled without a bucket")
	}
}

func TestValidateRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hunt")
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("Validate() = %v, want JWT_SECRET error", err)
	}
}

func TestValidateMongoDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "mongo")
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "MONGO_URI") {
		t.Fatalf("Validate() = %v, want MONGO_URI error", err)
	}
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	cfg, _ = env.ParseAs[Config]()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateHTTPSMSProviderNeedsURL(t *testing.T) {
	setRequired(t)
	t.Setenv("SMS_PROVIDER", "http")
	cfg, _ := env.ParseAs[Config]()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for http provider without gateway url")
	}
}

func TestAllowedOriginsHeaderTrims(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , https://b.example,, ")
	cfg, _ := env.ParseAs[Config]()
	if got, want := cfg.AllowedOriginsHeader(), "https://a.example,https://b.example"; got != want {
		t.Fatalf("AllowedOriginsHeader() = %q, want %q", got, want)
	}
}
