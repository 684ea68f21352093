package config

import (
	"strings"
	"testing"
	"time"
)

func validEnv() map[string]string {
	return map[string]string{
		"BACKEND_URL":  "https://api.hackathon.test/",
		"JWT_SECRET":   strings.Repeat("s", 32),
		"DATABASE_URL": "file::memory:",
		"DB_DRIVER":    "sqlite",
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(validEnv())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.TokenLifetime != 15*time.Minute {
		t.Fatalf("token lifetime=%s want 15m", cfg.TokenLifetime)
	}
	if cfg.BcryptCost != 13 {
		t.Fatalf("bcrypt cost=%d want 13", cfg.BcryptCost)
	}
	if cfg.AuthMode != AuthModeSession {
		t.Fatalf("auth mode=%q want session", cfg.AuthMode)
	}
	if cfg.LedgerBackend != LedgerBackendDatabase {
		t.Fatalf("ledger backend=%q want database", cfg.LedgerBackend)
	}
	if cfg.AuthAllowSIDHeader {
		t.Fatal("sid header fallback must default to off")
	}
	if !cfg.SessionCookieSecure {
		t.Fatal("session cookie must default to secure")
	}
	if cfg.OIDCVerifyTimeout != 5*time.Second {
		t.Fatalf("oidc timeout=%s want 5s", cfg.OIDCVerifyTimeout)
	}
}

func TestParseModes(t *testing.T) {
	env := validEnv()
	env["AUTH_MODE"] = "FEDERATED"
	env["OIDC_ISSUER_URL"] = "https://idp.test/"
	env["LEDGER_BACKEND"] = "redis"
	env["REDIS_ENABLED"] = "true"
	cfg, err := Parse(env)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.AuthMode != AuthModeFederated || cfg.LedgerBackend != LedgerBackendRedis {
		t.Fatalf("unexpected modes: %q %q", cfg.AuthMode, cfg.LedgerBackend)
	}
}

func TestParseRejectsUnknownEnum(t *testing.T) {
	env := validEnv()
	env["AUTH_MODE"] = "magic"
	_, err := Parse(env)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if got := classifyConfigLoadError(err); got != "parse" {
		t.Fatalf("error class=%q want parse (%v)", got, err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(map[string]string)
		wantErr string
	}{
		{name: "missing backend url", mutate: func(e map[string]string) { delete(e, "BACKEND_URL") }, wantErr: "BACKEND_URL is required"},
		{name: "relative backend url", mutate: func(e map[string]string) { e["BACKEND_URL"] = "/api" }, wantErr: "BACKEND_URL must be an absolute URL"},
		{name: "short secret", mutate: func(e map[string]string) { e["JWT_SECRET"] = "short" }, wantErr: "JWT_SECRET must be at least 32 bytes"},
		{name: "zero lifetime", mutate: func(e map[string]string) { e["TOKEN_LIFETIME"] = "0s" }, wantErr: "TOKEN_LIFETIME must be positive"},
		{name: "bcrypt cost", mutate: func(e map[string]string) { e["BCRYPT_COST"] = "2" }, wantErr: "BCRYPT_COST"},
		{name: "federated without issuer", mutate: func(e map[string]string) { e["AUTH_MODE"] = "federated" }, wantErr: "OIDC_ISSUER_URL is required"},
		{name: "sid header in production", mutate: func(e map[string]string) {
			e["APP_ENV"] = "production"
			e["AUTH_ALLOW_SID_HEADER"] = "true"
		}, wantErr: "AUTH_ALLOW_SID_HEADER must be false in production"},
		{name: "unknown driver", mutate: func(e map[string]string) { e["DB_DRIVER"] = "mysql" }, wantErr: "DB_DRIVER"},
		{name: "missing database url", mutate: func(e map[string]string) { delete(e, "DATABASE_URL") }, wantErr: "DATABASE_URL is required"},
		{name: "redis ledger without redis", mutate: func(e map[string]string) { e["LEDGER_BACKEND"] = "redis" }, wantErr: "requires REDIS_ENABLED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := validEnv()
			tc.mutate(env)
			_, err := Parse(env)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.HasPrefix(err.Error(), "validate config:") {
				t.Fatalf("expected validate config prefix, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}
