package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minJWTSecretBytes = 32

// AuthMode selects how bearer credentials are verified.
type AuthMode string

const (
	AuthModeSession   AuthMode = "session"
	AuthModeFederated AuthMode = "federated"
)

func (m *AuthMode) UnmarshalText(text []byte) error {
	v := AuthMode(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case AuthModeSession, AuthModeFederated:
		*m = v
		return nil
	default:
		return fmt.Errorf("invalid AUTH_MODE %q (valid options: session, federated)", string(text))
	}
}

// LedgerBackend selects where issued token ids are tracked.
type LedgerBackend string

const (
	LedgerBackendDatabase LedgerBackend = "database"
	LedgerBackendRedis    LedgerBackend = "redis"
	LedgerBackendMemory   LedgerBackend = "memory"
)

func (b *LedgerBackend) UnmarshalText(text []byte) error {
	v := LedgerBackend(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case LedgerBackendDatabase, LedgerBackendRedis, LedgerBackendMemory:
		*b = v
		return nil
	default:
		return fmt.Errorf("invalid LEDGER_BACKEND %q (valid options: database, redis, memory)", string(text))
	}
}

type Config struct {
	AppEnv            string        `env:"APP_ENV"             envDefault:"development"`
	HTTPAddr          string        `env:"HTTP_ADDR"           envDefault:":8080"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	MaxBodyBytes      int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
	LogLevel          string        `env:"LOG_LEVEL"           envDefault:"info"`

	BackendURL    string        `env:"BACKEND_URL"`
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenLifetime time.Duration `env:"TOKEN_LIFETIME" envDefault:"15m"`
	BcryptCost    int           `env:"BCRYPT_COST"    envDefault:"13"`

	AuthMode            AuthMode `env:"AUTH_MODE"             envDefault:"session"`
	AuthAllowSIDHeader  bool     `env:"AUTH_ALLOW_SID_HEADER" envDefault:"false"`
	SessionCookieSecure bool     `env:"SESSION_COOKIE_SECURE" envDefault:"true"`

	OIDCIssuerURL     string        `env:"OIDC_ISSUER_URL"`
	OIDCJWKSURL       string        `env:"OIDC_JWKS_URL"`
	OIDCClientID      string        `env:"OIDC_CLIENT_ID"`
	OIDCVerifyTimeout time.Duration `env:"OIDC_VERIFY_TIMEOUT" envDefault:"5s"`

	DBDriver    string `env:"DB_DRIVER"    envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`

	LedgerBackend      LedgerBackend `env:"LEDGER_BACKEND"       envDefault:"database"`
	LedgerReapInterval time.Duration `env:"LEDGER_REAP_INTERVAL" envDefault:"1m"`

	RedisEnabled   bool   `env:"REDIS_ENABLED"    envDefault:"false"`
	RedisAddr      string `env:"REDIS_ADDR"       envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB"         envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"hackathon"`

	AuthRateLimitRPM  int           `env:"AUTH_RATE_LIMIT_RPM" envDefault:"30"`
	APIRateLimitRPM   int           `env:"API_RATE_LIMIT_RPM"  envDefault:"300"`
	NegativeLookupTTL time.Duration `env:"NEGATIVE_LOOKUP_TTL" envDefault:"30s"`

	HealthProbeTimeout time.Duration `env:"HEALTH_PROBE_TIMEOUT" envDefault:"1s"`

	OTELServiceName           string        `env:"OTEL_SERVICE_NAME"                envDefault:"hackathon-backend"`
	OTELEnvironment           string        `env:"OTEL_ENVIRONMENT"                 envDefault:"development"`
	OTELExporterOTLPEndpoint  string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"      envDefault:"localhost:4317"`
	OTELExporterOTLPInsecure  bool          `env:"OTEL_EXPORTER_OTLP_INSECURE"      envDefault:"true"`
	OTELMetricsEnabled        bool          `env:"OTEL_METRICS_ENABLED"             envDefault:"false"`
	OTELTracingEnabled        bool          `env:"OTEL_TRACING_ENABLED"             envDefault:"false"`
	OTELLogsEnabled           bool          `env:"OTEL_LOGS_ENABLED"                envDefault:"false"`
	OTELMetricsExportInterval time.Duration `env:"OTEL_METRICS_EXPORT_INTERVAL"     envDefault:"15s"`
	OTELTraceSamplingRatio    float64       `env:"OTEL_TRACE_SAMPLING_RATIO"        envDefault:"1.0"`

	ShutdownTimeout              time.Duration `env:"SHUTDOWN_TIMEOUT"               envDefault:"20s"`
	ShutdownHTTPDrainTimeout     time.Duration `env:"SHUTDOWN_HTTP_DRAIN_TIMEOUT"    envDefault:"10s"`
	ShutdownObservabilityTimeout time.Duration `env:"SHUTDOWN_OBSERVABILITY_TIMEOUT" envDefault:"5s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}
	return Parse(nil)
}

// Parse builds a Config from environ, or from the process environment when
// environ is nil, and validates it.
func Parse(environ map[string]string) (*Config, error) {
	var cfg Config
	err := env.ParseWithOptions(&cfg, env.Options{Environment: environ})
	if err != nil {
		err = fmt.Errorf("parse config: %w", err)
	} else {
		err = cfg.Validate()
	}
	recordConfigLoad(context.Background(), &cfg, err)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.BackendURL) == "" {
		problems = append(problems, "BACKEND_URL is required")
	} else if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "BACKEND_URL must be an absolute URL")
	}
	if len(c.JWTSecret) < minJWTSecretBytes {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d bytes", minJWTSecretBytes))
	}
	if c.TokenLifetime <= 0 {
		problems = append(problems, "TOKEN_LIFETIME must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		problems = append(problems, "BCRYPT_COST must be between 4 and 31")
	}
	if c.AuthMode == AuthModeFederated && strings.TrimSpace(c.OIDCIssuerURL) == "" {
		problems = append(problems, "OIDC_ISSUER_URL is required when AUTH_MODE=federated")
	}
	if c.OIDCVerifyTimeout <= 0 {
		problems = append(problems, "OIDC_VERIFY_TIMEOUT must be positive")
	}
	if c.AuthAllowSIDHeader && c.IsProduction() {
		problems = append(problems, "AUTH_ALLOW_SID_HEADER must be false in production")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, "DB_DRIVER must be postgres or sqlite")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.LedgerBackend == LedgerBackendRedis && !c.RedisEnabled {
		problems = append(problems, "LEDGER_BACKEND=redis requires REDIS_ENABLED=true")
	}
	if c.LedgerReapInterval <= 0 {
		problems = append(problems, "LEDGER_REAP_INTERVAL must be positive")
	}
	if c.AuthRateLimitRPM <= 0 || c.APIRateLimitRPM <= 0 {
		problems = append(problems, "rate limits must be positive")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		problems = append(problems, "OTEL_TRACE_SAMPLING_RATIO must be within [0,1]")
	}

	if len(problems) > 0 {
		return fmt.Errorf("validate config: %s", strings.Join(problems, "; "))
	}
	return nil
}
