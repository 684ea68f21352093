package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sandeepkv93/hackathon-backend/internal/app"
	"github.com/sandeepkv93/hackathon-backend/internal/config"
	"github.com/sandeepkv93/hackathon-backend/internal/database"
	"github.com/sandeepkv93/hackathon-backend/internal/health"
	"github.com/sandeepkv93/hackathon-backend/internal/http/handler"
	"github.com/sandeepkv93/hackathon-backend/internal/http/middleware"
	"github.com/sandeepkv93/hackathon-backend/internal/http/router"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
	"github.com/sandeepkv93/hackathon-backend/internal/security"
	"github.com/sandeepkv93/hackathon-backend/internal/service"

	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const readinessCacheTTL = 2 * time.Second

func provideDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, func(), error) {
	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := database.Close(db); err != nil {
			logger.Error("close database", "error", err)
		}
	}, nil
}

//nolint:ireturn // nil when redis is disabled.
func provideRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	client, err := database.OpenRedis(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		if client != nil {
			_ = client.Close()
		}
	}, nil
}

func provideObservability(ctx context.Context, cfg *config.Config, logger *slog.Logger, lp *sdklog.LoggerProvider) (*observability.Runtime, error) {
	return observability.InitRuntime(ctx, cfg, logger, lp)
}

//nolint:ireturn
func provideLedger(cfg *config.Config, db *gorm.DB, rdb redis.UniversalClient) (service.RevocationLedger, error) {
	switch cfg.LedgerBackend {
	case config.LedgerBackendDatabase:
		return repository.NewTokenLedgerRepository(db), nil
	case config.LedgerBackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("ledger backend %q requires redis", cfg.LedgerBackend)
		}
		return service.NewRedisLedger(rdb, cfg.RedisKeyPrefix+":ledger", cfg.TokenLifetime), nil
	case config.LedgerBackendMemory:
		return service.NewInMemoryLedger(cfg.TokenLifetime), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

//nolint:ireturn
func provideMissCache(cfg *config.Config, rdb redis.UniversalClient) service.MissCache {
	if rdb != nil {
		return service.NewRedisMissCache(rdb, cfg.RedisKeyPrefix+":neg")
	}
	return service.NewInMemoryMissCache(0)
}

func provideTokenCodec(cfg *config.Config) *security.TokenCodec {
	return security.NewTokenCodec(security.TokenConfig{Issuer: cfg.BackendURL, Secret: cfg.JWTSecret})
}

func provideTokenService(cfg *config.Config, codec *security.TokenCodec, ledger service.RevocationLedger) *service.TokenService {
	return service.NewTokenService(codec, ledger, cfg.TokenLifetime)
}

func providePrincipalLookup(cfg *config.Config, principals repository.PrincipalRepository, misses service.MissCache) *service.PrincipalLookup {
	return service.NewPrincipalLookup(principals, misses, cfg.NegativeLookupTTL)
}

//nolint:ireturn
func providePasswordHasher(cfg *config.Config) security.PasswordHasher {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return security.NewBcryptHasher(cost)
}

//nolint:ireturn
func provideAuthenticator(
	cfg *config.Config,
	codec *security.TokenCodec,
	ledger service.RevocationLedger,
	lookup *service.PrincipalLookup,
) (service.Authenticator, error) {
	if cfg.AuthMode != config.AuthModeFederated {
		return service.NewSessionAuthenticator(codec, ledger, lookup, cfg.AuthAllowSIDHeader), nil
	}
	verifier, err := security.NewFederatedVerifier(security.FederatedConfig{
		IssuerURL: cfg.OIDCIssuerURL,
		JWKSURL:   cfg.OIDCJWKSURL,
		ClientID:  cfg.OIDCClientID,
		Timeout:   cfg.OIDCVerifyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("federated verifier: %w", err)
	}
	return service.NewFederatedAuthenticator(verifier, lookup), nil
}

//nolint:ireturn
func provideAuthorizer() service.Authorizer {
	return service.NewScopeAuthorizer()
}

func provideAuthHandler(cfg *config.Config, auth service.AuthServiceInterface) *handler.AuthHandler {
	return handler.NewAuthHandler(auth, cfg.SessionCookieSecure)
}

func providePrincipalHandler(cfg *config.Config, auth service.AuthServiceInterface, authz service.Authorizer) *handler.PrincipalHandler {
	return handler.NewPrincipalHandler(auth, authz, cfg.SessionCookieSecure)
}

//nolint:ireturn // nil selects the in-process limiter.
func provideRateLimitBackend(cfg *config.Config, rdb redis.UniversalClient) middleware.Limiter {
	if rdb == nil {
		return nil
	}
	return middleware.NewRedisFixedWindowLimiter(rdb, cfg.RedisKeyPrefix+":rl")
}

func provideReadiness(cfg *config.Config, db *gorm.DB, rdb redis.UniversalClient) *health.ProbeRunner {
	checkers := []health.Checker{health.NewDBChecker(db)}
	if rdb != nil {
		checkers = append(checkers, health.NewRedisChecker(rdb))
	}
	return health.NewProbeRunner(cfg.HealthProbeTimeout, readinessCacheTTL, checkers...)
}

func provideRouterDependencies(
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	principalHandler *handler.PrincipalHandler,
	eventHandler *handler.EventHandler,
	sponsorHandler *handler.SponsorHandler,
	teamHandler *handler.TeamHandler,
	hackerHandler *handler.HackerHandler,
	authn service.Authenticator,
	authz service.Authorizer,
	limiter middleware.Limiter,
	readiness *health.ProbeRunner,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:      authHandler,
		PrincipalHandler: principalHandler,
		EventHandler:     eventHandler,
		SponsorHandler:   sponsorHandler,
		TeamHandler:      teamHandler,
		HackerHandler:    hackerHandler,
		Authenticator:    authn,
		Authorizer:       authz,
		AuthRateLimitRPM: cfg.AuthRateLimitRPM,
		APIRateLimitRPM:  cfg.APIRateLimitRPM,
		RateLimitBackend: limiter,
		MaxBodyBytes:     cfg.MaxBodyBytes,
		Readiness:        readiness,
		EnableOTelHTTP:   cfg.OTELTracingEnabled || cfg.OTELMetricsEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, dep router.Dependencies) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.NewRouter(dep),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func provideLedgerReaper(cfg *config.Config, ledger service.RevocationLedger, logger *slog.Logger) *service.LedgerReaper {
	return service.NewLedgerReaper(ledger, string(cfg.LedgerBackend), cfg.LedgerReapInterval, cfg.TokenLifetime, logger)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	reaper *service.LedgerReaper,
	readiness *health.ProbeRunner,
) *app.App {
	var task app.BackgroundTask
	// Redis entries expire natively; the reaper would only tick.
	if cfg.LedgerBackend != config.LedgerBackendRedis {
		task = reaper
	}
	return app.New(cfg, logger, server, runtime, task, readiness)
}
