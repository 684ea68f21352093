package di

import (
	"github.com/google/wire"

	"github.com/sandeepkv93/hackathon-backend/internal/http/handler"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
	"github.com/sandeepkv93/hackathon-backend/internal/service"
)

var storeSet = wire.NewSet(
	provideDB,
	provideRedis,
	repository.NewPrincipalRepository,
	repository.NewEventRepository,
	repository.NewSponsorRepository,
	repository.NewTeamRepository,
	repository.NewHackerRepository,
	provideLedger,
	provideMissCache,
)

var authSet = wire.NewSet(
	provideTokenCodec,
	provideTokenService,
	providePrincipalLookup,
	providePasswordHasher,
	service.NewAuthService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	provideAuthenticator,
	provideAuthorizer,
)

var httpSet = wire.NewSet(
	provideAuthHandler,
	providePrincipalHandler,
	handler.NewEventHandler,
	handler.NewSponsorHandler,
	handler.NewTeamHandler,
	handler.NewHackerHandler,
	provideRateLimitBackend,
	provideReadiness,
	provideRouterDependencies,
	provideHTTPServer,
)
