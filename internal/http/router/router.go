package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/health"
	"github.com/sandeepkv93/hackathon-backend/internal/http/handler"
	"github.com/sandeepkv93/hackathon-backend/internal/http/middleware"
	"github.com/sandeepkv93/hackathon-backend/internal/http/response"
	"github.com/sandeepkv93/hackathon-backend/internal/service"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	PrincipalHandler *handler.PrincipalHandler
	EventHandler     *handler.EventHandler
	SponsorHandler   *handler.SponsorHandler
	TeamHandler      *handler.TeamHandler
	HackerHandler    *handler.HackerHandler
	Authenticator    service.Authenticator
	Authorizer       service.Authorizer
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	// RateLimitBackend is shared by both limiters; nil selects the in-process
	// limiter.
	RateLimitBackend  middleware.Limiter
	GlobalRateLimiter GlobalRateLimiterFunc
	AuthRateLimiter   AuthRateLimiterFunc
	MaxBodyBytes      int64
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	maxBody := dep.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	failMode := middleware.FailClosed
	if dep.RateLimitBackend != nil {
		failMode = middleware.FailOpen
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(maxBody))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.RateLimitBackend, middleware.PerMinute(dep.APIRateLimitRPM), failMode, "api").Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.RateLimitBackend, middleware.PerMinute(dep.AuthRateLimitRPM), middleware.FailClosed, "auth").Middleware()
	}

	authn := middleware.Authenticate(dep.Authenticator)
	scope := func(names ...string) func(http.Handler) http.Handler {
		return middleware.RequireScope(dep.Authorizer, domain.MustScopes(names...))
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(authn).Post("/logout", dep.AuthHandler.Logout)
			r.With(authn).Post("/logout-all", dep.AuthHandler.LogoutAll)
			r.With(authn).Get("/me", dep.AuthHandler.Me)
		})

		r.Route("/principals/{username}", func(r chi.Router) {
			r.Use(authn)
			r.Delete("/", dep.PrincipalHandler.Delete)
			r.With(scope("User_Manage")).Put("/scopes", dep.PrincipalHandler.SetScopes)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", dep.EventHandler.List)
			r.With(authn, scope("Event_Create")).Post("/", dep.EventHandler.Create)
			r.With(authn, scope("Event_Update")).Put("/{name}", dep.EventHandler.Update)
		})

		r.Route("/sponsors", func(r chi.Router) {
			r.Use(authn)
			r.With(scope("Sponsor_Read")).Get("/", dep.SponsorHandler.List)
			r.With(scope("Sponsor_Create")).Post("/", dep.SponsorHandler.Create)
		})

		r.Route("/hackers", func(r chi.Router) {
			r.Use(authn)
			r.Post("/", dep.HackerHandler.Create)
			r.With(scope("Hacker_Read")).Get("/", dep.HackerHandler.List)
			r.With(scope("Hacker_Read")).Get("/{username}", dep.HackerHandler.Get)
			r.With(scope("Hacker_Accept")).Put("/{username}/accept", dep.HackerHandler.Accept)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Use(authn)
			r.Post("/", dep.TeamHandler.Create)
			r.Get("/{name}", dep.TeamHandler.Get)
			r.Delete("/{name}/members/{username}", dep.TeamHandler.RemoveMember)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
