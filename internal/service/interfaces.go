package service

import (
	"context"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, username, password string) (*domain.Principal, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, tokenID string) error
	LogoutAll(ctx context.Context, username string) (int64, error)
	DeletePrincipal(ctx context.Context, username string) error
	SetScopes(ctx context.Context, username string, names []string) (domain.Scope, error)
}

var (
	_ AuthServiceInterface = (*AuthService)(nil)
	_ Authenticator        = (*SessionAuthenticator)(nil)
	_ Authenticator        = (*FederatedAuthenticator)(nil)
	_ Authorizer           = ScopeAuthorizer{}
	_ RevocationLedger     = (*InMemoryLedger)(nil)
	_ RevocationLedger     = (*RedisLedger)(nil)
)
