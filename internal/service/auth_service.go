package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
	"github.com/sandeepkv93/hackathon-backend/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidUsername    = errors.New("username must be 3-64 characters of letters, digits, '.', '_' or '-'")
	ErrInvalidPassword    = errors.New("password must be 8-72 bytes")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{3,64}$`)

const (
	minPasswordBytes = 8
	maxPasswordBytes = 72
)

type LoginResult struct {
	Principal *domain.Principal
	Token     *IssuedToken
}

type AuthService struct {
	principals    repository.PrincipalRepository
	teams         repository.TeamRepository
	lookup        *PrincipalLookup
	hasher        security.PasswordHasher
	tokens        *TokenService
	defaultScopes domain.Scope

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	principals repository.PrincipalRepository,
	teams repository.TeamRepository,
	lookup *PrincipalLookup,
	hasher security.PasswordHasher,
	tokens *TokenService,
) *AuthService {
	return &AuthService{
		principals:    principals,
		teams:         teams,
		lookup:        lookup,
		hasher:        hasher,
		tokens:        tokens,
		defaultScopes: domain.RoleHacker,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.Principal, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if len(password) < minPasswordBytes || len(password) > maxPasswordBytes {
		return nil, ErrInvalidPassword
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	p := &domain.Principal{Username: username, PasswordHash: hash, Scopes: s.defaultScopes}
	if err := s.principals.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrPrincipalExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	s.lookup.Forget(ctx, p.Username)
	return p, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	p, err := s.principals.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrPrincipalNotFound) {
			// Spend a hash comparison anyway so unknown usernames are not
			// distinguishable by latency.
			_ = s.hasher.Verify(s.dummyPasswordHash(), password)
			observability.RecordAuthLogin(ctx, "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		observability.RecordAuthLogin(ctx, "error")
		return nil, err
	}
	if err := s.hasher.Verify(p.PasswordHash, password); err != nil {
		observability.RecordAuthLogin(ctx, "invalid_credentials")
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}
	tok, err := s.tokens.Issue(ctx, p.Username)
	if err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return nil, err
	}
	if err := s.confirmStillPresent(ctx, p, tok); err != nil {
		return nil, err
	}
	observability.RecordAuthLogin(ctx, "success")
	return &LoginResult{Principal: p, Token: tok}, nil
}

// confirmStillPresent re-reads the principal after its token is recorded.
// If the account was deleted, or deleted and re-registered, while the login
// was in flight, the new token is revoked and the login fails.
func (s *AuthService) confirmStillPresent(ctx context.Context, p *domain.Principal, tok *IssuedToken) error {
	current, err := s.principals.FindByUsername(ctx, p.Username)
	if err == nil && current.ID == p.ID {
		return nil
	}
	var revokeErr error
	if errors.Is(err, repository.ErrPrincipalNotFound) {
		_, revokeErr = s.tokens.RevokeAll(ctx, p.Username)
	} else {
		revokeErr = s.tokens.Revoke(ctx, tok.TokenID)
	}
	if revokeErr != nil {
		observability.RecordAuthLogin(ctx, "error")
		return fmt.Errorf("revoke orphaned token: %w", revokeErr)
	}
	if err != nil && !errors.Is(err, repository.ErrPrincipalNotFound) {
		observability.RecordAuthLogin(ctx, "error")
		return err
	}
	observability.RecordAuthLogin(ctx, "invalid_credentials")
	return ErrInvalidCredentials
}

func (s *AuthService) Logout(ctx context.Context, tokenID string) error {
	if err := s.tokens.Revoke(ctx, tokenID); err != nil {
		observability.RecordAuthLogout(ctx, "single", "error")
		return err
	}
	observability.RecordAuthLogout(ctx, "single", "success")
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, username string) (int64, error) {
	n, err := s.tokens.RevokeAll(ctx, username)
	if err != nil {
		observability.RecordAuthLogout(ctx, "all", "error")
		return n, err
	}
	observability.RecordAuthLogout(ctx, "all", "success")
	return n, nil
}

// DeletePrincipal removes the row first so no new login can succeed, then
// drops memberships and every ledger entry. A login that recorded its token
// before the row went away is caught by RevokeAll; one that records after
// fails its own post-issue check in Login.
func (s *AuthService) DeletePrincipal(ctx context.Context, username string) error {
	delErr := s.principals.DeleteByUsername(ctx, username)
	if delErr != nil && !errors.Is(delErr, repository.ErrPrincipalNotFound) {
		return delErr
	}
	if s.teams != nil {
		if _, err := s.teams.RemoveMemberships(ctx, username); err != nil {
			return fmt.Errorf("remove memberships: %w", err)
		}
	}
	if _, err := s.tokens.RevokeAll(ctx, username); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return delErr
}

func (s *AuthService) SetScopes(ctx context.Context, username string, names []string) (domain.Scope, error) {
	scopes, err := domain.ParseScopes(names)
	if err != nil {
		return domain.ScopeNone, err
	}
	if err := s.principals.UpdateScopes(ctx, username, scopes); err != nil {
		return domain.ScopeNone, err
	}
	return scopes, nil
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
