package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
	"github.com/sandeepkv93/hackathon-backend/internal/security"
)

var (
	ErrNotSignedIn        = errors.New("not signed in")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrPrincipalGone      = errors.New("account not found")
	ErrTokenOwnerMismatch = errors.New("token owner mismatch")
)

const (
	ModeSession   = "session"
	ModeFederated = "federated"

	sidHeader = "sid"
)

// Identity is the authenticated caller bound to a request.
type Identity struct {
	Principal *domain.Principal
	Subject   string
	TokenID   string
	ExpiresAt time.Time
	Scopes    domain.Scope
	Mode      string
}

type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)
}

// FederatedTokenVerifier is satisfied by *security.FederatedVerifier.
type FederatedTokenVerifier interface {
	Verify(ctx context.Context, raw string) (*security.FederatedClaims, error)
}

// SessionAuthenticator accepts tokens minted by this service and checks
// them against the revocation ledger.
type SessionAuthenticator struct {
	codec          *security.TokenCodec
	ledger         RevocationLedger
	principals     *PrincipalLookup
	allowSIDHeader bool
}

func NewSessionAuthenticator(codec *security.TokenCodec, ledger RevocationLedger, principals *PrincipalLookup, allowSIDHeader bool) *SessionAuthenticator {
	return &SessionAuthenticator{
		codec:          codec,
		ledger:         ledger,
		principals:     principals,
		allowSIDHeader: allowSIDHeader,
	}
}

func (a *SessionAuthenticator) Authenticate(ctx context.Context, r *http.Request) (id *Identity, err error) {
	ctx, span := observability.Tracer().Start(ctx, "auth.authenticate")
	span.SetAttributes(attribute.String("auth.mode", ModeSession))
	defer func() { finishAuthSpan(ctx, span, ModeSession, err) }()

	raw := a.extract(r)
	if raw == "" {
		return nil, ErrNotSignedIn
	}
	claims, err := a.codec.Verify(raw)
	if err != nil {
		return nil, err
	}
	active, err := a.ledger.IsActive(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token liveness: %w", err)
	}
	if !active {
		// A deleted principal's entries are gone with it; report the
		// account rather than the session.
		if _, lookupErr := a.principals.Find(ctx, claims.Subject); errors.Is(lookupErr, repository.ErrPrincipalNotFound) {
			return nil, ErrPrincipalGone
		}
		return nil, ErrSessionRevoked
	}
	rec, err := a.ledger.Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrTokenRecordNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("load ledger entry: %w", err)
	}
	if rec.Owner != claims.Subject {
		return nil, ErrTokenOwnerMismatch
	}
	p, err := a.principals.Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrPrincipalNotFound) {
			return nil, ErrPrincipalGone
		}
		return nil, fmt.Errorf("load principal: %w", err)
	}
	return &Identity{
		Principal: p,
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		Scopes:    p.Scopes,
		Mode:      ModeSession,
	}, nil
}

func (a *SessionAuthenticator) extract(r *http.Request) string {
	if raw := security.GetCookie(r, security.SessionCookieName); raw != "" {
		return raw
	}
	if a.allowSIDHeader {
		if raw := strings.TrimSpace(r.Header.Get(sidHeader)); raw != "" {
			return raw
		}
	}
	return security.BearerToken(r)
}

// FederatedAuthenticator accepts bearer tokens issued by an external
// identity provider. There is no ledger: the IdP owns token lifetime.
type FederatedAuthenticator struct {
	verifier   FederatedTokenVerifier
	principals *PrincipalLookup
}

func NewFederatedAuthenticator(verifier FederatedTokenVerifier, principals *PrincipalLookup) *FederatedAuthenticator {
	return &FederatedAuthenticator{verifier: verifier, principals: principals}
}

func (a *FederatedAuthenticator) Authenticate(ctx context.Context, r *http.Request) (id *Identity, err error) {
	ctx, span := observability.Tracer().Start(ctx, "auth.authenticate")
	span.SetAttributes(attribute.String("auth.mode", ModeFederated))
	defer func() { finishAuthSpan(ctx, span, ModeFederated, err) }()

	raw := security.BearerToken(r)
	if raw == "" {
		return nil, ErrNotSignedIn
	}
	claims, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return nil, security.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", security.ErrInvalidToken, err)
	}
	p, err := a.principals.Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrPrincipalNotFound) {
			return nil, ErrPrincipalGone
		}
		return nil, fmt.Errorf("load principal: %w", err)
	}
	scopes := p.Scopes
	for _, name := range claims.Scopes {
		if s, parseErr := domain.ParseScope(name); parseErr == nil {
			scopes = scopes.Union(s)
		}
	}
	return &Identity{
		Principal: p,
		Subject:   claims.Subject,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
		Scopes:    scopes,
		Mode:      ModeFederated,
	}, nil
}

// AuthOutcome names the result of an authentication attempt for metrics.
func AuthOutcome(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, ErrNotSignedIn):
		return "missing"
	case errors.Is(err, security.ErrExpiredToken):
		return "expired"
	case errors.Is(err, security.ErrInvalidToken):
		return "invalid"
	case errors.Is(err, ErrSessionRevoked):
		return "revoked"
	case errors.Is(err, ErrPrincipalGone):
		return "principal_gone"
	case errors.Is(err, ErrTokenOwnerMismatch):
		return "owner_mismatch"
	default:
		return "error"
	}
}

func finishAuthSpan(ctx context.Context, span trace.Span, mode string, err error) {
	outcome := AuthOutcome(err)
	observability.RecordTokenValidation(ctx, mode, outcome)
	span.SetAttributes(attribute.String("auth.outcome", outcome))
	if outcome == "error" {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
