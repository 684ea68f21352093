package service

import (
	"context"
	"errors"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
)

var ErrForbidden = errors.New("insufficient scope")

type Authorizer interface {
	Require(ctx context.Context, id *Identity, required domain.Scope) error
}

// ScopeAuthorizer grants access when the caller holds any one of the
// required scopes. A zero requirement only demands authentication.
type ScopeAuthorizer struct{}

func NewScopeAuthorizer() *ScopeAuthorizer { return &ScopeAuthorizer{} }

func (ScopeAuthorizer) Require(ctx context.Context, id *Identity, required domain.Scope) error {
	if id == nil {
		observability.RecordAuthorizationDecision(ctx, "unauthenticated")
		return ErrNotSignedIn
	}
	if required.IsZero() || id.Scopes.Intersects(required) {
		observability.RecordAuthorizationDecision(ctx, "allowed")
		return nil
	}
	observability.RecordAuthorizationDecision(ctx, "denied")
	return ErrForbidden
}
