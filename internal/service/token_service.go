package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/hackathon-backend/internal/security"
)

// IssuedToken is a signed session token together with the claims that were
// recorded in the ledger.
type IssuedToken struct {
	Token     string
	TokenID   string
	Subject   string
	ExpiresAt time.Time
}

type TokenService struct {
	codec    *security.TokenCodec
	ledger   RevocationLedger
	lifetime time.Duration
}

func NewTokenService(codec *security.TokenCodec, ledger RevocationLedger, lifetime time.Duration) *TokenService {
	return &TokenService{codec: codec, ledger: ledger, lifetime: lifetime}
}

func (s *TokenService) Lifetime() time.Duration { return s.lifetime }

// Issue signs a token for subject and records its jti. A jti collision is
// retried once with a fresh id before giving up.
func (s *TokenService) Issue(ctx context.Context, subject string) (*IssuedToken, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, claims, err := s.codec.Issue(subject, s.lifetime)
		if err != nil {
			return nil, fmt.Errorf("sign token: %w", err)
		}
		err = s.ledger.Record(ctx, claims.ID, subject)
		if err == nil {
			return &IssuedToken{
				Token:     raw,
				TokenID:   claims.ID,
				Subject:   subject,
				ExpiresAt: claims.ExpiresAt.Time,
			}, nil
		}
		if !errors.Is(err, ErrTokenIDConflict) {
			return nil, fmt.Errorf("record token: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("record token: %w", lastErr)
}

func (s *TokenService) Revoke(ctx context.Context, tokenID string) error {
	return s.ledger.Revoke(ctx, tokenID)
}

func (s *TokenService) RevokeAll(ctx context.Context, owner string) (int64, error) {
	return s.ledger.RevokeAll(ctx, owner)
}
