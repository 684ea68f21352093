package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type Claims struct {
	jwt.RegisteredClaims
}

// TokenConfig is the secret material and issuer a TokenCodec signs with.
type TokenConfig struct {
	Issuer string
	Secret string
	Now    func() time.Time
}

// TokenCodec signs and verifies HS256 session tokens.
type TokenCodec struct {
	issuer string
	secret []byte
	now    func() time.Time
}

func NewTokenCodec(cfg TokenConfig) *TokenCodec {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{
		issuer: cfg.Issuer,
		secret: []byte(cfg.Secret),
		now:    now,
	}
}

func (c *TokenCodec) Issuer() string { return c.issuer }

// Issue builds and signs a token for subject. Recording the jti is the
// caller's job.
func (c *TokenCodec) Issue(subject string, lifetime time.Duration) (string, *Claims, error) {
	if strings.TrimSpace(subject) == "" {
		return "", nil, errors.New("token subject is required")
	}
	if lifetime <= 0 {
		return "", nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}
	now := c.now().UTC().Truncate(time.Second)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := c.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Encode signs an arbitrary claim set without touching it.
func (c *TokenCodec) Encode(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature before looking at any claim, then requires all
// of exp, iat, jti, sub and iss.
func (c *TokenCodec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	tok, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing algorithm")
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat", ErrInvalidToken)
	}
	if claims.Issuer == "" {
		return nil, fmt.Errorf("%w: missing iss", ErrInvalidToken)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	if strings.TrimSpace(claims.ID) == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}
	return claims, nil
}
