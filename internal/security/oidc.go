package security

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const defaultFederatedTimeout = 5 * time.Second

// FederatedConfig describes the identity provider whose tokens are accepted
// in bearer mode.
type FederatedConfig struct {
	IssuerURL  string
	JWKSURL    string
	ClientID   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Now        func() time.Time
}

// FederatedClaims is the verified subset of an IdP-issued token.
type FederatedClaims struct {
	Subject   string
	Issuer    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Scopes    []string
}

// FederatedVerifier checks IdP tokens against the provider's published key
// set. Keys are fetched by kid and cached by the remote key set.
type FederatedVerifier struct {
	verifier *gooidc.IDTokenVerifier
	timeout  time.Duration
}

func NewFederatedVerifier(cfg FederatedConfig) (*FederatedVerifier, error) {
	if strings.TrimSpace(cfg.IssuerURL) == "" {
		return nil, errors.New("oidc issuer URL is required")
	}
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if jwksURL == "" {
		jwksURL = strings.TrimSuffix(cfg.IssuerURL, "/") + "/.well-known/jwks.json"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFederatedTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	// The remote key set fetches with the client stored under oauth2.HTTPClient.
	keyCtx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
	keySet := gooidc.NewRemoteKeySet(keyCtx, jwksURL)
	return NewFederatedVerifierWithKeySet(cfg, keySet), nil
}

func NewFederatedVerifierWithKeySet(cfg FederatedConfig, keySet gooidc.KeySet) *FederatedVerifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFederatedTimeout
	}
	return &FederatedVerifier{
		verifier: gooidc.NewVerifier(cfg.IssuerURL, keySet, &gooidc.Config{
			ClientID:          cfg.ClientID,
			SkipClientIDCheck: cfg.ClientID == "",
			Now:               cfg.Now,
		}),
		timeout: timeout,
	}
}

type federatedScopeClaims struct {
	ID    string   `json:"jti"`
	Scp   any      `json:"scp"`
	Scope string   `json:"scope"`
	Roles []string `json:"roles"`
}

// Verify fails closed: any error obtaining key material, including timeout,
// comes back as ErrInvalidToken.
func (v *FederatedVerifier) Verify(ctx context.Context, raw string) (*FederatedClaims, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	idTok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		var expired *gooidc.TokenExpiredError
		if errors.As(err, &expired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(idTok.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	var extra federatedScopeClaims
	if err := idTok.Claims(&extra); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %v", ErrInvalidToken, err)
	}
	return &FederatedClaims{
		Subject:   idTok.Subject,
		Issuer:    idTok.Issuer,
		TokenID:   extra.ID,
		IssuedAt:  idTok.IssuedAt,
		ExpiresAt: idTok.Expiry,
		Scopes:    collectScopeNames(extra),
	}, nil
}

func collectScopeNames(c federatedScopeClaims) []string {
	var out []string
	switch scp := c.Scp.(type) {
	case string:
		out = append(out, strings.Fields(scp)...)
	case []any:
		for _, v := range scp {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	out = append(out, strings.Fields(c.Scope)...)
	out = append(out, c.Roles...)
	return out
}
