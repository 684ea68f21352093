package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/security"
)

func (f *authFixture) login(t *testing.T, username string) *IssuedToken {
	t.Helper()
	res, err := f.auth.Login(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return res.Token
}

func cookieRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: token})
	return r
}

func TestSessionAuthenticatorTransports(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice", domain.ScopeNone)
	tok := f.login(t, "alice")

	bearer := httptest.NewRequest(http.MethodGet, "/", nil)
	bearer.Header.Set("Authorization", "Bearer "+tok.Token)
	sid := httptest.NewRequest(http.MethodGet, "/", nil)
	sid.Header.Set("sid", tok.Token)

	strict := NewSessionAuthenticator(f.codec, f.ledger, f.lookup, false)
	lenient := NewSessionAuthenticator(f.codec, f.ledger, f.lookup, true)

	cases := []struct {
		name    string
		authn   *SessionAuthenticator
		req     *http.Request
		wantErr error
	}{
		{name: "cookie", authn: strict, req: cookieRequest(tok.Token)},
		{name: "bearer", authn: strict, req: bearer},
		{name: "sid header disabled", authn: strict, req: sid, wantErr: ErrNotSignedIn},
		{name: "sid header enabled", authn: lenient, req: sid},
		{name: "no credentials", authn: strict, req: httptest.NewRequest(http.MethodGet, "/", nil), wantErr: ErrNotSignedIn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := tc.authn.Authenticate(context.Background(), tc.req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("authenticate: %v", err)
			}
			if id.Subject != "alice" || id.TokenID != tok.TokenID || id.Mode != ModeSession {
				t.Fatalf("unexpected identity: %+v", id)
			}
			if id.Scopes != domain.RoleHacker {
				t.Fatalf("scopes=%s want %s", id.Scopes, domain.RoleHacker)
			}
		})
	}
}

func TestSessionAuthenticatorRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		f := newAuthFixture(t)
		authn := NewSessionAuthenticator(f.codec, f.ledger, f.lookup, false)
		_, err := authn.Authenticate(ctx, cookieRequest("not-a-token"))
		if !errors.Is(err, security.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "alice", domain.ScopeNone)
		tok := f.login(t, "alice")
		f.clock.Advance(15*time.Minute + time.Second)
		authn := NewSessionAuthenticator(f.codec, f.ledger, f.lookup, false)
		_, err := authn.Authenticate(ctx, cookieRequest(tok.Token))
		if !errors.Is(err, security.ErrExpiredToken) {
			t.Fatalf("expected ErrExpiredToken, got %v", err)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "alice", domain.ScopeNone)
		tok := f.login(t, "alice")
		if err := f.auth.Logout(ctx, tok.TokenID); err != nil {
			t.Fatalf("logout: %v", err)
		}
		authn := NewSessionAuthenticator(f.codec, f.ledger, f.lookup, false)
		_, err := authn.Authenticate(ctx, cookieRequest(tok.Token))
		if !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("principal deleted", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "alice", domain.ScopeNone)
		tok := f.login(t, "alice")
		if err := f.auth.DeletePrincipal(ctx, "alice"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		authn := NewSessionAuthenticator(f.codec, f.ledger, f.lookup, false)
		_, err := authn.Authenticate(ctx, cookieRequest(tok.Token))
		if !errors.Is(err, ErrPrincipalGone) {
			t.Fatalf("expected ErrPrincipalGone, got %v", err)
		}
	})

	t.Run("owner mismatch", func(t *testing.T) {
		f := newAuthFixture(t)
		f.register(t, "alice", domain.ScopeNone)
		f.register(t, "bob", domain.RoleAdmin)
		if err := f.ledger.Record(ctx, "forged-jti", "alice"); err != nil {
			t.Fatalf("record: %v", err)
		}
		now := f.clock.Now()
		raw, err := f.codec.Encode(&security.Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    f.codec.Issuer(),
			Subject:   "bob",
			ID:        "forged-jti",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		}})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		authn := NewSessionAuthenticator(f.codec, f.ledger, f.lookup, false)
		_, err = authn.Authenticate(ctx, cookieRequest(raw))
		if !errors.Is(err, ErrTokenOwnerMismatch) {
			t.Fatalf("expected ErrTokenOwnerMismatch, got %v", err)
		}
	})
}

func TestSessionAuthenticatorSeesScopeChanges(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "alice", domain.ScopeNone)
	tok := f.login(t, "alice")

	if _, err := f.auth.SetScopes(ctx, "alice", []string{"ADMIN"}); err != nil {
		t.Fatalf("set scopes: %v", err)
	}
	authn := NewSessionAuthenticator(f.codec, f.ledger, f.lookup, false)
	id, err := authn.Authenticate(ctx, cookieRequest(tok.Token))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.Scopes != domain.RoleAdmin {
		t.Fatalf("scopes=%s want ADMIN", id.Scopes)
	}
}

type stubFederatedVerifier struct {
	claims *security.FederatedClaims
	err    error
}

func (s stubFederatedVerifier) Verify(context.Context, string) (*security.FederatedClaims, error) {
	return s.claims, s.err
}

func bearerRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestFederatedAuthenticator(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice", domain.ScopeNone)
	ctx := context.Background()
	exp := f.clock.Now().Add(time.Hour)

	t.Run("merges claim scopes", func(t *testing.T) {
		authn := NewFederatedAuthenticator(stubFederatedVerifier{claims: &security.FederatedClaims{
			Subject:   "alice",
			TokenID:   "idp-1",
			ExpiresAt: exp,
			Scopes:    []string{"Event_Create", "openid"},
		}}, f.lookup)
		id, err := authn.Authenticate(ctx, bearerRequest("idp-token"))
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		want := domain.RoleHacker | domain.ScopeEventCreate
		if id.Scopes != want || id.Mode != ModeFederated || id.TokenID != "idp-1" {
			t.Fatalf("unexpected identity: %+v", id)
		}
	})

	cases := []struct {
		name    string
		req     *http.Request
		verify  stubFederatedVerifier
		wantErr error
	}{
		{name: "cookie only", req: cookieRequest("idp-token"), wantErr: ErrNotSignedIn},
		{name: "expired", req: bearerRequest("idp-token"), verify: stubFederatedVerifier{err: security.ErrExpiredToken}, wantErr: security.ErrExpiredToken},
		{name: "key fetch failure", req: bearerRequest("idp-token"), verify: stubFederatedVerifier{err: fmt.Errorf("%w: fetch keys: timeout", security.ErrInvalidToken)}, wantErr: security.ErrInvalidToken},
		{name: "unknown subject", req: bearerRequest("idp-token"), verify: stubFederatedVerifier{claims: &security.FederatedClaims{Subject: "stranger", ExpiresAt: exp}}, wantErr: ErrPrincipalGone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			authn := NewFederatedAuthenticator(tc.verify, f.lookup)
			_, err := authn.Authenticate(ctx, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAuthOutcome(t *testing.T) {
	cases := map[string]error{
		"valid":          nil,
		"missing":        ErrNotSignedIn,
		"expired":        security.ErrExpiredToken,
		"invalid":        fmt.Errorf("%w: bad signature", security.ErrInvalidToken),
		"revoked":        ErrSessionRevoked,
		"principal_gone": ErrPrincipalGone,
		"owner_mismatch": ErrTokenOwnerMismatch,
		"error":          errors.New("database down"),
	}
	for want, err := range cases {
		if got := AuthOutcome(err); got != want {
			t.Fatalf("AuthOutcome(%v)=%q want %q", err, got, want)
		}
	}
}
