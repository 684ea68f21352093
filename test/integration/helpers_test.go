package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/hackathon-backend/internal/health"
	"github.com/sandeepkv93/hackathon-backend/internal/http/handler"
	"github.com/sandeepkv93/hackathon-backend/internal/http/router"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
	"github.com/sandeepkv93/hackathon-backend/internal/security"
	"github.com/sandeepkv93/hackathon-backend/internal/service"
)

const tokenLifetime = 15 * time.Minute

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testServer struct {
	baseURL string
	client  *http.Client
	clock   *testClock
	ledger  *service.InMemoryLedger
	auth    *service.AuthService
}

// newTestServer assembles the full router over sqlite and the in-memory
// ledger, sharing one controllable clock between the codec and the ledger.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := "file:it_" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}
	codec := security.NewTokenCodec(security.TokenConfig{
		Issuer: "https://api.hackathon.test/",
		Secret: strings.Repeat("k", 32),
		Now:    clock.Now,
	})
	ledger := service.NewInMemoryLedger(tokenLifetime, service.WithLedgerClock(clock.Now))
	principals := repository.NewPrincipalRepository(db)
	teams := repository.NewTeamRepository(db)
	lookup := service.NewPrincipalLookup(principals, service.NewInMemoryMissCache(0), time.Minute)
	tokens := service.NewTokenService(codec, ledger, tokenLifetime)
	auth := service.NewAuthService(principals, teams, lookup, security.NewBcryptHasher(bcrypt.MinCost), tokens)
	authz := service.NewScopeAuthorizer()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	h := router.NewRouter(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(auth, false),
		PrincipalHandler: handler.NewPrincipalHandler(auth, authz, false),
		EventHandler:     handler.NewEventHandler(repository.NewEventRepository(db)),
		SponsorHandler:   handler.NewSponsorHandler(repository.NewSponsorRepository(db)),
		TeamHandler:      handler.NewTeamHandler(teams, principals, authz),
		HackerHandler:    handler.NewHackerHandler(repository.NewHackerRepository(db), authz),
		Authenticator:    service.NewSessionAuthenticator(codec, ledger, lookup, false),
		Authorizer:       authz,
		AuthRateLimitRPM: 1000,
		APIRateLimitRPM:  1000,
		Readiness:        health.NewProbeRunner(time.Second, 0, health.NewDBChecker(db)),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		_ = sqlDB.Close()
	})
	return &testServer{baseURL: srv.URL, client: srv.Client(), clock: clock, ledger: ledger, auth: auth}
}

func (s *testServer) doJSON(t *testing.T, method, path string, body any, token string) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, s.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp, env
}

func (s *testServer) register(t *testing.T, username, password string) {
	t.Helper()
	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username,
		"password": password,
	}, "")
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("register %s: status=%d env=%+v", username, resp.StatusCode, env)
	}
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("login %s: status=%d env=%+v", username, resp.StatusCode, env)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if data.Token == "" {
		t.Fatal("expected token in login response")
	}
	return data.Token
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func errorMessage(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Message
}
