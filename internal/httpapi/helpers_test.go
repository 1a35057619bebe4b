package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"todoManagement/internal/auth"
	"todoManagement/internal/config"
	"todoManagement/internal/db"
	"todoManagement/internal/testutil"
	"todoManagement/repository"
)

// captureMail records the last verification token sent to each address.
type captureMail struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *captureMail) SendVerification(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[email] = token
	return nil
}

func (m *captureMail) token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

type apiFixture struct {
	t       *testing.T
	db      *db.DB
	handler http.Handler
	codec   *auth.Codec
	users   *repository.UserRepository
	mail    *captureMail
	cfg     *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "Todo API", Version: "test"},
		HTTP: config.HTTPConfig{CORSOrigins: []string{"*"}},
		Auth: config.AuthConfig{
			JWTSecret:       "http-test-secret",
			JWTAlgorithm:    "HS256",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			VerificationTTL: 24 * time.Hour,
			BcryptCost:      bcrypt.MinCost,
		},
	}
}

func newAPI(t *testing.T, name string, opts ...func(*config.Config)) *apiFixture {
	t.Helper()
	return newAPIWithDB(t, testutil.OpenInMemoryDB(t, name), opts...)
}

func newAPIWithDB(t *testing.T, d *db.DB, opts ...func(*config.Config)) *apiFixture {
	t.Helper()
	cfg := testConfig()
	for _, o := range opts {
		o(cfg)
	}
	codec, err := auth.NewCodec(cfg.Auth)
	require.NoError(t, err)
	users := repository.NewUserRepository(d)
	mail := &captureMail{tokens: map[string]string{}}
	h := NewRouter(Deps{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Users:  users,
		Todos:  repository.NewTodoRepository(d),
		Hasher: auth.NewHasher(cfg.Auth.BcryptCost),
		Codec:  codec,
		Guard:  auth.NewGuard(codec, users),
		Mail:   mail,
	})
	return &apiFixture{t: t, db: d, handler: h, codec: codec, users: users, mail: mail, cfg: cfg}
}

// do sends a JSON request (body may be nil) with an optional bearer token.
func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(f.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	f.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// seed inserts a user with password "password123" and returns its id.
func (f *apiFixture) seed(s testutil.UserSeed) int64 {
	f.t.Helper()
	return testutil.SeedUser(f.t, f.db, s)
}

// login returns an access token for username/password123.
func (f *apiFixture) login(username string) string {
	f.t.Helper()
	return f.loginWith(username, "password123")
}

func (f *apiFixture) loginWith(username, password string) string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	var pair auth.TokenPair
	decode(f.t, rec, &pair)
	return pair.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	decode(t, rec, &body)
	return body.Detail
}
