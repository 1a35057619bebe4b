package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"todoManagement/internal/config"
	"todoManagement/internal/testutil"
	"todoManagement/models"
)

const testSecret = "test-secret"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       testSecret,
		JWTAlgorithm:    "HS256",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		VerificationTTL: 24 * time.Hour,
	}
}

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testAuthConfig())
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t)
	in := Claims{Subject: "alice", UserID: 42, Role: models.RoleAdmin}
	for _, kind := range []TokenKind{KindAccess, KindRefresh} {
		tok, err := c.Issue(in, kind, time.Minute)
		if err != nil {
			t.Fatalf("issue %s: %v", kind, err)
		}
		out, ok := c.Parse(tok, kind)
		if !ok {
			t.Fatalf("parse %s: invalid", kind)
		}
		if out.Subject != in.Subject || out.UserID != in.UserID || out.Role != in.Role {
			t.Fatalf("claims changed: got %+v want %+v", out, in)
		}
		if out.ExpiresAt.IsZero() {
			t.Fatalf("expiry not reported")
		}
	}
}

func TestCodec_KindMismatch(t *testing.T) {
	c := newTestCodec(t)
	u := &models.User{ID: 1, Username: "alice", Role: models.RoleUser}
	pair, err := c.IssuePair(u)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if pair.TokenType != "bearer" {
		t.Fatalf("token type = %q", pair.TokenType)
	}
	if _, ok := c.Parse(pair.AccessToken, KindRefresh); ok {
		t.Fatalf("access token accepted as refresh")
	}
	if _, ok := c.Parse(pair.RefreshToken, KindAccess); ok {
		t.Fatalf("refresh token accepted as access")
	}
	if _, ok := c.ParseEmailVerification(pair.AccessToken); ok {
		t.Fatalf("access token accepted as email verification")
	}
}

func TestCodec_ExpiredEqualsCorrupted(t *testing.T) {
	c := newTestCodec(t)
	issued := time.Now()
	c.now = func() time.Time { return issued }
	tok, err := c.IssueAccess(&models.User{ID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, ok := c.Parse(tok, KindAccess); !ok {
		t.Fatalf("fresh token rejected")
	}

	c.now = func() time.Time { return issued.Add(31 * time.Minute) }
	expired, okExpired := c.Parse(tok, KindAccess)

	c.now = func() time.Time { return issued }
	sigStart := strings.LastIndex(tok, ".") + 1
	flip := byte('A')
	if tok[sigStart] == 'A' {
		flip = 'B'
	}
	corrupted := tok[:sigStart] + string(flip) + tok[sigStart+1:]
	bad, okBad := c.Parse(corrupted, KindAccess)

	if okExpired || okBad || expired != nil || bad != nil {
		t.Fatalf("expected both expired and corrupted tokens to be invalid")
	}
}

func TestCodec_RequiresSubjectAndUserID(t *testing.T) {
	c := newTestCodec(t)
	exp := time.Now().Add(time.Hour).Unix()
	noUID := testutil.GenerateJWTHS256(t, testSecret, jwt.MapClaims{"sub": "alice", "type": "access", "exp": exp})
	if _, ok := c.Parse(noUID, KindAccess); ok {
		t.Fatalf("token without user_id accepted")
	}
	noSub := testutil.GenerateJWTHS256(t, testSecret, jwt.MapClaims{"user_id": 1, "type": "access", "exp": exp})
	if _, ok := c.Parse(noSub, KindAccess); ok {
		t.Fatalf("token without sub accepted")
	}
	noExp := testutil.GenerateJWTHS256(t, testSecret, jwt.MapClaims{"sub": "alice", "user_id": 1, "type": "access"})
	if _, ok := c.Parse(noExp, KindAccess); ok {
		t.Fatalf("token without exp accepted")
	}
	ok := testutil.GenerateJWTHS256(t, testSecret, jwt.MapClaims{"sub": "alice", "user_id": 1, "type": "access", "exp": exp})
	claims, valid := c.Parse(ok, KindAccess)
	if !valid || claims.Subject != "alice" || claims.UserID != 1 || claims.Role != "" {
		t.Fatalf("minimal valid token rejected: %+v", claims)
	}
}

func TestCodec_PinsAlgorithmAndSecret(t *testing.T) {
	c := newTestCodec(t)
	exp := time.Now().Add(time.Hour).Unix()
	claims := jwt.MapClaims{"sub": "alice", "user_id": 1, "type": "access", "exp": exp}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, ok := c.Parse(hs512, KindAccess); ok {
		t.Fatalf("token signed with a different algorithm accepted")
	}
	if _, ok := c.Parse(testutil.GenerateJWTHS256(t, "other", claims), KindAccess); ok {
		t.Fatalf("token signed with a different secret accepted")
	}
	if _, ok := c.Parse("not.a.jwt", KindAccess); ok {
		t.Fatalf("garbage accepted")
	}
}

func TestCodec_Issuer(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTIssuer = "todo-api"
	c, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	tok, _ := c.IssueAccess(&models.User{ID: 1, Username: "alice"})
	if _, ok := c.Parse(tok, KindAccess); !ok {
		t.Fatalf("own token rejected")
	}
	foreign, _ := newTestCodec(t).IssueAccess(&models.User{ID: 1, Username: "alice"})
	if _, ok := c.Parse(foreign, KindAccess); ok {
		t.Fatalf("token without issuer accepted")
	}
}

func TestCodec_EmailVerification(t *testing.T) {
	c := newTestCodec(t)
	issued := time.Now()
	c.now = func() time.Time { return issued }
	tok, err := c.IssueEmailVerification("alice@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	email, ok := c.ParseEmailVerification(tok)
	if !ok || email != "alice@x.com" {
		t.Fatalf("parse: %q %v", email, ok)
	}
	// Verification tokens carry no user id, so they never pass as access tokens.
	if _, ok := c.Parse(tok, KindEmailVerification); ok {
		t.Fatalf("verification token parsed as user claims")
	}
	c.now = func() time.Time { return issued.Add(25 * time.Hour) }
	if _, ok := c.ParseEmailVerification(tok); ok {
		t.Fatalf("expired verification token accepted")
	}
}

func TestCodec_UniqueJTI(t *testing.T) {
	c := newTestCodec(t)
	u := &models.User{ID: 1, Username: "alice"}
	a, _ := c.IssueAccess(u)
	b, _ := c.IssueAccess(u)
	if a == b {
		t.Fatalf("tokens issued in the same second must differ")
	}
}

func TestNewCodec_Rejects(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = ""
	if _, err := NewCodec(cfg); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	cfg = testAuthConfig()
	cfg.JWTAlgorithm = "RS256"
	if _, err := NewCodec(cfg); err == nil {
		t.Fatalf("expected error for non-HMAC algorithm")
	}
	cfg = testAuthConfig()
	cfg.JWTAlgorithm = "hs384"
	c, err := NewCodec(cfg)
	if err != nil || c.method.Alg() != "HS384" {
		t.Fatalf("hs384 should be accepted: %v", err)
	}
}
