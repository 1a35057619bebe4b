package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"todoManagement/internal/config"
	"todoManagement/models"
)

// TokenKind is the "type" discriminator carried by every token.
type TokenKind string

const (
	KindAccess            TokenKind = "access"
	KindRefresh           TokenKind = "refresh"
	KindEmailVerification TokenKind = "email_verification"
)

// Claims is the validated content of an access or refresh token.
type Claims struct {
	Subject string // username
	UserID  int64
	Role    models.Role
	// ExpiresAt is filled in by Parse and ignored by Issue.
	ExpiresAt time.Time
}

// TokenPair is what login and refresh hand back to clients.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// tokenClaims is the signed JWT body.
type tokenClaims struct {
	UserID *int64    `json:"user_id,omitempty"`
	Role   string    `json:"role,omitempty"`
	Type   TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// Codec issues and parses signed tokens. It is safe for concurrent use.
type Codec struct {
	secret     []byte
	method     jwt.SigningMethod
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	verifyTTL  time.Duration
	now        func() time.Time
}

// NewCodec builds a Codec from the auth configuration.
func NewCodec(cfg config.AuthConfig) (*Codec, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	alg := strings.ToUpper(cfg.JWTAlgorithm)
	if alg == "" {
		alg = "HS256"
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", cfg.JWTAlgorithm)
	}
	c := &Codec{
		secret:     []byte(cfg.JWTSecret),
		method:     method,
		issuer:     cfg.JWTIssuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		verifyTTL:  cfg.VerificationTTL,
		now:        time.Now,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = 30 * time.Minute
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = 7 * 24 * time.Hour
	}
	if c.verifyTTL <= 0 {
		c.verifyTTL = 24 * time.Hour
	}
	return c, nil
}

// AccessTTL is the lifetime of access tokens.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// Issue signs claims as a token of the given kind that expires after ttl.
func (c *Codec) Issue(claims Claims, kind TokenKind, ttl time.Duration) (string, error) {
	now := c.now()
	tc := tokenClaims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			Issuer:    c.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if kind != KindEmailVerification {
		id := claims.UserID
		tc.UserID = &id
		tc.Role = string(claims.Role)
	}
	return jwt.NewWithClaims(c.method, tc).SignedString(c.secret)
}

func claimsFor(u *models.User) Claims {
	return Claims{Subject: u.Username, UserID: u.ID, Role: u.Role}
}

// IssueAccess returns a short-lived access token for u.
func (c *Codec) IssueAccess(u *models.User) (string, error) {
	return c.Issue(claimsFor(u), KindAccess, c.accessTTL)
}

// IssueRefresh returns a long-lived refresh token for u.
func (c *Codec) IssueRefresh(u *models.User) (string, error) {
	return c.Issue(claimsFor(u), KindRefresh, c.refreshTTL)
}

// IssuePair returns a fresh access and refresh token for u.
func (c *Codec) IssuePair(u *models.User) (*TokenPair, error) {
	access, err := c.IssueAccess(u)
	if err != nil {
		return nil, err
	}
	refresh, err := c.IssueRefresh(u)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// IssueEmailVerification returns a token whose subject is email.
func (c *Codec) IssueEmailVerification(email string) (string, error) {
	return c.Issue(Claims{Subject: email}, KindEmailVerification, c.verifyTTL)
}

// parse verifies signature, expiry and kind. Every failure is reported as !ok.
func (c *Codec) parse(token string, kind TokenKind) (*tokenClaims, bool) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	tc := &tokenClaims{}
	tok, err := jwt.ParseWithClaims(token, tc, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return nil, false
	}
	if tc.Type != kind {
		return nil, false
	}
	return tc, true
}

// Parse validates an access or refresh token. Tokens without a subject or
// user id are rejected even when signature and expiry pass.
func (c *Codec) Parse(token string, kind TokenKind) (*Claims, bool) {
	tc, ok := c.parse(token, kind)
	if !ok || tc.Subject == "" || tc.UserID == nil {
		return nil, false
	}
	out := &Claims{Subject: tc.Subject, UserID: *tc.UserID, Role: models.Role(tc.Role)}
	if tc.ExpiresAt != nil {
		out.ExpiresAt = tc.ExpiresAt.Time
	}
	return out, true
}

// ParseEmailVerification returns the email carried by a verification token.
func (c *Codec) ParseEmailVerification(token string) (string, bool) {
	tc, ok := c.parse(token, KindEmailVerification)
	if !ok || tc.Subject == "" {
		return "", false
	}
	return tc.Subject, true
}
