package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "caseflow"

const (
	defaultAuthTTL  = 24 * time.Hour
	defaultResetTTL = 30 * time.Minute
)

// Purpose tags a token with its intended use. Verification requires an exact
// purpose match: a password-reset token must never pass as an auth token, and
// the other way around.
type Purpose string

const (
	PurposeAuthentication Purpose = "authentication"
	PurposePasswordReset  Purpose = "password_reset"
)

const purposeClaim = "purpose"

// Codec signs and verifies purpose-tagged bearer tokens with a process-wide
// HS256 secret. It is stateless and safe for concurrent use.
type Codec struct {
	secret   []byte
	issuer   string
	authTTL  time.Duration
	resetTTL time.Duration
	now      func() time.Time
}

// CodecOption configures Codec behavior.
type CodecOption func(*Codec)

// WithIssuer overrides the issuer claim stamped on signed tokens.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			c.issuer = issuer
		}
	}
}

// WithAuthTTL configures the default authentication token lifetime.
func WithAuthTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		if ttl > 0 {
			c.authTTL = ttl
		}
	}
}

// WithResetTTL configures the default password-reset token lifetime.
func WithResetTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		if ttl > 0 {
			c.resetTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec. A missing secret is a deployment error and is
// reported immediately rather than at first use.
func NewCodec(secret []byte, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: token secret is not configured")
	}
	c := &Codec{
		secret:   secret,
		issuer:   defaultIssuer,
		authTTL:  defaultAuthTTL,
		resetTTL: defaultResetTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for the subject with the given purpose and lifetime.
// Extra claims are merged in first so they can never shadow the reserved
// claims. Signing failures indicate misconfiguration and are returned, not
// swallowed.
func (c *Codec) Issue(subject string, purpose Purpose, ttl time.Duration, extra map[string]any) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("auth: subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("auth: ttl must be greater than zero")
	}

	now := c.now().UTC()
	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["iss"] = c.issuer
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(ttl))
	claims["jti"] = uuid.NewString()
	claims[purposeClaim] = string(purpose)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and purpose of a token and returns the
// subject it was issued for. Every failure mode — malformed input, forged
// signature, expired token, wrong purpose — reports ok=false; a bad
// credential degrades the caller to anonymous, it never aborts the request.
func (c *Codec) Verify(raw string, purpose Purpose) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	claims := jwt.MapClaims{}
	parsed, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}
	if got, _ := claims[purposeClaim].(string); got != string(purpose) {
		return "", false
	}
	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return "", false
	}
	return subject, true
}

// IssueAuthToken signs an authentication token with the default auth TTL.
func (c *Codec) IssueAuthToken(subject string, extra map[string]any) (string, error) {
	return c.Issue(subject, PurposeAuthentication, c.authTTL, extra)
}

// IssuePasswordResetToken signs a password-reset token with the default
// reset TTL.
func (c *Codec) IssuePasswordResetToken(subject string) (string, error) {
	return c.Issue(subject, PurposePasswordReset, c.resetTTL, nil)
}

// VerifyAuthToken verifies a token issued for authentication.
func (c *Codec) VerifyAuthToken(raw string) (string, bool) {
	return c.Verify(raw, PurposeAuthentication)
}

// VerifyPasswordResetToken verifies a token issued for a password reset.
func (c *Codec) VerifyPasswordResetToken(raw string) (string, bool) {
	return c.Verify(raw, PurposePasswordReset)
}

// AuthTTL reports the configured default authentication token lifetime.
func (c *Codec) AuthTTL() time.Duration { return c.authTTL }
