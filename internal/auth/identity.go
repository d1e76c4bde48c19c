package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultLocale is applied whenever a request does not state a locale.
const DefaultLocale = "en-US"

const bearerScheme = "Bearer "

// RequestContext carries the resolved caller identity and locale for one
// inbound request. Identity is nil for anonymous callers.
type RequestContext struct {
	Identity *Identity
	Locale   string
}

// IdentityStore resolves a verified token subject into a full identity.
// Implementations return store.ErrNotFound-compatible errors for missing
// records; see IsNotFound on the concrete store.
type IdentityStore interface {
	IdentityByID(ctx context.Context, id string) (*Identity, error)
}

// ContextBuilder turns raw request headers into a RequestContext. A missing,
// malformed or expired credential yields an anonymous context, never an
// error; only data-layer failures are reported.
type ContextBuilder struct {
	codec      *Codec
	identities IdentityStore
	notFound   func(error) bool
}

// NewContextBuilder constructs a ContextBuilder. notFound classifies
// identity-store errors: those it matches degrade to anonymous (user deleted
// after token issuance), everything else propagates.
func NewContextBuilder(codec *Codec, identities IdentityStore, notFound func(error) bool) (*ContextBuilder, error) {
	if codec == nil {
		return nil, errors.New("auth: codec is required")
	}
	if identities == nil {
		return nil, errors.New("auth: identity store is required")
	}
	if notFound == nil {
		notFound = func(error) bool { return false }
	}
	return &ContextBuilder{codec: codec, identities: identities, notFound: notFound}, nil
}

// Build resolves the Authorization header and locale into a RequestContext.
func (b *ContextBuilder) Build(ctx context.Context, authHeader, locale string) (RequestContext, error) {
	rc := RequestContext{Locale: normalizeLocale(locale)}

	token, ok := bearerToken(authHeader)
	if !ok {
		return rc, nil
	}
	subject, ok := b.codec.VerifyAuthToken(token)
	if !ok {
		return rc, nil
	}

	identity, err := b.identities.IdentityByID(ctx, subject)
	if err != nil {
		if b.notFound(err) {
			return rc, nil
		}
		return rc, fmt.Errorf("auth: resolve identity: %w", err)
	}
	rc.Identity = identity
	return rc, nil
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(header, bearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerScheme):])
	if token == "" {
		return "", false
	}
	return token, true
}

func normalizeLocale(locale string) string {
	if locale = strings.TrimSpace(locale); locale == "" {
		return DefaultLocale
	}
	return locale
}
