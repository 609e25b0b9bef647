package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/timeouts"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PrincipalFetcher loads a principal by id. It returns mongo.ErrNoDocuments
// when the principal does not exist.
type PrincipalFetcher interface {
	FetchPrincipal(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Resolver turns a bearer credential into the Principal it names.
// It is read-only and never retries.
type Resolver struct {
	tokens  *TokenIssuer
	fetcher PrincipalFetcher
	log     *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(tokens *TokenIssuer, fetcher PrincipalFetcher, logger *zap.Logger) *Resolver {
	return &Resolver{tokens: tokens, fetcher: fetcher, log: logger}
}

// Authenticate verifies credential and loads its principal. It fails with
// Unauthenticated when the credential is malformed, expired, or invalid, when
// the principal no longer exists, or when the principal is deactivated.
// The returned principal never carries a password hash.
func (res *Resolver) Authenticate(ctx context.Context, credential string) (*models.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, apperr.Unauthenticated("missing credential")
	}

	id, err := res.tokens.Verify(credential)
	switch {
	case errors.Is(err, ErrTokenExpired):
		return nil, apperr.Unauthenticated("credential expired")
	case err != nil:
		return nil, apperr.Unauthenticated("invalid credential")
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	p, err := res.fetcher.FetchPrincipal(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.Unauthenticated("principal no longer exists")
	}
	if err != nil {
		res.log.Error("principal lookup failed", zap.String("user_id", id.Hex()), zap.Error(err))
		return nil, apperr.Internal("auth.Authenticate", err)
	}
	if !p.Active {
		return nil, apperr.Unauthenticated("principal is deactivated")
	}

	clean := p.Sanitized()
	return &clean, nil
}

// BearerToken extracts the credential from an Authorization header value.
// It returns "" when the header is absent or uses another scheme.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
