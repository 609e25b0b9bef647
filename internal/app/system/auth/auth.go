// Package auth resolves bearer credentials into principals and gates routes.
//
// LoadPrincipal runs on every request and, when an Authorization header is
// present, authenticates it. RequireSignedIn and RequireRole then reject
// requests without an acceptable principal. All rejections are JSON errors
// in the apperr shape (401 for missing or bad credentials, 403 for roles).
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"github.com/dalemusser/crmhub/internal/domain/models"
)

type ctxKey string

const (
	principalKey ctxKey = "principal"
	authErrKey   ctxKey = "authError"
)

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *models.User) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal carried by ctx, if any.
func PrincipalFrom(ctx context.Context) (*models.User, bool) {
	p, ok := ctx.Value(principalKey).(*models.User)
	return p, ok && p != nil
}

// CurrentPrincipal returns the request's principal & "found?" flag.
func CurrentPrincipal(r *http.Request) (*models.User, bool) {
	return PrincipalFrom(r.Context())
}

// LoadPrincipal authenticates the bearer credential, if one is sent, and
// injects the principal into the request context. A failed credential does
// not stop the request here; RequireSignedIn reports it.
func (res *Resolver) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := BearerToken(header)
		if token == "" {
			ctx := context.WithValue(r.Context(), authErrKey, apperr.Unauthenticated("authorization must use the Bearer scheme"))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		p, err := res.Authenticate(r.Context(), token)
		if err != nil {
			ctx := context.WithValue(r.Context(), authErrKey, err)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func unauthenticated(w http.ResponseWriter, r *http.Request) {
	err, _ := r.Context().Value(authErrKey).(error)
	if err == nil {
		err = apperr.Unauthenticated("authentication required")
	}
	respond.Error(w, nil, err)
}

// RequireSignedIn ensures there is a principal in context (set by LoadPrincipal).
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentPrincipal(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		unauthenticated(w, r)
	})
}

// RequireRole ensures there is a principal with one of the allowed roles.
// Missing principal → 401; wrong role → 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := CurrentPrincipal(r)
			if !ok {
				unauthenticated(w, r)
				return
			}
			if _, has := set[strings.ToLower(p.Role)]; !has {
				respond.Error(w, nil, apperr.Forbidden("your role may not access this resource"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
