package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeFetcher map[primitive.ObjectID]models.User

func (f fakeFetcher) FetchPrincipal(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

func newTestResolver(users ...models.User) (*Resolver, *TokenIssuer) {
	ti := NewTokenIssuer(testSecret, "crmhub", time.Hour)
	f := fakeFetcher{}
	for _, u := range users {
		f[u.ID] = u
	}
	return NewResolver(ti, f, zap.NewNop()), ti
}

func TestAuthenticate(t *testing.T) {
	active := models.User{ID: primitive.NewObjectID(), Role: models.RoleUser, Active: true, PasswordHash: "h"}
	inactive := models.User{ID: primitive.NewObjectID(), Role: models.RoleUser, Active: false}
	res, ti := newTestResolver(active, inactive)

	tok := func(id primitive.ObjectID) string {
		s, _, err := ti.Issue(id, "")
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		return s
	}

	p, err := res.Authenticate(context.Background(), tok(active.ID))
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if p.ID != active.ID || p.PasswordHash != "" {
		t.Errorf("unexpected principal %+v", p)
	}

	for name, cred := range map[string]string{
		"empty":       "",
		"malformed":   "abc.def",
		"deactivated": tok(inactive.ID),
		"missing":     tok(primitive.NewObjectID()),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := res.Authenticate(context.Background(), cred); apperr.KindOf(err) != apperr.KindUnauthenticated {
				t.Errorf("expected unauthenticated, got %v", err)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Role: models.RoleUser, Active: true}
	manager := models.User{ID: primitive.NewObjectID(), Role: models.RoleManager, Active: true}
	res, ti := newTestResolver(user, manager)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	signedIn := res.LoadPrincipal(RequireSignedIn(ok))
	staffOnly := res.LoadPrincipal(RequireRole(models.RoleAdmin, models.RoleManager)(ok))

	bearer := func(u models.User) string {
		s, _, _ := ti.Issue(u.ID, u.Role)
		return "Bearer " + s
	}

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		want    int
	}{
		{"no header", signedIn, "", http.StatusUnauthorized},
		{"bad scheme", signedIn, "Basic abc", http.StatusUnauthorized},
		{"bad token", signedIn, "Bearer nope", http.StatusUnauthorized},
		{"signed in", signedIn, bearer(user), http.StatusOK},
		{"user on staff route", staffOnly, bearer(user), http.StatusForbidden},
		{"manager on staff route", staffOnly, bearer(manager), http.StatusOK},
		{"anonymous on staff route", staffOnly, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
