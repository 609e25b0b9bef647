package systemusers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/crmhub/internal/app/core/principals"
	"github.com/dalemusser/crmhub/internal/app/features/systemusers"
	"github.com/dalemusser/crmhub/internal/app/system/auth"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/crmhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (chi.Router, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	tokens := auth.NewTokenIssuer("test-secret-that-is-long-enough-for-hs256", "crmhub-test", time.Hour)
	svc := principals.New(db, tokens, nil, nil, testutil.NewDispatcher(t, db), zap.NewNop())
	return systemusers.Routes(systemusers.NewHandler(svc, zap.NewNop())), testutil.NewFixtures(t, db)
}

func TestServeList_RoleGate(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	user := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/", nil, user))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/?role=user&page=1&size=10", nil, manager))
	rec.AssertStatus(t, http.StatusOK)

	var page struct {
		Items []struct {
			Email string `json:"email"`
		} `json:"items"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	rec.DecodeJSON(t, &page)
	if page.Meta.Total != 1 || page.Items[0].Email != "uma@example.com" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestHandleCreate(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := fx.CreateAdmin(ctx, "Ada", "ada@example.com")
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")

	body := map[string]string{"name": "New Manager", "email": "nm@example.com", "password": "strong-pass-1", "role": "manager"}

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/", body, manager))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/", body, admin))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"role":"manager"`)
}

func TestViewEditDelete(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := fx.CreateAdmin(ctx, "Ada", "ada@example.com")
	user := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)
	other := fx.CreateUser(ctx, "Oz", "oz@example.com", models.RoleUser)
	path := "/" + user.ID.Hex()

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", path, nil, other))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/not-an-id", nil, admin))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("PATCH", path, map[string]any{"role": "manager"}, admin))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"role":"manager"`)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("DELETE", path, nil, admin))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", path, nil, admin))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"active":false`)
}
