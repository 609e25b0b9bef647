package customers_test

import (
	"net/http"
	"testing"

	customersvc "github.com/dalemusser/crmhub/internal/app/core/customers"
	"github.com/dalemusser/crmhub/internal/app/features/customers"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/crmhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (chi.Router, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := customersvc.New(db, testutil.NewDispatcher(t, db), zap.NewNop())
	return customers.Routes(customers.NewHandler(svc, zap.NewNop())), testutil.NewFixtures(t, db)
}

type customerBody struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	Active      bool   `json:"active"`
	Contacts    []struct {
		Email     string `json:"email"`
		IsPrimary bool   `json:"is_primary"`
	} `json:"contacts"`
}

func TestCreateAndView(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	user := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)

	body := map[string]any{
		"company_name": "TechCorp Solutions",
		"contacts": []map[string]any{
			{"name": "Ann", "email": "ANN@techcorp.example"},
			{"name": "Ben", "email": "ben@techcorp.example", "is_primary": true},
		},
	}

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/", body, user))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/", body, manager))
	rec.AssertStatus(t, http.StatusCreated)
	var created customerBody
	rec.DecodeJSON(t, &created)
	if len(created.Contacts) != 2 || created.Contacts[0].IsPrimary || !created.Contacts[1].IsPrimary {
		t.Errorf("primary contact not kept: %+v", created.Contacts)
	}
	if created.Contacts[0].Email != "ann@techcorp.example" {
		t.Errorf("email not normalized: %q", created.Contacts[0].Email)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/", body, manager))
	rec.AssertStatus(t, http.StatusConflict)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/"+created.ID, nil, user))
	rec.AssertStatus(t, http.StatusOK)
}

func TestDeactivateHidesFromUsers(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	user := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)
	c := fx.CreateCustomer(ctx, "Acme", manager.ID)
	path := "/" + c.ID.Hex()

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("DELETE", path, nil, manager))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", path, nil, user))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/?include_inactive=true", nil, user))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"total":0`)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/?include_inactive=true", nil, manager))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"total":1`)
}

func TestHandleUpdate(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	c := fx.CreateCustomer(ctx, "Acme", manager.ID)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("PATCH", "/"+c.ID.Hex(), map[string]any{"company_name": "Acme Holdings"}, manager))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"company_name":"Acme Holdings"`)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("PATCH", "/"+c.ID.Hex(), map[string]any{"contacts": []map[string]any{{"email": "bad"}}}, manager))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, `"field":"contacts[0].name"`)
	rec.AssertContains(t, `"field":"contacts[0].email"`)
}
