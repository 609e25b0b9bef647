package calls_test

import (
	"net/http"
	"testing"

	callsvc "github.com/dalemusser/crmhub/internal/app/core/calls"
	"github.com/dalemusser/crmhub/internal/app/core/projection"
	"github.com/dalemusser/crmhub/internal/app/features/calls"
	customerstore "github.com/dalemusser/crmhub/internal/app/store/customers"
	userstore "github.com/dalemusser/crmhub/internal/app/store/users"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/crmhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (chi.Router, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := callsvc.New(db, testutil.NewDispatcher(t, db), zap.NewNop())
	projector := projection.New(userstore.New(db), customerstore.New(db))
	return calls.Routes(calls.NewHandler(svc, projector, zap.NewNop())), testutil.NewFixtures(t, db)
}

func TestHandleLog(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	user := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)
	cust := fx.CreateCustomer(ctx, "Acme", manager.ID)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/", map[string]any{
		"customer_id":        cust.ID.Hex(),
		"direction":          "outbound",
		"summary":            "Discussed renewal",
		"follow_up_required": true,
	}, user))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, `"field":"follow_up_date"`)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("POST", "/", map[string]any{
		"customer_id": cust.ID.Hex(),
		"direction":   "inbound",
		"summary":     "Asked about pricing",
		"tags":        []string{"Pricing", "pricing"},
	}, user))
	rec.AssertStatus(t, http.StatusCreated)

	var body struct {
		UserID   string `json:"user_id"`
		Customer *struct {
			CompanyName string `json:"company_name"`
		} `json:"customer"`
		User *struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	rec.DecodeJSON(t, &body)
	if body.UserID != user.ID.Hex() || body.User == nil || body.User.Name != "Uma" {
		t.Errorf("call should be logged as the caller: %+v", body)
	}
	if body.Customer == nil || body.Customer.CompanyName != "Acme" {
		t.Errorf("customer should be expanded: %+v", body.Customer)
	}
}

func TestServeList_FiltersAndScope(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	uma := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)
	oz := fx.CreateUser(ctx, "Oz", "oz@example.com", models.RoleUser)
	cust := fx.CreateCustomer(ctx, "Acme", manager.ID)
	fx.CreateCall(ctx, cust.ID, uma.ID, "first")
	fx.CreateCall(ctx, cust.ID, oz.ID, "second")

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/", nil, uma))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"total":1`)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/?customer_id="+cust.ID.Hex(), nil, manager))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"total":2`)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/?from=2025-02-01&to=2025-01-01", nil, manager))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, `"field":"to"`)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/?from=last-week", nil, manager))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, `"field":"from"`)
}

func TestOwnership(t *testing.T) {
	router, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	manager := fx.CreateManager(ctx, "Mo", "mo@example.com")
	uma := fx.CreateUser(ctx, "Uma", "uma@example.com", models.RoleUser)
	oz := fx.CreateUser(ctx, "Oz", "oz@example.com", models.RoleUser)
	cust := fx.CreateCustomer(ctx, "Acme", manager.ID)
	call := fx.CreateCall(ctx, cust.ID, uma.ID, "mine")
	path := "/" + call.ID.Hex()

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", path, nil, oz))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("PATCH", path, map[string]any{"outcome": "Closed"}, uma))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"outcome":"Closed"`)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("DELETE", path, nil, oz))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("DELETE", path, nil, uma))
	rec.AssertStatus(t, http.StatusNoContent)
}
