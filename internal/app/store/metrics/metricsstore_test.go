package metricsstore_test

import (
	"testing"
	"time"

	metricsstore "github.com/dalemusser/crmhub/internal/app/store/metrics"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/crmhub/internal/testutil"
)

func TestFetchDashboardCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	counts := metricsstore.FetchDashboardCounts(ctx, db, &admin, time.Now())

	if counts != (metricsstore.Counts{}) {
		t.Errorf("expected all zero counts, got %+v", counts)
	}
}

func TestFetchDashboardCounts_ScopedToPrincipal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	user := fixtures.CreateUser(ctx, "User", "user@example.com", models.RoleUser)
	other := fixtures.CreateUser(ctx, "Other", "other@example.com", models.RoleUser)

	fixtures.CreateTaskDue(ctx, "overdue", admin.ID, user.ID, now.Add(-time.Hour), models.StatusTodo)
	fixtures.CreateTask(ctx, "open", admin.ID, user.ID)
	fixtures.CreateTaskDue(ctx, "done", admin.ID, user.ID, now.Add(-time.Hour), models.StatusCompleted)
	fixtures.CreateTask(ctx, "someone else's", admin.ID, other.ID)

	c := fixtures.CreateCustomer(ctx, "Acme", admin.ID)
	fixtures.CreateCall(ctx, c.ID, user.ID, "intro")
	fixtures.CreateCall(ctx, c.ID, other.ID, "intro")

	got := metricsstore.FetchDashboardCounts(ctx, db, &user, now)
	if got.OpenTasks != 2 || got.OverdueTasks != 1 {
		t.Errorf("user task counts: open=%d overdue=%d, want 2 and 1", got.OpenTasks, got.OverdueTasks)
	}
	if got.ActiveCustomers != 1 || got.CallsLast7Days != 1 {
		t.Errorf("user counts: customers=%d calls=%d, want 1 and 1", got.ActiveCustomers, got.CallsLast7Days)
	}

	all := metricsstore.FetchDashboardCounts(ctx, db, &admin, now)
	if all.OpenTasks != 3 || all.CallsLast7Days != 2 {
		t.Errorf("admin counts: open=%d calls=%d, want 3 and 2", all.OpenTasks, all.CallsLast7Days)
	}
}
