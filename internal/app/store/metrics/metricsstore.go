package metricsstore

import (
	"context"
	"time"

	"github.com/dalemusser/crmhub/internal/app/policy"
	callstore "github.com/dalemusser/crmhub/internal/app/store/calls"
	customerstore "github.com/dalemusser/crmhub/internal/app/store/customers"
	"github.com/dalemusser/crmhub/internal/app/store/scoped"
	taskstore "github.com/dalemusser/crmhub/internal/app/store/tasks"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on a principal's dashboard.
type Counts struct {
	OpenTasks           int64 `json:"open_tasks"`
	OverdueTasks        int64 `json:"overdue_tasks"`
	ActiveCustomers     int64 `json:"active_customers"`
	CallsLast7Days      int64 `json:"calls_last_7_days"`
	PendingFollowUps    int64 `json:"pending_follow_ups"`
	UnreadNotifications int64 `json:"unread_notifications"`
}

// FetchDashboardCounts returns the dashboard totals for p, each restricted to
// what p may see. Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, p *models.User, now time.Time) Counts {
	var out Counts
	count := func(coll string, filter bson.M, dst *int64) {
		if n, err := db.Collection(coll).CountDocuments(ctx, filter); err == nil {
			*dst = n
		}
	}

	tasks := taskstore.ScopeFilter(policy.TaskScope(p))
	open := bson.M{"status": bson.M{"$ne": models.StatusCompleted}}
	count("tasks", scoped.And(tasks, open), &out.OpenTasks)
	count("tasks", scoped.And(tasks, open, bson.M{"due_date": bson.M{"$lt": now}}), &out.OverdueTasks)

	count("customers", customerstore.ScopeFilter(policy.CustomerScope(p, false)), &out.ActiveCustomers)

	calls := callstore.ScopeFilter(policy.CallScope(p))
	count("calls", scoped.And(calls, bson.M{"created_at": bson.M{"$gte": now.Add(-7 * 24 * time.Hour)}}), &out.CallsLast7Days)
	count("calls", scoped.And(calls, bson.M{"follow_up_required": true, "follow_up_date": bson.M{"$gte": now}}), &out.PendingFollowUps)

	if p != nil {
		count("notifications", bson.M{"recipient": p.ID, "is_read": false}, &out.UnreadNotifications)
	}
	return out
}
