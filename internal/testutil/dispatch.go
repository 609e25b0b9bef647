package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/crmhub/internal/app/core/dispatch"
	activitystore "github.com/dalemusser/crmhub/internal/app/store/activity"
	notificationstore "github.com/dalemusser/crmhub/internal/app/store/notifications"
	"github.com/dalemusser/crmhub/internal/app/system/metrics"
	"github.com/dalemusser/crmhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NewDispatcher returns a dispatcher writing to db through a started worker
// pool. Tests call Settle before asserting on side effects.
func NewDispatcher(t *testing.T, db *mongo.Database) *dispatch.Dispatcher {
	t.Helper()
	pool := workers.NewPool("test-dispatch", 2, 64, 5*time.Second, zap.NewNop())
	pool.Start()
	d := dispatch.New(pool, activitystore.New(db), notificationstore.New(db), nil, metrics.New(), zap.NewNop(), dispatch.Options{})
	t.Cleanup(func() { Settle(d) })
	return d
}

// Settle drains d so every queued side effect has been written. The
// dispatcher accepts no further work afterwards.
func Settle(d *dispatch.Dispatcher) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	d.Drain(ctx)
}
