// Package dispatch runs the side effects of a committed mutation: one
// activity record per mutation and zero or more notifications. Work is
// handed to a bounded worker pool and never blocks or fails the caller.
// Delivery is at most once; failures are logged and counted.
package dispatch

import (
	"context"
	"time"

	"github.com/dalemusser/crmhub/internal/app/system/metrics"
	"github.com/dalemusser/crmhub/internal/app/system/realtime"
	"github.com/dalemusser/crmhub/internal/app/system/workers"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ActivityAppender persists activity records.
type ActivityAppender interface {
	Append(ctx context.Context, rec models.ActivityRecord) (models.ActivityRecord, error)
}

// NotificationCreator persists notifications.
type NotificationCreator interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
}

// Activity describes one activity record to write.
type Activity struct {
	Actor       primitive.ObjectID
	Action      string
	EntityType  string
	EntityID    primitive.ObjectID
	EntityLabel string
	Details     map[string]any
}

// Notice describes one notification to write.
type Notice struct {
	Recipient primitive.ObjectID
	Kind      string
	Message   string
	Link      string
	Related   models.EntityRef
}

// Options tune the dispatcher.
type Options struct {
	// Mirror also writes every activity record to the zap log with audit=true.
	Mirror bool
}

// Dispatcher turns specs into detached work items.
type Dispatcher struct {
	pool      *workers.Pool
	activity  ActivityAppender
	notices   NotificationCreator
	publisher realtime.Publisher
	m         *metrics.Metrics
	log       *zap.Logger
	opts      Options
	now       func() time.Time
}

// New wires a dispatcher. pool must already be started. publisher may be nil.
func New(pool *workers.Pool, activity ActivityAppender, notices NotificationCreator,
	publisher realtime.Publisher, m *metrics.Metrics, logger *zap.Logger, opts Options) *Dispatcher {
	if publisher == nil {
		publisher = realtime.Nop{}
	}
	return &Dispatcher{
		pool:      pool,
		activity:  activity,
		notices:   notices,
		publisher: publisher,
		m:         m,
		log:       logger,
		opts:      opts,
		now:       time.Now,
	}
}

func (d *Dispatcher) record(a Activity) models.ActivityRecord {
	return models.ActivityRecord{
		Actor:       a.Actor,
		Action:      a.Action,
		EntityType:  a.EntityType,
		EntityID:    a.EntityID,
		EntityLabel: a.EntityLabel,
		Details:     a.Details,
		CreatedAt:   d.now().UTC(),
	}
}

// Record enqueues one activity record and returns immediately.
func (d *Dispatcher) Record(a Activity) {
	rec := d.record(a)
	d.submit(metrics.KindActivity, zap.String("action", a.Action), func(ctx context.Context) error {
		return d.writeActivity(ctx, rec)
	})
}

// RecordSync writes one activity record before returning. Hard deletes use
// it so the record exists before the entity is gone.
func (d *Dispatcher) RecordSync(ctx context.Context, a Activity) error {
	err := d.writeActivity(ctx, d.record(a))
	d.observe(metrics.KindActivity, err)
	return err
}

// Notify enqueues one notification per spec. Specs with a zero recipient
// are skipped.
func (d *Dispatcher) Notify(notices ...Notice) {
	for _, n := range notices {
		if n.Recipient.IsZero() {
			continue
		}
		doc := models.Notification{
			Recipient:     n.Recipient,
			Kind:          n.Kind,
			Message:       n.Message,
			Link:          n.Link,
			RelatedEntity: n.Related,
			CreatedAt:     d.now().UTC(),
		}
		d.submit(metrics.KindNotification, zap.String("kind", n.Kind), func(ctx context.Context) error {
			return d.writeNotification(ctx, doc)
		})
	}
}

// Drain stops intake and waits up to ctx for queued work. Anything left is
// abandoned, counted, and logged.
func (d *Dispatcher) Drain(ctx context.Context) {
	n, err := d.pool.Drain(ctx)
	if err != nil {
		d.log.Warn("dispatcher drain skipped", zap.Error(err))
		return
	}
	if n > 0 {
		d.m.DispatchAbandoned.Add(float64(n))
		d.log.Warn("side effects abandoned at shutdown", zap.Int("count", n))
	}
}

func (d *Dispatcher) submit(kind string, what zap.Field, fn func(ctx context.Context) error) {
	ok := d.pool.Submit(func(ctx context.Context) {
		err := fn(ctx)
		d.observe(kind, err)
		if err != nil {
			d.log.Error("side effect failed", zap.String("type", kind), what, zap.Error(err))
		}
	})
	if !ok {
		d.m.DispatchDropped.WithLabelValues(kind).Inc()
		d.log.Warn("side effect dropped", zap.String("type", kind), what)
		return
	}
	d.m.DispatchEnqueued.WithLabelValues(kind).Inc()
}

func (d *Dispatcher) observe(kind string, err error) {
	if err != nil {
		d.m.DispatchFailed.WithLabelValues(kind).Inc()
		return
	}
	d.m.DispatchSucceeded.WithLabelValues(kind).Inc()
}

func (d *Dispatcher) writeActivity(ctx context.Context, rec models.ActivityRecord) error {
	start := d.now()
	saved, err := d.activity.Append(ctx, rec)
	d.m.DispatchDuration.WithLabelValues(metrics.KindActivity).Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if d.opts.Mirror {
		d.log.Info("activity",
			zap.Bool("audit", true),
			zap.String("activity_id", saved.ID.Hex()),
			zap.String("actor", saved.Actor.Hex()),
			zap.String("action", saved.Action),
			zap.String("entity_type", saved.EntityType),
			zap.String("entity_id", saved.EntityID.Hex()),
			zap.String("entity_label", saved.EntityLabel))
	}
	return nil
}

func (d *Dispatcher) writeNotification(ctx context.Context, n models.Notification) error {
	start := d.now()
	saved, err := d.notices.Create(ctx, n)
	d.m.DispatchDuration.WithLabelValues(metrics.KindNotification).Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if err := d.publisher.Publish(ctx, saved); err != nil {
		d.m.RealtimeFailed.Inc()
		d.log.Warn("realtime publish failed",
			zap.String("notification_id", saved.ID.Hex()),
			zap.Error(err))
		return nil
	}
	d.m.RealtimePublished.Inc()
	return nil
}
