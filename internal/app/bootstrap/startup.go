// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	activityfeed "github.com/dalemusser/crmhub/internal/app/core/activity"
	"github.com/dalemusser/crmhub/internal/app/core/calls"
	"github.com/dalemusser/crmhub/internal/app/core/customers"
	"github.com/dalemusser/crmhub/internal/app/core/dispatch"
	"github.com/dalemusser/crmhub/internal/app/core/notifications"
	"github.com/dalemusser/crmhub/internal/app/core/principals"
	"github.com/dalemusser/crmhub/internal/app/core/projection"
	"github.com/dalemusser/crmhub/internal/app/core/search"
	"github.com/dalemusser/crmhub/internal/app/core/tasks"
	activitystore "github.com/dalemusser/crmhub/internal/app/store/activity"
	"github.com/dalemusser/crmhub/internal/app/store/audit"
	customerstore "github.com/dalemusser/crmhub/internal/app/store/customers"
	notificationstore "github.com/dalemusser/crmhub/internal/app/store/notifications"
	taskstore "github.com/dalemusser/crmhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/crmhub/internal/app/store/users"
	"github.com/dalemusser/crmhub/internal/app/system/auditlog"
	"github.com/dalemusser/crmhub/internal/app/system/auth"
	"github.com/dalemusser/crmhub/internal/app/system/blobstore"
	"github.com/dalemusser/crmhub/internal/app/system/jobs"
	"github.com/dalemusser/crmhub/internal/app/system/metrics"
	"github.com/dalemusser/crmhub/internal/app/system/ratelimit"
	"github.com/dalemusser/crmhub/internal/app/system/realtime"
	"github.com/dalemusser/crmhub/internal/app/system/timeouts"
	"github.com/dalemusser/crmhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Services is everything Startup builds and the handlers and Shutdown use.
type Services struct {
	Metrics    *metrics.Metrics
	Pool       *workers.Pool
	Dispatcher *dispatch.Dispatcher
	Publisher  realtime.Publisher
	Scheduler  *jobs.Scheduler
	Limiter    *ratelimit.LoginLimiter
	Resolver   *auth.Resolver

	Principals    *principals.Service
	Tasks         *tasks.Service
	Customers     *customers.Service
	Calls         *calls.Service
	Notifications *notifications.Service
	Search        *search.Service
	Activity      *activityfeed.Feed
	Projector     *projection.Projector

	DrainTimeout time.Duration
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It starts the side-effect worker pool, connects realtime fan-out, builds
// every core service, ensures the bootstrap admin, and starts the reminder
// scheduler last so no job fires before the dispatcher exists.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	svc := deps.Services
	if svc == nil {
		return fmt.Errorf("startup: services not allocated")
	}
	db := deps.MongoDatabase

	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Search: appCfg.TimeoutSearch,
	})

	svc.Metrics = metrics.New()
	svc.DrainTimeout = appCfg.DispatchDrainTimeout

	svc.Pool = workers.NewPool("dispatch", appCfg.DispatchWorkers, appCfg.DispatchQueueSize, appCfg.DispatchJobTimeout, logger)
	svc.Pool.Start()

	svc.Publisher = realtime.Nop{}
	if appCfg.NATSURL != "" {
		pub, err := realtime.ConnectNATS(appCfg.NATSURL, appCfg.NATSSubjectPrefix, logger)
		if err != nil {
			// Realtime is best effort; notifications are still stored.
			logger.Warn("nats unavailable, realtime fan-out disabled", zap.String("url", appCfg.NATSURL), zap.Error(err))
		} else {
			svc.Publisher = pub
		}
	}

	svc.Dispatcher = dispatch.New(svc.Pool, activitystore.New(db), notificationstore.New(db),
		svc.Publisher, svc.Metrics, logger, dispatch.Options{Mirror: appCfg.ActivityLogMirror})

	blobs, err := blobstore.NewLocal(appCfg.StorageLocalPath)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTTTL)
	svc.Resolver = auth.NewResolver(tokens, userstore.NewFetcher(db), logger)
	svc.Limiter = ratelimit.NewLoginLimiter(appCfg.LoginRatePerMinute)
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Security: appCfg.AuditLogSecurity,
	})

	svc.Principals = principals.New(db, tokens, svc.Limiter, audits, svc.Dispatcher, logger)
	svc.Tasks = tasks.New(db, blobs, svc.Dispatcher, logger)
	svc.Customers = customers.New(db, svc.Dispatcher, logger)
	svc.Calls = calls.New(db, svc.Dispatcher, logger)
	svc.Notifications = notifications.New(db, logger)
	svc.Search = search.New(db, logger)
	svc.Activity = activityfeed.New(db)
	svc.Projector = projection.New(userstore.New(db), customerstore.New(db))

	if err := principals.EnsureBootstrapAdmin(ctx, db, appCfg.BootstrapAdminEmail, appCfg.BootstrapAdminPassword, logger); err != nil {
		logger.Error("bootstrap admin failed", zap.Error(err))
		return err
	}

	loc, err := time.LoadLocation(appCfg.ReminderTimezone)
	if err != nil {
		return fmt.Errorf("reminder timezone: %w", err)
	}
	svc.Scheduler = jobs.NewScheduler(loc, logger, svc.Metrics)
	if err := svc.Scheduler.Add(jobs.TaskReminderJob(appCfg.ReminderHour, taskstore.New(db), svc.Dispatcher, logger, time.Now)); err != nil {
		return err
	}
	svc.Scheduler.Start()

	logger.Info("crmhub services started",
		zap.Int("dispatch_workers", appCfg.DispatchWorkers),
		zap.Bool("realtime", appCfg.NATSURL != ""),
		zap.String("reminder_timezone", loc.String()),
		zap.Int("reminder_hour", appCfg.ReminderHour))
	return nil
}
