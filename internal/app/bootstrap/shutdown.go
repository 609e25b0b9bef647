// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work in dependency order, then disconnects
// MongoDB: the scheduler first (waiting for a running scan), then the
// dispatcher drain, then NATS.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if svc := deps.Services; svc != nil {
		if svc.Scheduler != nil {
			svc.Scheduler.Stop(ctx)
		}
		if svc.Dispatcher != nil {
			drainCtx, cancel := context.WithTimeout(ctx, svc.DrainTimeout)
			svc.Dispatcher.Drain(drainCtx)
			cancel()
		}
		if svc.Publisher != nil {
			svc.Publisher.Close()
		}
		if svc.Limiter != nil {
			svc.Limiter.Close()
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
