// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down backend resources. The audit queue is
// drained before the Mongo client disconnects so no accepted entry is
// lost to the shutdown itself.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Audit != nil {
		if err := deps.Audit.Close(ctx); err != nil {
			logger.Warn("audit queue drain incomplete", zap.Error(err))
		}
		if dropped := deps.Audit.Dropped(); dropped > 0 {
			logger.Warn("audit entries were dropped during this run",
				zap.Int64("dropped", dropped))
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
