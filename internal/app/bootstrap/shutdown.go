// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down the ingestion listener and DB connections.
// In-flight device exchanges get a bounded grace period before their
// connections are severed.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ingestMu.Lock()
	server := ingestServer
	ingestServer = nil
	ingestMu.Unlock()

	if server != nil {
		logger.Info("stopping device ingestion listener",
			zap.Duration("grace", appCfg.IngestShutdownGrace))
		graceCtx, cancel := context.WithTimeout(ctx, appCfg.IngestShutdownGrace)
		defer cancel()
		if err := server.Stop(graceCtx); err != nil {
			logger.Error("ingestion listener stop failed", zap.Error(err))
		}
	}

	if deps.SensorHubMongoClient != nil {
		logger.Info("disconnecting SensorHub MongoDB client")
		if err := deps.SensorHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
