// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/sensorhub/internal/app/ingest"
	devicestore "github.com/dalemusser/sensorhub/internal/app/store/devices"
	telemetrystore "github.com/dalemusser/sensorhub/internal/app/store/telemetry"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// The ingestion listener outlives Startup and is torn down in Shutdown,
// so the running server is stashed at package level.
var (
	ingestMu     sync.Mutex
	ingestServer *ingest.Server
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. SensorHub
// uses it to bring up the device ingestion listener alongside the web facade.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.SensorHubMongoDatabase

	handler := ingest.NewHandler(devicestore.New(db), telemetrystore.New(db), logger)
	server := ingest.NewServer(handler, ingest.ServerConfig{
		Host:       appCfg.IngestHost,
		Port:       appCfg.IngestPort,
		MaxMessage: appCfg.IngestMaxMessage,
	}, logger)

	if err := server.Start(); err != nil {
		return err
	}
	logger.Info("device ingestion listener started", zap.String("addr", server.Addr()))

	ingestMu.Lock()
	ingestServer = server
	ingestMu.Unlock()

	return nil
}
