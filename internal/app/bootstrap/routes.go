// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	devicesfeature "github.com/dalemusser/sensorhub/internal/app/features/devices"
	healthfeature "github.com/dalemusser/sensorhub/internal/app/features/health"
	telemetryfeature "github.com/dalemusser/sensorhub/internal/app/features/telemetry"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// SensorHub's HTTP surface is a JSON facade for a trusted web collaborator:
// authentication happens upstream, the caller's identity arrives in a
// header, and every handler enforces authorization against the device
// access model. The device ingestion listener is separate; it is started
// in Startup and speaks raw TCP, not HTTP.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.SensorHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Device catalog, sharing, and reading history
	devicesHandler := devicesfeature.NewHandler(deps.SensorHubMongoDatabase, logger)
	r.Mount("/devices", devicesfeature.Routes(devicesHandler))

	// Administrative telemetry purge
	telemetryHandler := telemetryfeature.NewHandler(deps.SensorHubMongoDatabase, logger)
	r.Mount("/telemetry", telemetryfeature.Routes(telemetryHandler))

	return r, nil
}
