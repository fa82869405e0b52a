// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/sensorhub/internal/app/system/limits"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for SensorHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, ingest_port, etc.
//   - Environment variables: SENSORHUB_MONGO_URI, SENSORHUB_INGEST_PORT, etc.
//   - Command-line flags: --mongo_uri, --ingest_port, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "sensor_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Device ingestion listener
	{Name: "ingest_host", Default: "0.0.0.0", Desc: "Interface the device TCP listener binds to"},
	{Name: "ingest_port", Default: 8888, Desc: "TCP port the device listener accepts connections on"},
	{Name: "ingest_max_message", Default: limits.MaxIngestMessage, Desc: "Largest accepted ingestion message in bytes"},
	{Name: "ingest_shutdown_grace", Default: "10s", Desc: "How long shutdown waits for in-flight device exchanges (e.g., 10s, 1m)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SENSORHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		IngestHost:          appValues.String("ingest_host"),
		IngestPort:          appValues.Int("ingest_port"),
		IngestMaxMessage:    appValues.Int("ingest_max_message"),
		IngestShutdownGrace: appValues.Duration("ingest_shutdown_grace", 10*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// SensorHub validates the MongoDB URI format and the ingestion listener
// settings to catch configuration errors before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.IngestPort < 1 || appCfg.IngestPort > 65535 {
		return fmt.Errorf("ingest_port must be between 1 and 65535, got %d", appCfg.IngestPort)
	}
	if appCfg.IngestMaxMessage < 1 {
		return fmt.Errorf("ingest_max_message must be positive, got %d", appCfg.IngestMaxMessage)
	}
	if appCfg.IngestShutdownGrace < 0 {
		return fmt.Errorf("ingest_shutdown_grace must not be negative, got %s", appCfg.IngestShutdownGrace)
	}

	return nil
}
