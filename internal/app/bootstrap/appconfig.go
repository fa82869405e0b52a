// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP ports,
// TLS, logging level, and request body limits. AppConfig is where
// everything specific to SensorHub lives: the MongoDB connection, and
// the device ingestion listener.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// Device ingestion listener configuration
	IngestHost          string        // Interface the TCP listener binds to
	IngestPort          int           // TCP port devices connect to
	IngestMaxMessage    int           // Largest accepted ingestion message in bytes
	IngestShutdownGrace time.Duration // How long Stop waits for in-flight exchanges
}
