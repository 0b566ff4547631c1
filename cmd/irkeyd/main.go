// irkeyd - signal-to-keycode translation daemon
//
// irkeyd consumes decoded signals from protocol decoders over MQTT, runs
// them through an in-memory registry of remotes and keymaps, and synthesises
// key events on per-remote virtual input devices. A REST/WebSocket API
// manages the remote tree and streams translation events.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/irkeyd/irkeyd/migrations"

	"github.com/irkeyd/irkeyd/internal/api"
	"github.com/irkeyd/irkeyd/internal/audit"
	"github.com/irkeyd/irkeyd/internal/infrastructure/config"
	"github.com/irkeyd/irkeyd/internal/infrastructure/database"
	"github.com/irkeyd/irkeyd/internal/infrastructure/influxdb"
	"github.com/irkeyd/irkeyd/internal/infrastructure/logging"
	"github.com/irkeyd/irkeyd/internal/infrastructure/mqtt"
	"github.com/irkeyd/irkeyd/internal/receiver"
	"github.com/irkeyd/irkeyd/internal/remotes"
	"github.com/irkeyd/irkeyd/internal/uinput"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting irkeyd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the signal log database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	signalLog := audit.NewSQLiteRepository(db.DB)

	// Build the remote registry on the configured input backend
	registry := remotes.NewRegistry(endpointFactory(cfg.Input))
	registry.SetLogger(log)
	defer func() {
		log.Info("destroying remotes")
		registry.Close()
	}()
	log.Info("remote registry initialised", "backend", cfg.Input.Backend)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to MQTT broker (optional - API-only operation without it)
	var mqttClient *mqtt.Client
	var recv *receiver.Receiver
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// Start the signal receiver
		recv, err = receiver.New(receiver.Options{
			MQTTClient:     mqttClient,
			Translator:     registry,
			Recorder:       signalLog,
			Telemetry:      telemetryFor(influxClient),
			Logger:         log,
			TopicPrefix:    cfg.Receiver.TopicPrefix,
			PublishEvents:  cfg.Receiver.PublishEvents,
			HealthInterval: cfg.GetHealthInterval(),
			QoS:            byte(cfg.MQTT.QoS),
		})
		if err != nil {
			return fmt.Errorf("creating receiver: %w", err)
		}
		if startErr := recv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting receiver: %w", startErr)
		}
		defer func() {
			log.Info("stopping receiver")
			recv.Stop()
		}()
		log.Info("receiver started")
	} else {
		log.Info("MQTT disabled, running API-only")
	}

	// Start the API server
	apiDeps := api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log,
		Registry:  registry,
		SignalLog: signalLog,
		Version:   version,
	}
	if recv != nil {
		apiDeps.Injector = recv
	}

	apiServer, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Fan translation events out to WebSocket clients
	if recv != nil {
		hub := apiServer.Hub()
		recv.SetOnTranslation(func(event receiver.TranslationEvent) {
			hub.Broadcast(api.ChannelTranslation, event)
		})
	}

	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (stops accepting requests)
	// 2. Receiver (stops consuming signals)
	// 3. MQTT (publishes offline status)
	// 4. InfluxDB (flushes pending points)
	// 5. Registry (destroys virtual input devices)
	// 6. Database

	log.Info("irkeyd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses IRKEYD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("IRKEYD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// endpointFactory selects the virtual input backend for new remotes.
func endpointFactory(cfg config.InputConfig) remotes.EndpointFactory {
	if cfg.Backend == "memory" {
		return func(name string) (remotes.Endpoint, error) {
			return remotes.NewMemoryEndpoint(name), nil
		}
	}
	return uinput.Factory(cfg.DeviceNamePrefix)
}

// telemetryFor adapts the optional InfluxDB client to the receiver's
// Telemetry interface. A typed nil inside a non-nil interface would defeat
// the receiver's nil checks, so absence maps to a nil interface value.
func telemetryFor(client *influxdb.Client) receiver.Telemetry {
	if client == nil {
		return nil
	}
	return client
}

// healthCheck verifies all infrastructure connections are healthy.
// MQTT and InfluxDB may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
