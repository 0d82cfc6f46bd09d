// Gemns Fleet Core
//
// This is the main entry point for the Gemns fleet manager. It supervises
// a fleet of battery-less, energy-harvesting field devices reached through
// serial radio dongles, and mirrors their state onto an MQTT bus for
// consuming applications.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manaam216/gemns-integration/internal/device"
	"github.com/manaam216/gemns-integration/internal/dispatcher"
	"github.com/manaam216/gemns-integration/internal/dongle"
	"github.com/manaam216/gemns-integration/internal/infrastructure/config"
	"github.com/manaam216/gemns-integration/internal/infrastructure/database"
	"github.com/manaam216/gemns-integration/internal/infrastructure/influxdb"
	"github.com/manaam216/gemns-integration/internal/infrastructure/logging"
	"github.com/manaam216/gemns-integration/internal/infrastructure/mqtt"
	"github.com/manaam216/gemns-integration/internal/scheduler"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gemns fleet core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
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

	if err := db.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrapping schema: %w", err)
	}

	// Initialise device registry from the last persisted snapshot
	repo := device.NewSQLiteRepository(db.DB)
	registry := device.NewRegistry()
	registry.SetLogger(log)

	if err := registry.LoadFrom(ctx, repo); err != nil {
		return fmt.Errorf("loading device registry: %w", err)
	}
	log.Info("device registry initialised", "devices", registry.Count())

	// Persist the registry snapshot on the way out, before the database
	// handle closes.
	defer func() {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer saveCancel()
		if saveErr := registry.SaveTo(saveCtx, repo); saveErr != nil {
			log.Error("error persisting device registry", "error", saveErr)
		} else {
			log.Info("device registry persisted", "devices", registry.Count())
		}
	}()

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log)
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", cfg.MQTT.Broker,
		"client_id", cfg.MQTT.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Dongle set with the configured protocol toggles
	dongles := dongle.NewSet()
	dongles.SetProtocolEnabled(dongle.ProtocolBLE, cfg.Discovery.EnableBLE)
	dongles.SetProtocolEnabled(dongle.ProtocolZigbee, cfg.Discovery.EnableZigbee)

	// Dispatcher: the single writer of device state
	dispatcherOpts := dispatcher.Options{
		Registry: registry,
		Dongles:  dongles,
		Bus:      mqttClient,
		Sink:     dongle.NewSocketSink(cfg.GetIdentifyProbeTimeout()),
		QoS:      byte(cfg.MQTT.QoS), // #nosec G115 -- validated 0-2
		Logger:   log.With("component", "dispatcher"),
	}
	if influxClient != nil {
		dispatcherOpts.Telemetry = influxClient
	}
	disp := dispatcher.New(dispatcherOpts)

	if err := disp.Start(ctx); err != nil {
		return fmt.Errorf("starting dispatcher: %w", err)
	}
	log.Info("dispatcher started")

	// Scheduler: discovery sweep, stream listeners, inactivity sweep
	endpoints := make([]dongle.Endpoint, 0, len(cfg.Discovery.Endpoints))
	for _, ep := range cfg.Discovery.Endpoints {
		endpoints = append(endpoints,
			dongle.NewSocketEndpoint(ep.Port, dongle.Protocol(ep.Protocol)))
	}

	sched := scheduler.New(scheduler.Options{
		Endpoints: endpoints,
		Identifier: dongle.NewIdentifier(dongle.IdentifierOptions{
			Attempts:     cfg.Identify.Attempts,
			BackoffBase:  cfg.GetIdentifyBackoffBase(),
			BackoffCap:   cfg.GetIdentifyBackoffCap(),
			ProbeTimeout: cfg.GetIdentifyProbeTimeout(),
			Logger:       log.With("component", "identifier"),
		}),
		Dongles:           dongles,
		Sweeper:           disp,
		Status:            disp,
		Frames:            disp.HandleInbound,
		DiscoveryInterval: cfg.GetDiscoveryInterval(),
		ScanInterval:      cfg.GetScanInterval(),
		OfflineTimeout:    cfg.GetOfflineTimeout(),
		Logger:            log.With("component", "scheduler"),
	})
	sched.Start(ctx)
	defer func() {
		log.Info("stopping scheduler")
		sched.Stop()
	}()
	log.Info("scheduler started",
		"endpoints", len(endpoints),
		"discovery_interval", cfg.GetDiscoveryInterval(),
		"offline_timeout", cfg.GetOfflineTimeout(),
	)

	// Periodic fleet snapshot for dashboards
	if influxClient != nil {
		go fleetStatsLoop(ctx, registry, influxClient, cfg.GetHeartbeatInterval())
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// fleetStatsLoop writes a registry snapshot to InfluxDB at the heartbeat
// cadence until the context ends.
func fleetStatsLoop(ctx context.Context, registry *device.Registry, influx *influxdb.Client, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			influx.WriteFleetStats(registry.GetStats())
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// getConfigPath returns the configuration file path.
// Uses GEMNS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GEMNS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
