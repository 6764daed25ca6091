// Seeed HA Discovery - Linux device daemon
//
// This is the main entry point for the seeedha daemon. It exposes local
// sensors and switches to Home Assistant over a WebSocket sync protocol,
// a BTHome v2 BLE advertisement with a GATT control channel, and
// optionally MQTT discovery.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"

	_ "github.com/nerrad567/seeed-ha-core/migrations"

	"github.com/nerrad567/seeed-ha-core/internal/api"
	"github.com/nerrad567/seeed-ha-core/internal/dispatch"
	"github.com/nerrad567/seeed-ha-core/internal/entity"
	"github.com/nerrad567/seeed-ha-core/internal/hastate"
	"github.com/nerrad567/seeed-ha-core/internal/identity"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/config"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/database"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/logging"
	"github.com/nerrad567/seeed-ha-core/internal/journal"
	"github.com/nerrad567/seeed-ha-core/internal/mdns"
	"github.com/nerrad567/seeed-ha-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = ""        // Semantic version (e.g., "1.0.0"); empty falls back to VCS info
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// exitReset is the exit code after a reset button long press. The service
// supervisor restarts the daemon with a clean state.
const exitReset = 3

// errResetRequested is returned by run after a reset button long press.
var errResetRequested = errors.New("reset requested")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, errResetRequested) {
			os.Exit(exitReset)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, errResetRequested after a reset, or the startup failure
func run(parent context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	ctx, stop := context.WithCancelCause(parent)
	defer stop(nil)

	ver := buildVersion()
	log := logging.Default()
	log.Info("starting seeedha",
		"version", ver,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, ver)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	id, err := identity.Detect(cfg.Device.Interface, cfg.Device.MAC)
	if err != nil {
		return fmt.Errorf("detecting device identity: %w", err)
	}
	log.Info("device identity resolved",
		"device_id", id.DeviceID,
		"interface", id.Interface,
		"ip", id.IP,
	)

	// Entities
	registry := entity.NewRegistry()
	registry.SetLogger(log.Component("entity"))
	sensors, err := registerEntities(registry, cfg.Entities)
	if err != nil {
		return fmt.Errorf("registering entities: %w", err)
	}
	stats := registry.Stats()
	log.Info("entities registered", "sensors", stats.Sensors, "switches", stats.Switches)

	states := hastate.NewStore(cfg.HAState.MaxEntities)
	states.SetLogger(log.Component("hastate"))

	commands := dispatch.New(registry)
	commands.SetLogger(log.Component("dispatch"))

	// GPIO lines (optional)
	if cfg.GPIO.Enabled {
		ctrl, err := startGPIO(cfg.GPIO, registry, log.Component("gpio"))
		if err != nil {
			return fmt.Errorf("starting GPIO: %w", err)
		}
		defer func() {
			log.Info("releasing GPIO lines")
			if closeErr := ctrl.Close(); closeErr != nil {
				log.Error("error releasing GPIO", "error", closeErr)
			}
		}()
	}

	// State journal (optional)
	var history api.HistoryReader
	if cfg.Database.Enabled {
		db, err := database.Open(database.ConfigFrom(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		schema, err := db.SchemaVersion(ctx)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}

		j := journal.New(db.DB)
		j.SetLogger(log.Component("journal"))
		if cfg.Database.RetentionDays > 0 {
			retention := time.Duration(cfg.Database.RetentionDays) * 24 * time.Hour
			if n, err := j.Prune(ctx, retention); err != nil {
				log.Warn("pruning state journal failed", "error", err)
			} else {
				log.Info("state journal pruned", "deleted", n, "retention_days", cfg.Database.RetentionDays)
			}
		}
		registry.AddListener(j)
		history = j
		log.Info("state journal enabled", "path", db.Path(), "schema", schema)
	}

	// Telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
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
		registry.AddListener(telemetry.NewRecorder(influxClient, id.DeviceID))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// MQTT discovery mirror (optional)
	if cfg.MQTT.Enabled {
		mqttClient, err := startMQTT(ctx, cfg, id.DeviceID, ver, registry, commands, log.Component("mqtt"))
		if err != nil {
			return fmt.Errorf("starting MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	}

	// HTTP + WebSocket sync
	server, err := api.New(api.Deps{
		HTTP:     cfg.HTTP,
		WS:       cfg.WebSocket,
		Logger:   log.Component("api"),
		Registry: registry,
		HAStates: states,
		Commands: commands,
		Device: api.DeviceInfo{
			ID:      id.DeviceID,
			Name:    cfg.Device.Name,
			Model:   cfg.Device.Model,
			Version: ver,
			IP:      id.IP,
			MAC:     id.MAC,
		},
		History: history,
		Signal:  identity.WirelessReader{Interface: id.Interface},
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// BLE (optional)
	if cfg.BLE.Enabled {
		peripheral, err := startBLE(ctx, cfg, registry, sensors, log.Component("ble"))
		if err != nil {
			return fmt.Errorf("starting BLE: %w", err)
		}
		go peripheral.Run(ctx)
	}

	// Reset button (optional)
	if cfg.GPIO.Enabled && cfg.GPIO.ResetLine >= 0 {
		onReset := func() {
			log.Warn("reset requested, clearing state and restarting")
			states.Clear()
			stop(errResetRequested)
		}
		if err := startResetButton(ctx, cfg.GPIO, cfg.GetLongPress(), onReset, log.Component("gpio")); err != nil {
			log.Warn("reset button unavailable", "error", err)
		}
	}

	// mDNS (optional)
	if cfg.MDNS.Enabled {
		adv, err := mdns.Start(mdns.Service{
			Instance: cfg.Device.Name,
			Service:  cfg.MDNS.Service,
			Domain:   cfg.MDNS.Domain,
			Host:     id.Hostname(),
			IP:       id.IP,
			Port:     cfg.WebSocket.Port,
			HTTPPort: cfg.HTTP.Port,
			DeviceID: id.DeviceID,
			Model:    cfg.Device.Model,
			Version:  ver,
			MAC:      id.MAC,
		})
		if err != nil {
			log.Warn("mDNS advertisement failed", "error", err)
		} else {
			defer adv.Stop()
			log.Info("mDNS advertised", "service", cfg.MDNS.Service, "host", id.Hostname())
		}
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	if cause := context.Cause(ctx); errors.Is(cause, errResetRequested) {
		log.Info("seeedha stopping for reset")
		return errResetRequested
	}

	log.Info("shutdown signal received, cleaning up")

	log.Info("seeedha stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// SEEEDHA_CONFIG wins; otherwise the default path is used if it exists and
// built-in defaults apply if it does not.
func getConfigPath() string {
	if path := os.Getenv("SEEEDHA_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// buildVersion returns the ldflags version or the VCS-derived one.
func buildVersion() string {
	if version != "" {
		return version
	}
	return versioninfo.Short()
}
