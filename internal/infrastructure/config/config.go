package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Gemns integration core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Identify  IdentifyConfig  `yaml:"identify"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Database  DatabaseConfig  `yaml:"database"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	// Broker is the broker URI, e.g. "mqtt://homeassistant:1883" or
	// "mqtts://broker.example:8883" for TLS.
	Broker    string              `yaml:"broker"`
	ClientID  string              `yaml:"client_id"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DiscoveryConfig contains dongle discovery sweep settings.
type DiscoveryConfig struct {
	// EnableBLE and EnableZigbee are the initial per-protocol toggles.
	// They can be flipped at runtime via the control topics.
	EnableBLE    bool `yaml:"enable_ble"`
	EnableZigbee bool `yaml:"enable_zigbee"`

	// Interval is the discovery sweep cadence in seconds.
	Interval float64 `yaml:"interval"`

	// Endpoints lists candidate serial-like endpoints to probe.
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// EndpointConfig describes one candidate endpoint for identification.
type EndpointConfig struct {
	// Port is the endpoint handle, e.g. "tcp://127.0.0.1:20108" for a
	// serial-over-TCP bridge.
	Port string `yaml:"port"`

	// Protocol is the expected protocol family ("ble", "zigbee").
	// Used only to honour the per-protocol enable toggles before the
	// identification handshake has classified the endpoint.
	Protocol string `yaml:"protocol"`
}

// IdentifyConfig contains identification handshake settings.
// Delays and timeouts are in milliseconds.
type IdentifyConfig struct {
	// Attempts is the number of probe attempts before giving up.
	Attempts int `yaml:"attempts"`

	// BackoffBase is the initial delay between attempts.
	BackoffBase int `yaml:"backoff_base"`

	// BackoffCap is the maximum delay between attempts.
	BackoffCap int `yaml:"backoff_cap"`

	// ProbeTimeout is the per-attempt response timeout.
	ProbeTimeout int `yaml:"probe_timeout"`
}

// LifecycleConfig contains device lifecycle timing settings.
// Intervals are in seconds; fractional values are allowed (the inactivity
// sweep can run at sub-second cadence).
type LifecycleConfig struct {
	ScanInterval      float64 `yaml:"scan_interval"`
	HeartbeatInterval float64 `yaml:"heartbeat_interval"`
	OfflineTimeout    float64 `yaml:"offline_timeout"`
}

// DatabaseConfig contains SQLite snapshot settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains telemetry history settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GEMNS_SECTION_KEY
// For example: GEMNS_MQTT_BROKER, GEMNS_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// The defaults mirror a single-broker Home Assistant style deployment.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker:   "mqtt://homeassistant:1883",
			ClientID: "gemns-core",
			QoS:      1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Discovery: DiscoveryConfig{
			EnableBLE:    true,
			EnableZigbee: true,
			Interval:     30,
		},
		Identify: IdentifyConfig{
			Attempts:     3,
			BackoffBase:  500,
			BackoffCap:   5000,
			ProbeTimeout: 2000,
		},
		Lifecycle: LifecycleConfig{
			ScanInterval:      0.02,
			HeartbeatInterval: 10,
			OfflineTimeout:    300,
		},
		Database: DatabaseConfig{
			Path:        "./data/gemns.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GEMNS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GEMNS_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("GEMNS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GEMNS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("GEMNS_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("GEMNS_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("GEMNS_OFFLINE_TIMEOUT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Lifecycle.OfflineTimeout = f
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Broker == "" {
		errs = append(errs, "mqtt.broker is required")
	} else if _, err := url.Parse(c.MQTT.Broker); err != nil {
		errs = append(errs, fmt.Sprintf("mqtt.broker is not a valid URI: %v", err))
	}
	if c.MQTT.ClientID == "" {
		errs = append(errs, "mqtt.client_id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Discovery.Interval <= 0 {
		errs = append(errs, "discovery.interval must be positive")
	}
	for i, ep := range c.Discovery.Endpoints {
		if ep.Port == "" {
			errs = append(errs, fmt.Sprintf("discovery.endpoints[%d].port is required", i))
		}
		switch ep.Protocol {
		case "", "ble", "zigbee":
		default:
			errs = append(errs, fmt.Sprintf("discovery.endpoints[%d].protocol must be ble or zigbee", i))
		}
	}

	if c.Identify.Attempts < 1 {
		errs = append(errs, "identify.attempts must be at least 1")
	}
	if c.Identify.BackoffBase <= 0 {
		errs = append(errs, "identify.backoff_base must be positive")
	}
	if c.Identify.BackoffCap < c.Identify.BackoffBase {
		errs = append(errs, "identify.backoff_cap must be >= identify.backoff_base")
	}

	if c.Lifecycle.ScanInterval <= 0 {
		errs = append(errs, "lifecycle.scan_interval must be positive")
	}
	if c.Lifecycle.OfflineTimeout <= 0 {
		errs = append(errs, "lifecycle.offline_timeout must be positive")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set GEMNS_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetDiscoveryInterval returns the discovery sweep cadence as a Duration.
func (c *Config) GetDiscoveryInterval() time.Duration {
	return secondsToDuration(c.Discovery.Interval)
}

// GetScanInterval returns the inactivity sweep cadence as a Duration.
func (c *Config) GetScanInterval() time.Duration {
	return secondsToDuration(c.Lifecycle.ScanInterval)
}

// GetHeartbeatInterval returns the integration heartbeat cadence as a Duration.
func (c *Config) GetHeartbeatInterval() time.Duration {
	return secondsToDuration(c.Lifecycle.HeartbeatInterval)
}

// GetOfflineTimeout returns the device silence timeout as a Duration.
func (c *Config) GetOfflineTimeout() time.Duration {
	return secondsToDuration(c.Lifecycle.OfflineTimeout)
}

// GetIdentifyBackoffBase returns the initial identify retry delay.
func (c *Config) GetIdentifyBackoffBase() time.Duration {
	return time.Duration(c.Identify.BackoffBase) * time.Millisecond
}

// GetIdentifyBackoffCap returns the maximum identify retry delay.
func (c *Config) GetIdentifyBackoffCap() time.Duration {
	return time.Duration(c.Identify.BackoffCap) * time.Millisecond
}

// GetIdentifyProbeTimeout returns the per-attempt probe response timeout.
func (c *Config) GetIdentifyProbeTimeout() time.Duration {
	return time.Duration(c.Identify.ProbeTimeout) * time.Millisecond
}

// secondsToDuration converts a fractional seconds value to a Duration.
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
