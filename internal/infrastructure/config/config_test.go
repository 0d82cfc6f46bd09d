package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
mqtt:
  broker: "mqtt://localhost:1883"
  client_id: "test-client"
  qos: 1
discovery:
  interval: 15
  endpoints:
    - port: "tcp://127.0.0.1:20108"
      protocol: "ble"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker != "mqtt://localhost:1883" {
		t.Errorf("MQTT.Broker = %q, want %q", cfg.MQTT.Broker, "mqtt://localhost:1883")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.Discovery.Interval != 15 {
		t.Errorf("Discovery.Interval = %v, want 15", cfg.Discovery.Interval)
	}

	if len(cfg.Discovery.Endpoints) != 1 || cfg.Discovery.Endpoints[0].Protocol != "ble" {
		t.Errorf("Discovery.Endpoints = %+v, want one ble endpoint", cfg.Discovery.Endpoints)
	}

	// Defaults survive a partial file
	if cfg.Identify.Attempts != 3 {
		t.Errorf("Identify.Attempts = %d, want default 3", cfg.Identify.Attempts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
mqtt:
  broker: ""
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty mqtt.broker, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing broker",
			mutate:  func(c *Config) { c.MQTT.Broker = "" },
			wantErr: true,
		},
		{
			name:    "missing client ID",
			mutate:  func(c *Config) { c.MQTT.ClientID = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "zero discovery interval",
			mutate:  func(c *Config) { c.Discovery.Interval = 0 },
			wantErr: true,
		},
		{
			name: "endpoint with empty port",
			mutate: func(c *Config) {
				c.Discovery.Endpoints = []EndpointConfig{{Port: ""}}
			},
			wantErr: true,
		},
		{
			name: "endpoint with unknown protocol",
			mutate: func(c *Config) {
				c.Discovery.Endpoints = []EndpointConfig{{Port: "tcp://h:1", Protocol: "lora"}}
			},
			wantErr: true,
		},
		{
			name:    "identify attempts below one",
			mutate:  func(c *Config) { c.Identify.Attempts = 0 },
			wantErr: true,
		},
		{
			name:    "backoff cap below base",
			mutate:  func(c *Config) { c.Identify.BackoffCap = 100 },
			wantErr: true,
		},
		{
			name:    "zero scan interval",
			mutate:  func(c *Config) { c.Lifecycle.ScanInterval = 0 },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name: "influxdb enabled without token",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Token = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_DurationGetters(t *testing.T) {
	cfg := &Config{
		Discovery: DiscoveryConfig{Interval: 30},
		Identify: IdentifyConfig{
			BackoffBase:  500,
			BackoffCap:   5000,
			ProbeTimeout: 2000,
		},
		Lifecycle: LifecycleConfig{
			ScanInterval:      0.02,
			HeartbeatInterval: 10,
			OfflineTimeout:    300,
		},
	}

	if got := cfg.GetDiscoveryInterval().Seconds(); got != 30 {
		t.Errorf("GetDiscoveryInterval() = %v, want 30", got)
	}

	if got := cfg.GetScanInterval().Milliseconds(); got != 20 {
		t.Errorf("GetScanInterval() = %vms, want 20ms", got)
	}

	if got := cfg.GetHeartbeatInterval().Seconds(); got != 10 {
		t.Errorf("GetHeartbeatInterval() = %v, want 10", got)
	}

	if got := cfg.GetOfflineTimeout().Seconds(); got != 300 {
		t.Errorf("GetOfflineTimeout() = %v, want 300", got)
	}

	if got := cfg.GetIdentifyBackoffBase().Milliseconds(); got != 500 {
		t.Errorf("GetIdentifyBackoffBase() = %vms, want 500ms", got)
	}

	if got := cfg.GetIdentifyBackoffCap().Milliseconds(); got != 5000 {
		t.Errorf("GetIdentifyBackoffCap() = %vms, want 5000ms", got)
	}

	if got := cfg.GetIdentifyProbeTimeout().Milliseconds(); got != 2000 {
		t.Errorf("GetIdentifyProbeTimeout() = %vms, want 2000ms", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GEMNS_MQTT_BROKER", "mqtt://mqtt.example.com:1883")
	t.Setenv("GEMNS_MQTT_USERNAME", "testuser")
	t.Setenv("GEMNS_MQTT_PASSWORD", "testpass")
	t.Setenv("GEMNS_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GEMNS_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GEMNS_OFFLINE_TIMEOUT", "600")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker != "mqtt://mqtt.example.com:1883" {
		t.Errorf("MQTT.Broker = %q, want %q", cfg.MQTT.Broker, "mqtt://mqtt.example.com:1883")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Lifecycle.OfflineTimeout != 600 {
		t.Errorf("Lifecycle.OfflineTimeout = %v, want 600", cfg.Lifecycle.OfflineTimeout)
	}
}

func TestApplyEnvOverrides_InvalidOfflineTimeout(t *testing.T) {
	cfg := defaultConfig()
	want := cfg.Lifecycle.OfflineTimeout

	t.Setenv("GEMNS_OFFLINE_TIMEOUT", "not-a-number")
	applyEnvOverrides(cfg)

	if cfg.Lifecycle.OfflineTimeout != want {
		t.Errorf("Lifecycle.OfflineTimeout = %v, want unchanged %v", cfg.Lifecycle.OfflineTimeout, want)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.MQTT.Broker == "" {
		t.Error("defaultConfig should have non-empty MQTT.Broker")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.Lifecycle.ScanInterval != 0.02 {
		t.Errorf("defaultConfig Lifecycle.ScanInterval = %v, want 0.02", cfg.Lifecycle.ScanInterval)
	}

	if cfg.Lifecycle.HeartbeatInterval != 10 {
		t.Errorf("defaultConfig Lifecycle.HeartbeatInterval = %v, want 10", cfg.Lifecycle.HeartbeatInterval)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate, got %v", err)
	}
}
