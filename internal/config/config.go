// internal/config/config.go
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logger LoggerConfig `yaml:"logger"`
}

type LoggerConfig struct {
	Line    string        `yaml:"line"`
	Device  DeviceConfig  `yaml:"device"`
	Poll    PollConfig    `yaml:"poll"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Address  string `yaml:"address"`
	Port     int    `yaml:"port"`
	TimeoutS int    `yaml:"timeout_s"`

	// Command is the fixed request frame, hex-encoded.
	Command string `yaml:"command"`

	// StrictHeader rejects responses whose envelope does not match the
	// request (protocol id, function code).
	StrictHeader bool `yaml:"strict_header"`

	// commandBytes is filled by Normalize.
	commandBytes []byte
}

// CommandBytes returns the decoded request frame.
// Valid only after Normalize.
func (d *DeviceConfig) CommandBytes() []byte { return d.commandBytes }

// ---- POLL ----

type PollConfig struct {
	IntervalS int  `yaml:"interval_s"`
	Autostart bool `yaml:"autostart"`
}

// ---- LOG ----

type LogConfig struct {
	Dir    string `yaml:"dir"`
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---- HTTP / METRICS ----

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Load reads a YAML config file and applies environment overrides.
// A .env file next to the process is honored when present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	return &cfg, nil
}

// applyEnv overrides selected fields from the environment, so a deployment
// can repoint the device without editing the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FLOWLOGGER_DEVICE_ADDRESS"); v != "" {
		cfg.Logger.Device.Address = v
	}
	if v := os.Getenv("FLOWLOGGER_DEVICE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Logger.Device.Port = p
		}
	}
	if v := os.Getenv("FLOWLOGGER_HTTP_LISTEN"); v != "" {
		cfg.Logger.HTTP.Listen = v
	}
	if v := os.Getenv("FLOWLOGGER_LOG_DIR"); v != "" {
		cfg.Logger.Log.Dir = v
	}
}
