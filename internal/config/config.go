// Package config loads and defaults the shardhttp server configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// ConfigFileName is the name of the on-disk configuration file looked up
// by LoadFromWorkingDir.
const ConfigFileName = "shardhttp.json"

// DefaultPort is the default listen port, per the original httpd's
// "--port" option.
const DefaultPort = 10000

// DefaultQueueCapacity is the bounded reply queue's capacity (spec I2).
const DefaultQueueCapacity = 10

// Config is the complete shardhttp.json configuration schema.
type Config struct {
	// Name identifies this server instance. Each shard's Server: header
	// value and metrics const label is this name followed by
	// "-<shard index>".
	Name string `json:"name,omitempty"`

	// Address is the listen address, e.g. ":10000".
	Address string `json:"address,omitempty"`

	// Shards is the number of per-core Server instances the controller
	// fans out to. 0 means "one per GOMAXPROCS".
	Shards int `json:"shards,omitempty"`

	// QueueCapacity is the bounded reply queue capacity per connection.
	QueueCapacity int `json:"queueCapacity,omitempty"`

	// DateCacheInterval is loaded and defaulted here but is not passed to
	// the server; the Date header cache refreshes once per second
	// regardless of this value.
	DateCacheInterval Duration `json:"dateCacheInterval,omitempty"`

	// ShutdownTimeout is loaded and defaulted here but is not passed to
	// the server; Stop() waits for connections to drain with no time limit.
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty"`

	// MetricsAddress, if non-empty, is the address a separate
	// promhttp.Handler listener is bound to. Empty disables metrics
	// export (metrics export is an out-of-core concern; see SPEC_FULL.md).
	MetricsAddress string `json:"metricsAddress,omitempty"`
}

// Duration wraps time.Duration with JSON text marshaling ("5s", "1m") so
// config files stay human-editable.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Default returns a Config with every field at its documented default.
func Default() *Config {
	return &Config{
		Name:              "shardhttp",
		Address:           ":10000",
		Shards:            0,
		QueueCapacity:     DefaultQueueCapacity,
		DateCacheInterval: Duration(time.Second),
		ShutdownTimeout:   Duration(30 * time.Second),
	}
}

// applyDefaults fills any zero-valued field of c from Default().
func applyDefaults(c *Config) {
	d := Default()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = d.QueueCapacity
	}
	if c.DateCacheInterval == 0 {
		c.DateCacheInterval = d.DateCacheInterval
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Load parses JSON config bytes and fills in defaults.
func Load(data []byte) (*Config, error) {
	c := &Config{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	applyDefaults(c)
	return c, nil
}

// LoadFromWorkingDir reads ConfigFileName from dir, or returns the
// defaults if the file does not exist.
func LoadFromWorkingDir(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(data)
}
