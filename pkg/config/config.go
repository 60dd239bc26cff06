// Package config loads the registry's static configuration: the peer
// list, this node's URL, and the periodic-task tunables, read from a
// YAML file and overlaid onto the defaults. cmd/registryd/app supplies
// the file path from its --config flag; the individual options are not
// overridden by CLI flags or environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clusterreg/clusterreg/pkg/liveness"
)

// Config holds the registry node's complete static configuration.
type Config struct {
	ServerList        []string      `yaml:"serverList"`
	MyURL             string        `yaml:"myUrl"`
	ClusterMode       bool          `yaml:"clusterMode"`
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	NodeTimeout       time.Duration `yaml:"nodeTimeout"`
	SnapshotPath      string        `yaml:"snapshotPath"`
	SnapshotInterval  time.Duration `yaml:"snapshotInterval"`
}

// Default option values.
const (
	DefaultClusterMode       = true
	DefaultHeartbeatInterval = 5000 * time.Millisecond
	DefaultNodeTimeout       = 20000 * time.Millisecond
	DefaultSnapshotInterval  = 30 * time.Second
	DefaultSnapshotPath      = "registry-snapshot.json"
)

// yamlConfig mirrors Config but with plain-integer duration fields, so
// YAML files can spell out milliseconds/seconds as the external
// interface table specifies, rather than Go duration strings.
type yamlConfig struct {
	ServerList        []string `yaml:"serverList"`
	MyURL             string   `yaml:"myUrl"`
	ClusterMode       *bool    `yaml:"clusterMode"`
	HeartbeatInterval *int64   `yaml:"heartbeatInterval"`
	NodeTimeout       *int64   `yaml:"nodeTimeout"`
	SnapshotPath      string   `yaml:"snapshotPath"`
	SnapshotInterval  *int64   `yaml:"snapshotInterval"`
}

// Default returns a Config populated with the package defaults and no peers.
func Default() *Config {
	return &Config{
		ClusterMode:       DefaultClusterMode,
		HeartbeatInterval: DefaultHeartbeatInterval,
		NodeTimeout:       DefaultNodeTimeout,
		SnapshotPath:      DefaultSnapshotPath,
		SnapshotInterval:  DefaultSnapshotInterval,
	}
}

// Load reads a YAML config file at path and overlays it onto the
// defaults. A missing path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if raw.ServerList != nil {
		cfg.ServerList = raw.ServerList
	}
	if raw.MyURL != "" {
		cfg.MyURL = raw.MyURL
	}
	if raw.ClusterMode != nil {
		cfg.ClusterMode = *raw.ClusterMode
	}
	if raw.HeartbeatInterval != nil {
		cfg.HeartbeatInterval = time.Duration(*raw.HeartbeatInterval) * time.Millisecond
	}
	if raw.NodeTimeout != nil {
		cfg.NodeTimeout = time.Duration(*raw.NodeTimeout) * time.Millisecond
	}
	if raw.SnapshotPath != "" {
		cfg.SnapshotPath = raw.SnapshotPath
	}
	if raw.SnapshotInterval != nil {
		cfg.SnapshotInterval = time.Duration(*raw.SnapshotInterval) * time.Second
	}

	return cfg, nil
}

// Validate checks the cross-field constraint that nodeTimeout must
// exceed the liveness sweep period, so a correctly
// heartbeating instance is never evicted before a second sweep could
// have observed its renewal.
func (c *Config) Validate() error {
	if c.ClusterMode && len(c.ServerList) == 0 {
		return fmt.Errorf("clusterMode requires a non-empty serverList")
	}
	if c.NodeTimeout <= liveness.DefaultPeriod {
		return fmt.Errorf("nodeTimeout (%s) must exceed the liveness sweep period (%s)", c.NodeTimeout, liveness.DefaultPeriod)
	}
	return nil
}
