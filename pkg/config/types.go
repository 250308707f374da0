package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent memhooks configuration stored as
// config.toml in the .memhooks/ directory.
type Config struct {
	Version     int               `toml:"version"`
	Worker      WorkerConfig      `toml:"worker"`
	Bridge      BridgeConfig      `toml:"bridge"`
	Project     ProjectConfig     `toml:"project"`
	Log         LogConfig         `toml:"log"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// WorkerConfig locates the memory worker. Timeouts are Go duration strings.
type WorkerConfig struct {
	Host           string `toml:"host,omitempty"`
	Port           uint   `toml:"port,omitempty"`
	ProbeTimeout   string `toml:"probe_timeout,omitempty"`
	RequestTimeout string `toml:"request_timeout,omitempty"`
}

// BridgeConfig holds hook bridge server settings.
type BridgeConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ProjectConfig overrides the project name normally derived from the host's
// working directory.
type ProjectConfig struct {
	Name string `toml:"name,omitempty"`
}

// LogConfig controls log output. Logs always go to stderr; File adds a copy.
type LogConfig struct {
	JSON bool   `toml:"json,omitempty"`
	File string `toml:"file,omitempty"`
}

// EventStreamConfig configures the optional event tap.
type EventStreamConfig struct {
	// Provider is "none" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated list of host:port pairs.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"worker.host": {
		get: func(c *Config) string { return c.Worker.Host },
		set: func(c *Config, v string) error { c.Worker.Host = v; return nil },
	},
	"worker.port": {
		get: func(c *Config) string {
			if c.Worker.Port == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Worker.Port), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 16)
			if err != nil {
				return fmt.Errorf("invalid value for worker.port: %w", err)
			}
			c.Worker.Port = uint(n)
			return nil
		},
	},
	"worker.probe_timeout": {
		get: func(c *Config) string { return c.Worker.ProbeTimeout },
		set: durationSetter("worker.probe_timeout", func(c *Config, v string) { c.Worker.ProbeTimeout = v }),
	},
	"worker.request_timeout": {
		get: func(c *Config) string { return c.Worker.RequestTimeout },
		set: durationSetter("worker.request_timeout", func(c *Config, v string) { c.Worker.RequestTimeout = v }),
	},
	"bridge.listen": {
		get: func(c *Config) string { return c.Bridge.Listen },
		set: func(c *Config, v string) error { c.Bridge.Listen = v; return nil },
	},
	"project.name": {
		get: func(c *Config) string { return c.Project.Name },
		set: func(c *Config, v string) error { c.Project.Name = v; return nil },
	},
	"log.json": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.JSON) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for log.json: %w", err)
			}
			c.Log.JSON = b
			return nil
		},
	},
	"log.file": {
		get: func(c *Config) string { return c.Log.File },
		set: func(c *Config, v string) error { c.Log.File = v; return nil },
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventStreamNone, EventStreamKafka:
				c.EventStream.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for eventstream.provider: %q (available: %s, %s)", v, EventStreamNone, EventStreamKafka)
			}
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}

func durationSetter(key string, assign func(c *Config, v string)) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid value for %s: must be positive", key)
		}
		assign(c, v)
		return nil
	}
}
