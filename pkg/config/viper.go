package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/memhooks/pkg/dotdir"
)

// legacyEnv maps config keys to environment variable names honored for
// compatibility with existing memory worker installs. The MEMHOOKS_ names
// win when both are set.
var legacyEnv = map[string]string{
	"worker.host": "CLAUDE_MEM_WORKER_HOST",
	"worker.port": "CLAUDE_MEM_WORKER_PORT",
}

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the MEMHOOKS_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MEMHOOKS_WORKER_HOST, CLAUDE_MEM_WORKER_PORT, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
		if err := v.ReadInConfig(); err != nil {
			// Config file not found errors are fine, defaults will apply.
			if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("MEMHOOKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envName := "MEMHOOKS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("worker.host", d.Worker.Host)
	v.SetDefault("worker.port", d.Worker.Port)
	v.SetDefault("worker.probe_timeout", d.Worker.ProbeTimeout)
	v.SetDefault("worker.request_timeout", d.Worker.RequestTimeout)

	v.SetDefault("bridge.listen", d.Bridge.Listen)

	v.SetDefault("project.name", d.Project.Name)

	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.file", d.Log.File)

	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}

// Settings are the effective values after applying viper precedence, in the
// types the rest of memhooks consumes.
type Settings struct {
	WorkerHost     string
	WorkerPort     int
	ProbeTimeout   time.Duration
	RequestTimeout time.Duration

	BridgeListen string
	Project      string

	LogJSON bool
	LogFile string

	EventStreamProvider string
	EventStreamBrokers  []string
	EventStreamTopic    string
}

// Resolve reads the effective settings out of v.
func Resolve(v *viper.Viper) (Settings, error) {
	s := Settings{
		WorkerHost:          v.GetString("worker.host"),
		WorkerPort:          v.GetInt("worker.port"),
		BridgeListen:        v.GetString("bridge.listen"),
		Project:             v.GetString("project.name"),
		LogJSON:             v.GetBool("log.json"),
		LogFile:             v.GetString("log.file"),
		EventStreamProvider: v.GetString("eventstream.provider"),
		EventStreamBrokers:  splitList(v.GetString("eventstream.brokers")),
		EventStreamTopic:    v.GetString("eventstream.topic"),
	}

	if s.WorkerPort <= 0 || s.WorkerPort > 65535 {
		return Settings{}, fmt.Errorf("invalid worker.port %d", s.WorkerPort)
	}

	var err error
	if s.ProbeTimeout, err = duration(v, "worker.probe_timeout"); err != nil {
		return Settings{}, err
	}
	if s.RequestTimeout, err = duration(v, "worker.request_timeout"); err != nil {
		return Settings{}, err
	}

	switch s.EventStreamProvider {
	case "", EventStreamNone:
		s.EventStreamProvider = EventStreamNone
	case EventStreamKafka:
		if len(s.EventStreamBrokers) == 0 {
			return Settings{}, errors.New("eventstream.brokers is required for the kafka provider")
		}
	default:
		return Settings{}, fmt.Errorf("unknown eventstream.provider %q", s.EventStreamProvider)
	}

	return s, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
