package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// (e.g. --worker-host on "memhooks hook", "memhooks serve" and
// "memhooks search") cannot drift between commands.
type Flag struct {
	// Name is the long flag name (e.g. "worker-host").
	Name string

	// Shorthand is the one-letter short flag (e.g. "p"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "worker.host").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag
// and BindRegisteredFlags.
const (
	FlagWorkerHost     = "worker-host"
	FlagWorkerPort     = "worker-port"
	FlagProbeTimeout   = "probe-timeout"
	FlagRequestTimeout = "request-timeout"
	FlagListen         = "listen"
	FlagProject        = "project"
	FlagLogJSON        = "log-json"
	FlagLogFile        = "log-file"
	FlagEventProvider  = "eventstream-provider"
	FlagEventBrokers   = "eventstream-brokers"
	FlagEventTopic     = "eventstream-topic"
)

// Flags is the registry shared by every memhooks command.
var Flags = FlagSet{
	FlagWorkerHost: {
		Name:        "worker-host",
		ViperKey:    "worker.host",
		Description: "Memory worker host",
	},
	FlagWorkerPort: {
		Name:        "worker-port",
		ViperKey:    "worker.port",
		Description: "Memory worker port",
	},
	FlagProbeTimeout: {
		Name:        "probe-timeout",
		ViperKey:    "worker.probe_timeout",
		Description: "Worker liveness probe timeout (at most 5s)",
	},
	FlagRequestTimeout: {
		Name:        "request-timeout",
		ViperKey:    "worker.request_timeout",
		Description: "Timeout for each worker call",
	},
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "bridge.listen",
		Description: "Address for the hook bridge to listen on",
	},
	FlagProject: {
		Name:        "project",
		Shorthand:   "p",
		ViperKey:    "project.name",
		Description: "Project name (defaults to the base name of the host cwd)",
	},
	FlagLogJSON: {
		Name:        "log-json",
		ViperKey:    "log.json",
		Description: "Write logs as JSON",
	},
	FlagLogFile: {
		Name:        "log-file",
		ViperKey:    "log.file",
		Description: "Also append logs to this file",
	},
	FlagEventProvider: {
		Name:        "eventstream-provider",
		ViperKey:    "eventstream.provider",
		Description: "Event tap provider (none, kafka)",
	},
	FlagEventBrokers: {
		Name:        "eventstream-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma-separated Kafka brokers for the event tap",
	},
	FlagEventTopic: {
		Name:        "eventstream-topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic for the event tap",
	},
}

// WorkerFlags are the registry keys every worker-facing command binds.
var WorkerFlags = []string{
	FlagWorkerHost,
	FlagWorkerPort,
	FlagProbeTimeout,
	FlagRequestTimeout,
	FlagLogJSON,
	FlagLogFile,
}

// EventStreamFlags are the registry keys for the optional event tap.
var EventStreamFlags = []string{
	FlagEventProvider,
	FlagEventBrokers,
	FlagEventTopic,
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddWorkerFlags registers the WorkerFlags on cmd. Values are read back
// through viper after BindRegisteredFlags, so the targets are discarded.
func AddWorkerFlags(cmd *cobra.Command) {
	var (
		host, probe, request, logFile string
		port                          uint
		logJSON                       bool
	)
	AddStringFlag(cmd, Flags, FlagWorkerHost, &host)
	AddUintFlag(cmd, Flags, FlagWorkerPort, &port)
	AddStringFlag(cmd, Flags, FlagProbeTimeout, &probe)
	AddStringFlag(cmd, Flags, FlagRequestTimeout, &request)
	AddBoolFlag(cmd, Flags, FlagLogJSON, &logJSON)
	AddStringFlag(cmd, Flags, FlagLogFile, &logFile)
}

// AddEventStreamFlags registers the EventStreamFlags on cmd.
func AddEventStreamFlags(cmd *cobra.Command) {
	var provider, brokers, topic string
	AddStringFlag(cmd, Flags, FlagEventProvider, &provider)
	AddStringFlag(cmd, Flags, FlagEventBrokers, &brokers)
	AddStringFlag(cmd, Flags, FlagEventTopic, &topic)
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
