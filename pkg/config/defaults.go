package config

const (
	defaultWorkerHost     = "127.0.0.1"
	defaultWorkerPort     = 37777
	defaultProbeTimeout   = "5s"
	defaultRequestTimeout = "10s"

	defaultBridgeListen = "127.0.0.1:37778"

	defaultEventStreamTopic = "memhooks.hooks"
)

// Event tap providers.
const (
	EventStreamNone  = "none"
	EventStreamKafka = "kafka"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Worker: WorkerConfig{
			Host:           defaultWorkerHost,
			Port:           defaultWorkerPort,
			ProbeTimeout:   defaultProbeTimeout,
			RequestTimeout: defaultRequestTimeout,
		},
		Bridge: BridgeConfig{
			Listen: defaultBridgeListen,
		},
		EventStream: EventStreamConfig{
			Provider: EventStreamNone,
			Topic:    defaultEventStreamTopic,
		},
	}
}
