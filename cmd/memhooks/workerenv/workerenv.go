// Package workerenv builds what every worker-facing memhooks command needs
// from the resolved configuration: a logger, a worker client and the
// optional event tap.
package workerenv

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/pkg/config"
	"github.com/papercomputeco/memhooks/pkg/eventstream"
	"github.com/papercomputeco/memhooks/pkg/eventstream/async"
	"github.com/papercomputeco/memhooks/pkg/eventstream/kafka"
	"github.com/papercomputeco/memhooks/pkg/eventstream/nop"
	"github.com/papercomputeco/memhooks/pkg/logger"
	"github.com/papercomputeco/memhooks/pkg/worker"
)

// Env is the runtime of one command invocation. Close it when done.
type Env struct {
	Settings  config.Settings
	Logger    *slog.Logger
	Worker    *worker.Client
	Publisher eventstream.Publisher

	// ConfigDir is the --config-dir override, empty for dotdir resolution.
	ConfigDir string

	closers []func() error
}

// Options tweak Load.
type Options struct {
	// Flags are the registry keys bound on the command, in addition to
	// config.WorkerFlags.
	Flags []string

	// Publisher builds the event tap. Commands that never dispatch hooks
	// leave it off.
	Publisher bool

	// Stderr overrides the console log writer.
	Stderr io.Writer
}

// Load resolves configuration for cmd (flag > env > config file > default)
// and builds the runtime.
func Load(cmd *cobra.Command, opts Options) (*Env, error) {
	// Both flags are persistent on the root; a command run on its own, as in
	// tests, may not have them.
	debug, _ := cmd.Flags().GetBool("debug")
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	keys := append([]string{}, config.WorkerFlags...)
	keys = append(keys, opts.Flags...)
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	settings, err := config.Resolve(v)
	if err != nil {
		return nil, fmt.Errorf("resolving config: %w", err)
	}

	l, closeLog, err := logger.Setup{
		Debug:  debug,
		JSON:   settings.LogJSON,
		File:   settings.LogFile,
		Stderr: opts.Stderr,
	}.Build()
	if err != nil {
		return nil, err
	}

	env := &Env{
		Settings:  settings,
		Logger:    l,
		ConfigDir: configDir,
		closers:   []func() error{closeLog},
	}

	env.Worker, err = worker.NewClient(worker.Config{
		Host:           settings.WorkerHost,
		Port:           settings.WorkerPort,
		ProbeTimeout:   settings.ProbeTimeout,
		RequestTimeout: settings.RequestTimeout,
		Logger:         l,
	})
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("creating worker client: %w", err)
	}

	if opts.Publisher {
		env.Publisher, err = NewPublisher(settings, l)
		if err != nil {
			_ = env.Close()
			return nil, err
		}
		env.closers = append(env.closers, env.Publisher.Close)
	}

	return env, nil
}

// NewPublisher builds the event tap selected by settings.
func NewPublisher(s config.Settings, l *slog.Logger) (eventstream.Publisher, error) {
	if l == nil {
		l = logger.Nop()
	}

	switch s.EventStreamProvider {
	case "", config.EventStreamNone:
		return nop.NewPublisher(), nil

	case config.EventStreamKafka:
		k, err := kafka.NewPublisher(kafka.Config{
			Brokers: s.EventStreamBrokers,
			Topic:   s.EventStreamTopic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}

		// Broker writes happen off the hook path; Close drains the queue.
		p, err := async.NewPublisher(async.Config{Publisher: k, Logger: l})
		if err != nil {
			_ = k.Close()
			return nil, err
		}
		l.Info("event tap enabled",
			"provider", config.EventStreamKafka,
			"brokers", s.EventStreamBrokers,
			"topic", s.EventStreamTopic,
		)
		return p, nil

	default:
		return nil, fmt.Errorf("unknown eventstream provider %q", s.EventStreamProvider)
	}
}

// Close releases the publisher and the log file, in reverse order.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
