// Package initcmder provides the init command for initializing a local
// .memhooks directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/pkg/config"
)

const (
	dirName = ".memhooks"
)

type initCommander struct {
	preset string
}

const initLongDesc string = `Initialize a new .memhooks/ directory in the current working directory.

Creates a local .memhooks/ directory that takes precedence over the default
~/.memhooks/ directory for configuration and the bridge address, and writes
a config.toml from a preset unless one already exists.

Presets:
  local    Worker on 127.0.0.1:37777, no event tap (default)
  kafka    Same, with the event tap publishing to localhost:9092

This is useful for pointing one project at a different worker, or for
running a project-local bridge.

Examples:
  memhooks init
  memhooks init --preset kafka`

const initShortDesc string = "Initialize a local .memhooks/ directory"

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Config preset (%s); defaults to local", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run(cmd *cobra.Command) error {
	preset := c.preset
	if preset == "" {
		preset = "local"
	}
	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	out := cmd.OutOrStdout()

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .memhooks directory: %w", err)
		}
		fmt.Fprintf(out, "Initialized .memhooks directory: %s\n", dir)
	}

	cfger, err := config.NewConfiger(dir, false)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := os.Stat(cfger.GetTarget()); err == nil {
		if c.preset != "" {
			return fmt.Errorf("config file already exists: %s (edit it with memhooks config set)", cfger.GetTarget())
		}
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config file: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s config: %s\n", preset, cfger.GetTarget())
	return nil
}
