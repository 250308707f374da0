// Package configcmder provides the config command for managing persistent
// memhooks configuration stored in the .memhooks/ directory.
package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/pkg/cliui"
)

const configLongDesc string = `Manage persistent memhooks configuration.

Configuration is stored as config.toml in the .memhooks/ directory and
provides default values for command flags. CLI flags and MEMHOOKS_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  worker.host, worker.port, worker.probe_timeout, worker.request_timeout,
  bridge.listen, project.name, log.json, log.file,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  memhooks config set <key> <value>    Set a configuration value
  memhooks config get <key>            Get a configuration value
  memhooks config list                 List all configuration values

Examples:
  memhooks config set worker.port 38000
  memhooks config get worker.host
  memhooks config list`

const configShortDesc string = "Manage persistent memhooks configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func printTarget(cmd *cobra.Command, target string) {
	out := cmd.OutOrStdout()
	if target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
