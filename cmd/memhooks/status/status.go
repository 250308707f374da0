// Package statuscmder provides the status command for checking the memory
// worker and the hook bridge.
package statuscmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/api"
	"github.com/papercomputeco/memhooks/cmd/memhooks/workerenv"
	"github.com/papercomputeco/memhooks/pkg/cliui"
	"github.com/papercomputeco/memhooks/pkg/config"
	"github.com/papercomputeco/memhooks/pkg/dotdir"
	"github.com/papercomputeco/memhooks/pkg/worker"
)

const bridgeTimeout = 2 * time.Second

var errBridgeDown = errors.New("bridge not reachable")

const statusLongDesc string = `Check the memory worker and the hook bridge.

Probes the worker readiness endpoint and, when .memhooks/bridge.json records
a running bridge, pings it. Exits non-zero when the worker is unavailable.

Examples:
  memhooks status
  memhooks status --worker-port 38000`

const statusShortDesc string = "Check the worker and the bridge"

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd)
		},
	}

	config.AddWorkerFlags(cmd)

	return cmd
}

func runStatus(cmd *cobra.Command) error {
	env, err := workerenv.Load(cmd, workerenv.Options{Stderr: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Worker:"),
		cliui.ValueStyle.Render(env.Worker.BaseURL()),
	)

	workerErr := cliui.Step(out, "Probing memory worker", func() error {
		if !env.Worker.EnsureWorker(ctx) {
			return worker.ErrUnavailable
		}
		return nil
	})

	printBridge(ctx, out, env.ConfigDir)
	fmt.Fprintln(out)

	return workerErr
}

func printBridge(ctx context.Context, out io.Writer, configDir string) {
	state, err := dotdir.NewManager().LoadBridgeState(configDir)
	if err != nil {
		fmt.Fprintf(out, "  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
		return
	}
	if state == nil {
		fmt.Fprintf(out, "  %s %s\n", cliui.DimStyle.Render("●"), cliui.DimStyle.Render("No bridge running. Hooks are handled in-process."))
		return
	}

	_ = cliui.Step(out, "Pinging bridge at "+state.URL(), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, bridgeTimeout)
		defer cancel()
		if err := api.NewClient(state.URL(), bridgeTimeout).Ping(pingCtx); err != nil {
			return errBridgeDown
		}
		return nil
	})
	fmt.Fprintf(out, "  %s %s\n",
		cliui.KeyStyle.Render("Started:"),
		cliui.DimStyle.Render(fmt.Sprintf("%s (pid %d)", state.StartedAt.Format(time.RFC3339), state.PID)),
	)
}
