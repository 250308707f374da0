// Package hookcmder provides the hook command, the entry point host platforms
// call for every lifecycle event.
package hookcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/api"
	"github.com/papercomputeco/memhooks/cmd/memhooks/workerenv"
	"github.com/papercomputeco/memhooks/pkg/config"
	"github.com/papercomputeco/memhooks/pkg/dotdir"
	"github.com/papercomputeco/memhooks/pkg/hook"
	_ "github.com/papercomputeco/memhooks/pkg/hook/platforms"
	"github.com/papercomputeco/memhooks/pkg/plugin"
)

// maxPayload caps how much of stdin is read.
const maxPayload = 16 << 20

const bridgePingTimeout = 500 * time.Millisecond

type hookCommander struct {
	noBridge bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logger *slog.Logger
}

const hookLongDesc string = `Handle one host lifecycle event.

Reads the host payload from stdin, dispatches it to the memory worker and
writes the host-shaped answer to stdout. The command always exits 0 and
always answers with a "continue" result so a memory outage never blocks the
host.

When a hook bridge is running (see memhooks serve) the event is forwarded to
it, keyed by the host session id, so every event of a session reaches the
same plugin instance. Otherwise the event is handled in-process by a fresh
plugin instance.

Platforms: opencode, claude-code, cursor
Events:    session-init, tool-executed, context-inject, session-compacting

Examples:
  echo '{"session_id":"s1","cwd":"/src/app","prompt":"hi"}' | memhooks hook claude-code session-init
  memhooks hook claude-code context-inject < payload.json`

const hookShortDesc string = "Handle one host lifecycle event"

func NewHookCmd() *cobra.Command {
	cmder := &hookCommander{}

	cmd := &cobra.Command{
		Use:   "hook <platform> <event>",
		Short: hookShortDesc,
		Long:  hookLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.stdin = cmd.InOrStdin()
			cmder.stdout = cmd.OutOrStdout()
			cmder.stderr = cmd.ErrOrStderr()
			cmder.run(cmd, hook.Platform(args[0]), args[1])
			return nil
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			switch len(args) {
			case 0:
				names := []string{}
				for _, p := range hook.Platforms() {
					names = append(names, string(p))
				}
				return names, cobra.ShellCompDirectiveNoFileComp
			case 1:
				names := []string{}
				for _, k := range hook.EventKinds() {
					names = append(names, string(k))
				}
				return names, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	config.AddWorkerFlags(cmd)
	config.AddEventStreamFlags(cmd)
	var project string
	config.AddStringFlag(cmd, config.Flags, config.FlagProject, &project)
	cmd.Flags().BoolVar(&cmder.noBridge, "no-bridge", false, "Handle the event in-process even when a bridge is running")

	return cmd
}

// run never fails: every problem is logged and answered with "continue".
func (c *hookCommander) run(cmd *cobra.Command, platform hook.Platform, event string) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	adapter, err := hook.New(platform, hook.Options{})
	if err != nil {
		fmt.Fprintf(c.stderr, "memhooks: %v\n", err)
		c.write(map[string]any{"continue": true})
		return
	}
	fallback := adapter.FormatOutput(hook.Continue())

	kind, ok := hook.ParseEventKind(event)
	if !ok {
		fmt.Fprintf(c.stderr, "memhooks: unknown event %q (available: %v)\n", event, hook.EventKinds())
		c.write(fallback)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.stdin, maxPayload))
	if err != nil {
		fmt.Fprintf(c.stderr, "memhooks: reading payload: %v\n", err)
		c.write(fallback)
		return
	}

	env, err := workerenv.Load(cmd, workerenv.Options{
		Flags:     append([]string{config.FlagProject}, config.EventStreamFlags...),
		Publisher: true,
		Stderr:    c.stderr,
	})
	if err != nil {
		fmt.Fprintf(c.stderr, "memhooks: %v\n", err)
		c.write(fallback)
		return
	}
	defer env.Close()
	c.logger = env.Logger.With("platform", string(platform), "kind", kind)

	hostSession := adapter.NormalizeInput(raw).SessionID

	if !c.noBridge {
		if out, ok := c.forward(ctx, env.ConfigDir, hostSession, platform, kind, raw); ok {
			c.writeRaw(out)
			return
		}
		c.hintBridge(env.ConfigDir)
	}

	// A one-shot instance adopts the host session id so the worker sees one
	// content session per host session.
	p, err := plugin.New(plugin.Config{
		Platform:  platform,
		Worker:    env.Worker,
		Publisher: env.Publisher,
		Project:   env.Settings.Project,
		SessionID: hostSession,
		Logger:    env.Logger,
	})
	if err != nil {
		c.logger.Warn("creating plugin", "error", err)
		c.write(fallback)
		return
	}

	c.write(p.Handle(ctx, kind, raw))
}

// forward sends the event to a running bridge. It reports false when there
// is no reachable bridge or the bridge fails, leaving the event to the local
// path.
func (c *hookCommander) forward(ctx context.Context, configDir, instance string, platform hook.Platform, kind hook.EventKind, raw []byte) (json.RawMessage, bool) {
	state, err := dotdir.NewManager().LoadBridgeState(configDir)
	if err != nil {
		c.logger.Debug("loading bridge state", "error", err)
		return nil, false
	}
	if state == nil {
		return nil, false
	}

	client := api.NewClient(state.URL(), 0)

	pingCtx, cancel := context.WithTimeout(ctx, bridgePingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		c.logger.Debug("bridge not reachable", "url", state.URL(), "error", err)
		return nil, false
	}

	out, err := client.Hook(ctx, instance, platform, kind, raw)
	if err != nil {
		c.logger.Warn("forwarding to bridge", "url", state.URL(), "error", err)
		return nil, false
	}
	c.logger.Debug("forwarded to bridge", "url", state.URL(), "instance", instance)
	return out, true
}

// hintBridge points at memhooks serve the first time a hook falls back to
// in-process handling, where tool events of a new process are dropped.
func (c *hookCommander) hintBridge(configDir string) {
	first, err := dotdir.NewManager().ClaimBridgeHint(configDir)
	if err != nil {
		c.logger.Debug("recording bridge hint", "error", err)
		return
	}
	if first {
		fmt.Fprintln(c.stderr, "memhooks: no hook bridge running; start `memhooks serve` to keep one session across hook calls")
	}
}

// write prints a host result: bare strings as is, everything else as JSON.
func (c *hookCommander) write(out any) {
	if s, ok := out.(string); ok {
		fmt.Fprintln(c.stdout, s)
		return
	}
	if err := json.NewEncoder(c.stdout).Encode(out); err != nil {
		fmt.Fprintf(c.stderr, "memhooks: encoding output: %v\n", err)
	}
}

// writeRaw prints a result received as JSON from the bridge.
func (c *hookCommander) writeRaw(out json.RawMessage) {
	var s string
	if json.Unmarshal(out, &s) == nil {
		fmt.Fprintln(c.stdout, s)
		return
	}
	fmt.Fprintln(c.stdout, string(out))
}
