// Package contextcmder provides the context command, which prints the memory
// context the worker would inject for a project.
package contextcmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/cmd/memhooks/workerenv"
	"github.com/papercomputeco/memhooks/pkg/cliui"
	"github.com/papercomputeco/memhooks/pkg/config"
	"github.com/papercomputeco/memhooks/pkg/dispatch"
	"github.com/papercomputeco/memhooks/pkg/worker"
)

type contextCommander struct {
	raw bool
}

const contextLongDesc string = `Print the memory context for a project.

Shows exactly what a host would get appended to its system prompt. The
project defaults to --project, then project.name from config, then the base
name of the current directory.

Examples:
  memhooks context
  memhooks context shop
  memhooks context --raw > context.md`

const contextShortDesc string = "Print the memory context for a project"

func NewContextCmd() *cobra.Command {
	cmder := &contextCommander{}

	cmd := &cobra.Command{
		Use:   "context [project]",
		Short: contextShortDesc,
		Long:  contextLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := ""
			if len(args) == 1 {
				project = args[0]
			}
			return cmder.run(cmd, project)
		},
	}

	config.AddWorkerFlags(cmd)
	var project string
	config.AddStringFlag(cmd, config.Flags, config.FlagProject, &project)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the context as returned, without markdown rendering")

	return cmd
}

func (c *contextCommander) run(cmd *cobra.Command, project string) error {
	env, err := workerenv.Load(cmd, workerenv.Options{
		Flags:  []string{config.FlagProject},
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer env.Close()

	if project == "" {
		project = env.Settings.Project
	}
	if project == "" {
		cwd, _ := os.Getwd()
		project = dispatch.ProjectName(cwd)
	}

	ctx := cmd.Context()
	if !env.Worker.EnsureWorker(ctx) {
		return fmt.Errorf("%w at %s", worker.ErrUnavailable, env.Worker.BaseURL())
	}

	text, err := env.Worker.InjectContext(ctx, project)
	if err != nil {
		return fmt.Errorf("fetching context for %q: %w", project, err)
	}

	out := cmd.OutOrStdout()
	if text == "" {
		fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("No memory context for "+project+"."))
		return nil
	}

	if c.raw {
		fmt.Fprintln(out, text)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(text)
	if err != nil {
		env.Logger.Debug("rendering markdown", "error", err)
	}
	fmt.Fprint(out, rendered)
	return nil
}
