// Package querycmder provides the search, timeline and fetch commands, the
// command-line face of the memory query tools.
package querycmder

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/cmd/memhooks/workerenv"
	"github.com/papercomputeco/memhooks/pkg/cliui"
	"github.com/papercomputeco/memhooks/pkg/query"
)

// facade resolves configuration for cmd and returns a query facade with
// its runtime. The caller closes the env.
func facade(cmd *cobra.Command) (*query.Facade, *workerenv.Env, error) {
	env, err := workerenv.Load(cmd, workerenv.Options{Stderr: cmd.ErrOrStderr()})
	if err != nil {
		return nil, nil, err
	}
	return query.NewFacade(env.Worker, env.Logger), env, nil
}

// render prints the worker payload as indented JSON, or fails with the tool
// error.
func render(w io.Writer, resp query.Response) error {
	if resp.Failed() {
		return errors.New(resp.Error)
	}
	if err := cliui.RenderJSON(w, resp.Data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
