package querycmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/pkg/config"
	"github.com/papercomputeco/memhooks/pkg/query"
)

const fetchLongDesc string = `Fetch full memory entries by id.

Fetch only the entries you selected from search or timeline output; ids are
sent to the worker in the order given.

Examples:
  memhooks fetch 1042
  memhooks fetch 1042 1043 1050`

const fetchShortDesc string = "Fetch full memory entries by id"

func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <id>...",
		Short: fetchShortDesc,
		Long:  fetchLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return runFetch(cmd, ids)
		},
	}

	config.AddWorkerFlags(cmd)

	return cmd
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: must be an integer", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runFetch(cmd *cobra.Command, ids []int64) error {
	f, env, err := facade(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	return render(cmd.OutOrStdout(), f.BatchFetch(cmd.Context(), query.BatchParams{IDs: ids}))
}
