package querycmder

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/pkg/config"
	"github.com/papercomputeco/memhooks/pkg/query"
)

type searchCommander struct {
	params query.SearchParams
}

const searchLongDesc string = `Search memory through the worker.

Returns the worker's compact index of matching observations, summaries and
sessions. Use the ids with memhooks timeline and memhooks fetch.

Examples:
  memhooks search "flaky checkout test"
  memhooks search auth --type observation --limit 5
  memhooks search --project shop --date-start 2024-01-01`

const searchShortDesc string = "Search memory"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.params.Query = strings.Join(args, " ")
			return cmder.run(cmd)
		},
	}

	config.AddWorkerFlags(cmd)
	cmd.Flags().IntVarP(&cmder.params.Limit, "limit", "n", query.DefaultSearchLimit, "Maximum number of results (1-100)")
	cmd.Flags().StringVar(&cmder.params.Project, "project", "", "Only return results for this project")
	cmd.Flags().StringVarP(&cmder.params.Type, "type", "t", "", "Result type (observation, summary, session)")
	cmd.Flags().StringVar(&cmder.params.DateStart, "date-start", "", "Only results on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&cmder.params.DateEnd, "date-end", "", "Only results on or before this date (YYYY-MM-DD)")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command) error {
	f, env, err := facade(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	return render(cmd.OutOrStdout(), f.Search(cmd.Context(), c.params))
}
