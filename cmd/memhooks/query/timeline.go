package querycmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhooks/pkg/config"
	"github.com/papercomputeco/memhooks/pkg/query"
)

type timelineCommander struct {
	params      query.TimelineParams
	depthBefore int
	depthAfter  int
}

const timelineLongDesc string = `Show what happened around a memory entry.

Anchors on an id returned by memhooks search, or on the best match for
--query, and lists the entries recorded before and after it.

Examples:
  memhooks timeline --anchor 1042
  memhooks timeline --query "migration rollback" --before 1 --after 5`

const timelineShortDesc string = "Show context around a memory entry"

func NewTimelineCmd() *cobra.Command {
	cmder := &timelineCommander{}

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: timelineShortDesc,
		Long:  timelineLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Only depths given on the command line are sent; zero is a
			// valid depth.
			if cmd.Flags().Changed("before") {
				cmder.params.DepthBefore = &cmder.depthBefore
			}
			if cmd.Flags().Changed("after") {
				cmder.params.DepthAfter = &cmder.depthAfter
			}
			return cmder.run(cmd)
		},
	}

	config.AddWorkerFlags(cmd)
	cmd.Flags().StringVarP((*string)(&cmder.params.Anchor), "anchor", "a", "", "Id to center the timeline on")
	cmd.Flags().StringVarP(&cmder.params.Query, "query", "q", "", "Center on the best match for this query instead")
	cmd.Flags().IntVar(&cmder.depthBefore, "before", query.DefaultDepth, "Entries to show before the anchor (0-50)")
	cmd.Flags().IntVar(&cmder.depthAfter, "after", query.DefaultDepth, "Entries to show after the anchor (0-50)")
	cmd.Flags().StringVar(&cmder.params.Project, "project", "", "Only consider this project")
	cmd.MarkFlagsOneRequired("anchor", "query")

	return cmd
}

func (c *timelineCommander) run(cmd *cobra.Command) error {
	f, env, err := facade(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	return render(cmd.OutOrStdout(), f.Timeline(cmd.Context(), c.params))
}
