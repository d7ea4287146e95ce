package commands

import (
	"github.com/spf13/cobra"

	"github.com/kwansinnn/cytosight-all-detect/application/queries"
	querybus "github.com/kwansinnn/cytosight-all-detect/application/queries/bus"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
)

func newThreadsCommand(env *Env, opts *globalOptions) *cobra.Command {
	var marked string

	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List discussion threads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind valueobjects.MarkerKind
			if marked != "" {
				k, err := valueobjects.ParseMarkerKind(marked)
				if err != nil {
					return env.Printer.Error("Invalid --marked value", err.Error(),
						[]string{"Use --marked favorite or --marked focus"})
				}
				kind = k
			}

			ctx := cmd.Context()
			container, session, cleanup, err := env.signedIn(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			var q querybus.Query = queries.ListThreadsQuery{Session: session}
			if kind != "" {
				q = queries.ListMarkedThreadsQuery{Session: session, Kind: kind}
			}
			out, err := container.QueryBus.Ask(ctx, q)
			if err != nil {
				return env.Printer.Failure(err)
			}
			env.Printer.Threads(out.([]entities.ThreadView))
			return nil
		},
	}
	cmd.Flags().StringVar(&marked, "marked", "", "only threads you marked (favorite|focus)")
	return cmd
}
