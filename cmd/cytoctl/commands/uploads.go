package commands

import (
	"github.com/spf13/cobra"

	"github.com/kwansinnn/cytosight-all-detect/application/queries"
	"github.com/kwansinnn/cytosight-all-detect/application/workspace"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
)

func newUploadsCommand(env *Env, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "uploads",
		Short: "List your analyses with dashboard totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, session, cleanup, err := env.signedIn(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := container.QueryBus.Ask(ctx, queries.ListUploadsQuery{Session: session})
			if err != nil {
				return env.Printer.Failure(err)
			}
			env.Printer.Uploads(out.([]entities.UploadRecord))

			out, err = container.QueryBus.Ask(ctx, queries.UploadSummaryQuery{Session: session})
			if err != nil {
				return env.Printer.Failure(err)
			}
			s := out.(workspace.Summary)
			env.Printer.Info("\n%d analyses, %d completed, %d%% average confidence, %d cells (%d benign, %d malignant, %d unknown)",
				s.TotalUploads, s.Completed, s.AvgConfidence, s.TotalCells, s.BenignCount, s.MalignantCount, s.UnknownCount)
			return nil
		},
	}
}
