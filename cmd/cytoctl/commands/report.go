package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kwansinnn/cytosight-all-detect/application/commands"
	"github.com/kwansinnn/cytosight-all-detect/application/queries"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/report"
)

type reportOptions struct {
	title    string
	format   string
	template string
	selected []string
	notes    string
	outDir   string
}

func newReportCommand(env *Env, opts *globalOptions) *cobra.Command {
	ro := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a report over your completed analyses",
		Long: `Generates a report and writes it to --out-dir. Without --select every
completed analysis is included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(ro.format)
			if err != nil {
				return env.Printer.Failure(err, "Use --format json, html, pdf or docx")
			}

			ctx := cmd.Context()
			container, session, cleanup, err := env.signedIn(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			selected := ro.selected
			if len(selected) == 0 {
				out, err := container.QueryBus.Ask(ctx, queries.ListUploadsQuery{Session: session})
				if err != nil {
					return env.Printer.Failure(err)
				}
				for _, r := range out.([]entities.UploadRecord) {
					if r.Status.IsCompleted() {
						selected = append(selected, r.ID)
					}
				}
			}

			cfg := report.DefaultConfig()
			cfg.Title = ro.title
			cfg.Format = format
			cfg.Notes = ro.notes
			cfg.SelectedUploads = selected

			out, err := container.CommandBus.Send(ctx, commands.GenerateReportCommand{
				Session:  session,
				Config:   cfg,
				Template: report.Template(ro.template),
			})
			if err != nil {
				return env.Printer.Failure(err)
			}
			generated := out.(*commands.GeneratedReport)

			path := filepath.Join(ro.outDir, generated.Filename)
			if err := os.WriteFile(path, generated.Body, 0o644); err != nil {
				return env.Printer.Error("Cannot write report", err.Error(), nil)
			}
			env.Printer.Success("Wrote %s (%d analyses)", path, len(generated.Document.SelectedUploads))
			return nil
		},
	}

	cmd.Flags().StringVar(&ro.title, "title", "", "report title")
	cmd.Flags().StringVar(&ro.format, "format", string(report.FormatJSON), "json, html, pdf or docx")
	cmd.Flags().StringVar(&ro.template, "template", "", "weekly-summary or clinical-report")
	cmd.Flags().StringSliceVar(&ro.selected, "select", nil, "analysis IDs to include")
	cmd.Flags().StringVar(&ro.notes, "notes", "", "free-text notes")
	cmd.Flags().StringVar(&ro.outDir, "out-dir", ".", "directory the report is written to")
	return cmd
}
