package commands

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kwansinnn/cytosight-all-detect/application/commands"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
)

func newAnalyzeCommand(env *Env, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze images and store the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, session, cleanup, err := env.signedIn(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return env.Printer.Error("Cannot read file", err.Error(), nil)
				}
				file := entities.FileHandle{
					Name:        filepath.Base(path),
					Size:        info.Size(),
					ContentType: mime.TypeByExtension(filepath.Ext(path)),
				}

				out, err := container.CommandBus.Send(ctx, commands.AnalyzeUploadCommand{Session: session, File: file})
				if err != nil {
					return env.Printer.Failure(err)
				}
				record := out.(*entities.UploadRecord)
				env.Printer.Success("%s: %s, %d cells, %d%% confidence",
					record.Filename, record.AnalysisResult.Verdict(), record.CellCount, record.ConfidencePercent())
			}
			return nil
		},
	}
}
