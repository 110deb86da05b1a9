package cmd

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leighmacdonald/fraglog/internal/domain"
	"github.com/leighmacdonald/fraglog/pkg/log"
	"github.com/spf13/cobra"
)

var errImport = errors.New("failed to import submissions")

// importCmd replays raw submission bodies saved to disk, one file per
// submission, through the normal ingest pipeline.
func importCmd() *cobra.Command {
	var importPath = ""

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import saved submission files from a directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, errApp := NewApp()
			if errApp != nil {
				return errApp
			}

			defer func() {
				if errClose := app.Close(ctx); errClose != nil {
					slog.Error("Error closing", slog.String("error", errClose.Error()))
				}
			}()

			if errInit := app.Init(ctx); errInit != nil {
				return errInit
			}

			entries, errDir := os.ReadDir(importPath)
			if errDir != nil {
				return errors.Join(errDir, errImport)
			}

			var imported, skipped int

			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}

				fullPath := filepath.Join(importPath, entry.Name())

				body, errRead := os.ReadFile(fullPath)
				if errRead != nil {
					return errors.Join(errRead, errImport)
				}

				_, errSubmit := app.games.ImportFile(ctx, entry.Name(), string(body))
				if errSubmit != nil {
					// Rejected submissions are expected in old capture dirs,
					// keep going and report them at the end.
					if errors.Is(errSubmit, domain.ErrInvalidSubmission) || errors.Is(errSubmit, domain.ErrEmptySubmission) {
						slog.Warn("Skipped submission", slog.String("file", entry.Name()), log.ErrAttr(errSubmit))

						skipped++

						continue
					}

					return errors.Join(errSubmit, errImport)
				}

				imported++
			}

			slog.Info("Import complete", slog.Int("imported", imported), slog.Int("skipped", skipped))

			return nil
		},
	}

	cmd.Flags().StringVarP(&importPath, "import", "i", "", "Path to data to load")

	return cmd
}
