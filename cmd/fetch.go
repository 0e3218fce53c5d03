package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openswoop/uafresult/pkg/app"
	"github.com/openswoop/uafresult/pkg/database"
	"github.com/openswoop/uafresult/pkg/report"
)

var (
	format string
	outDir string
	noSave bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [regnum...]",
	Short: "Fetch results and compute GPA and CGPA",
	Long: `Given one or more registration numbers (e.g. 2019-ag-1234) this command
fetches each published result, prints the per-semester GPA and the CGPA,
and records the computed result in a local SQLite database.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outcomes, err := app.FetchAll(cmd.Context(), newFetcher(cmd, cfg.Fetch), args, app.Options{
			Parallel: cfg.Fetch.Parallel,
			Rate:     cfg.Fetch.Rate,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		if !noSave {
			sqlite, err := database.NewSqlite(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer sqlite.Close()
			if _, err := app.Save(outcomes, sqlite); err != nil {
				return err
			}
			logger.Info("saved to database", slog.String("path", cfg.Database.Path))
		}

		return output(outcomes)
	},
}

// output prints the outcomes, or writes one file each when --out is set.
func output(outcomes []app.Outcome) error {
	if outDir == "" {
		return app.Render(os.Stdout, outcomes, format)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}
	files, err := app.WriteFiles(outDir, outcomes, format)
	for _, file := range files {
		logger.Info("wrote to file", slog.String("file", file))
	}
	return err
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatJSON, "output format: json, yaml, csv or xlsx")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write one file per registration number into this directory")
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	bindFetchFlags(fetchCmd)
	addOutputFlags(fetchCmd)
	fetchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the results in the local database")
}
