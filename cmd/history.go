package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/openswoop/uafresult/pkg/database"
	"github.com/openswoop/uafresult/pkg/scrape"
)

var showSubjects bool

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <regnum>",
	Short: "List the results recorded for a registration number",
	Long: `Lists every result previously fetched for a registration number from the
local SQLite database, newest first. With --subjects the stored course rows
of the latest result are printed as CSV instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := args[0]
		if err := scrape.ValidateRegNumber(reg); err != nil {
			return err
		}

		sqlite, err := database.NewSqlite(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer sqlite.Close()

		runs, err := sqlite.History(reg)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return fmt.Errorf("no results recorded for %s", reg)
		}

		if showSubjects {
			rows, err := sqlite.Subjects(runs[0].RunID)
			if err != nil {
				return err
			}
			return gocsv.Marshal(rows, os.Stdout)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tFETCHED\tSEMESTERS\tCREDIT\tCGPA")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				r.RunID, r.FetchedAt.Local().Format("2006-01-02 15:04"), r.Semesters, r.TotalCredit, r.CGPAText())
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&showSubjects, "subjects", false, "print the course rows of the latest result as CSV")
}
