package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/openswoop/uafresult/pkg/app"
	"github.com/openswoop/uafresult/pkg/result"
)

var regNumber string

// computeCmd represents the compute command
var computeCmd = &cobra.Command{
	Use:   "compute [file]",
	Short: "Compute GPA and CGPA from rows already scraped",
	Long: `Reads a JSON array of rows, each an array of cell strings as they appear
in the result table, from a file or standard input and prints the
per-semester GPA and the CGPA. Nothing is fetched or stored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if len(args) == 1 && args[0] != "-" {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening rows: %w", err)
			}
			defer file.Close()
			in = file
		}

		rows, err := result.DecodeRows(in)
		if err != nil {
			return err
		}
		outcome, err := app.Compute(regNumber, rows)
		if err != nil {
			return err
		}
		return output([]app.Outcome{outcome})
	},
}

func init() {
	rootCmd.AddCommand(computeCmd)
	addOutputFlags(computeCmd)
	computeCmd.Flags().StringVar(&regNumber, "reg", "", "registration number to label the output with")
}
