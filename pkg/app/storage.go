package app

import (
	"fmt"

	"github.com/openswoop/uafresult/pkg/database"
)

// Save stores every outcome as a new run in each database, returning the runs
// in outcome order.
func Save(outcomes []Outcome, dbs ...database.Database) ([]database.Run, error) {
	runs := make([]database.Run, 0, len(outcomes))
	for _, o := range outcomes {
		run := database.NewRun(o.RegNumber, o.Summary)
		for _, db := range dbs {
			if err := db.SaveRun(run); err != nil {
				return runs, fmt.Errorf("saving result for %s: %w", o.RegNumber, err)
			}
		}
		runs = append(runs, run)
	}
	return runs, nil
}
