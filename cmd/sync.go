package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/spf13/cobra"

	"github.com/openswoop/uafresult/pkg/app"
	"github.com/openswoop/uafresult/pkg/database"
)

var dryRun bool

// computedEvent is published once a result has been merged into BigQuery.
type computedEvent struct {
	RunID     string  `json:"runId"`
	RegNumber string  `json:"regNumber"`
	CGPA      *string `json:"cgpa"`
}

func newComputedEvent(run database.Run) computedEvent {
	e := computedEvent{RunID: run.ID, RegNumber: run.RegNumber}
	if run.Summary.CGPA.Computable() {
		cgpa := run.Summary.CGPA.String()
		e.CGPA = &cgpa
	}
	return e
}

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [regnum...]",
	Short: "Fetch results and export them to BigQuery",
	Long: `Fetches and computes each registration number, records the results in
the local SQLite database, merges the course rows into BigQuery and
publishes a result-computed event on Pub/Sub for every run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.BigQuery.Project == "" {
			return errors.New("bigquery.project must be set to sync")
		}
		ctx := cmd.Context()

		outcomes, err := app.FetchAll(ctx, newFetcher(cmd, cfg.Fetch), args, app.Options{
			Parallel: cfg.Fetch.Parallel,
			Rate:     cfg.Fetch.Rate,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		sqlite, err := database.NewSqlite(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer sqlite.Close()

		if dryRun {
			runs, err := app.Save(outcomes, sqlite)
			if err != nil {
				return err
			}
			logger.Info("dry run: results will not be exported", slog.Int("runs", len(runs)))
			return nil
		}

		// Connect to BigQuery
		bq, err := database.NewBigQuery(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset)
		if err != nil {
			return fmt.Errorf("failed to connect to bigquery: %w", err)
		}
		defer bq.Close()

		runs, err := app.Save(outcomes, sqlite, bq)
		if err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}

		if err := publish(ctx, runs); err != nil {
			return err
		}
		logger.Info("synced results", slog.Int("runs", len(runs)), slog.String("dataset", cfg.BigQuery.Dataset))
		return nil
	},
}

func publish(ctx context.Context, runs []database.Run) error {
	if cfg.BigQuery.Topic == "" {
		return nil
	}

	// Connect to PubSub
	client, err := pubsub.NewClient(ctx, cfg.BigQuery.Project)
	if err != nil {
		return fmt.Errorf("failed to create pubsub client: %w", err)
	}
	defer client.Close()

	topic := client.Topic(cfg.BigQuery.Topic)
	defer topic.Stop()

	results := make([]*pubsub.PublishResult, 0, len(runs))
	for _, run := range runs {
		msg, err := json.Marshal(newComputedEvent(run))
		if err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		results = append(results, topic.Publish(ctx, &pubsub.Message{Data: msg}))
	}
	for i, res := range results {
		if _, err := res.Get(ctx); err != nil {
			return fmt.Errorf("failed to publish event for %s: %w", runs[i].RegNumber, err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	bindFetchFlags(syncCmd)
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and store locally without exporting to BigQuery")
}
