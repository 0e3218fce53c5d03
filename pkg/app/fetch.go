// Package app strings the fetch, compute, store and render steps together
// for one or more registration numbers.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/openswoop/uafresult/pkg/result"
	"github.com/openswoop/uafresult/pkg/scrape"
)

type Outcome struct {
	RegNumber  string
	Summary    *result.ResultSummary
	Transcript *result.Transcript
}

type Options struct {
	// Parallel bounds how many fetches are in flight.
	Parallel int
	// Rate caps fetches per second; zero means unlimited.
	Rate   float64
	Logger *slog.Logger
}

// FetchAll fetches and computes each registration number independently.
// Outcomes come back in the order the registration numbers were given. The
// first failure cancels the fetches still pending.
func FetchAll(ctx context.Context, f scrape.Fetcher, regNumbers []string, opts Options) ([]Outcome, error) {
	for _, reg := range regNumbers {
		if err := scrape.ValidateRegNumber(reg); err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	outcomes := make([]Outcome, len(regNumbers))
	for i, reg := range regNumbers {
		i, reg := i, reg
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return &scrape.FetchError{RegNumber: reg, Err: err}
			}

			logger.Debug("fetching result", slog.String("reg_number", reg))
			rows, err := f.FetchRows(ctx, reg)
			if err != nil {
				return err
			}

			outcome, err := Compute(reg, rows)
			if err != nil {
				return err
			}
			logOutcome(logger, outcome)
			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Compute runs the pipeline over rows that are already at hand.
func Compute(regNumber string, rows []result.RawRow) (Outcome, error) {
	summary, transcript, err := result.Compute(rows)
	if err != nil {
		return Outcome{}, fmt.Errorf("computing result for %s: %w", regNumber, err)
	}
	return Outcome{RegNumber: regNumber, Summary: summary, Transcript: transcript}, nil
}

func logOutcome(logger *slog.Logger, o Outcome) {
	logger.Info("computed result",
		slog.String("reg_number", o.RegNumber),
		slog.Int("semesters", len(o.Summary.Semesters)),
		slog.Int("courses", o.Transcript.Courses()),
		slog.Int("skipped", o.Transcript.Skipped),
		slog.Int("rejected", o.Transcript.Rejected),
		slog.String("cgpa", o.Summary.CGPA.String()))
	if o.Transcript.Rejected > 0 {
		logger.Warn("dropped course rows with unreadable credit or percent",
			slog.String("reg_number", o.RegNumber),
			slog.Int("rejected", o.Transcript.Rejected))
	}
}
