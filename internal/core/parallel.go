package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ContextCheckInterval is how many rows are classified between cancellation checks.
const ContextCheckInterval = 256

// DefaultParallelThreshold is the row count from which classification is
// split across workers.
const DefaultParallelThreshold = 2000

// classifyRows applies classify to every row. Large inputs are split into
// contiguous chunks classified concurrently; outcomes are written by index, so
// order is preserved either way. A cancelled context aborts the whole run.
func (p *Pipeline) classifyRows(ctx context.Context, rows []RawRow, classify func(RawRow) rowOutcome) ([]rowOutcome, error) {
	outcomes := make([]rowOutcome, len(rows))

	if p.opts.Workers <= 1 || len(rows) < p.opts.ParallelThreshold {
		if err := classifyRange(ctx, rows, outcomes, classify); err != nil {
			return nil, err
		}
		return outcomes, nil
	}

	chunk := (len(rows) + p.opts.Workers - 1) / p.opts.Workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		g.Go(func() error {
			return classifyRange(gctx, rows[start:end], outcomes[start:end], classify)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func classifyRange(ctx context.Context, rows []RawRow, out []rowOutcome, classify func(RawRow) rowOutcome) error {
	for i, row := range rows {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		out[i] = classify(row)
	}
	return ctx.Err()
}
