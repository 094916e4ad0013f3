// Package stats computes column statistics in a single streaming pass. Every
// requested statistic is folded into one accumulator per computation, so a
// column chunk is decoded exactly once no matter how many statistics the
// request carries.
package stats

import (
	"context"
	"io"
	"time"

	"parqscope/internal/metrics"
	"parqscope/internal/model"
	"parqscope/internal/source"
)

// Options bound the memory of the approximate trackers
type Options struct {
	// TopK is how many top values a snapshot reports
	TopK int
	// TopCapacity is the size of the space-saving frequency table
	TopCapacity int
	// HistogramBuckets is the number of uniform-width buckets
	HistogramBuckets int
	// ExactQuantileThreshold is the largest column kept fully in memory
	// for exact quantiles
	ExactQuantileThreshold int
	// ReservoirSize is the sample size once the exact threshold is crossed
	ReservoirSize int
	// DistinctExactThreshold is the largest cardinality counted exactly
	// before switching to a HyperLogLog sketch
	DistinctExactThreshold int
	// QuantileFractions are the reported quantiles
	QuantileFractions []float64
}

// DefaultOptions returns the standard tracker bounds
func DefaultOptions() Options {
	return Options{
		TopK:                   10,
		TopCapacity:            100,
		HistogramBuckets:       10,
		ExactQuantileThreshold: 100000,
		ReservoirSize:          10000,
		DistinctExactThreshold: 50000,
		QuantileFractions:      []float64{0.25, 0.5, 0.75},
	}
}

// Computer runs statistics computations against a data source
type Computer struct {
	opts Options
}

func NewComputer(opts Options) *Computer {
	if opts.TopK <= 0 {
		opts = DefaultOptions()
	}
	return &Computer{opts: opts}
}

// Compute streams the column once over the requested scope and returns its
// snapshot. Statistics the column's logical type cannot support are listed
// in the snapshot's Omitted field instead of failing the call. Cancelling
// the context aborts between pages with the context's error.
func (c *Computer) Compute(ctx context.Context, src source.DataSource, columnPath string, scope model.Scope, set model.StatSet) (*model.StatSnapshot, error) {
	col, ok := src.Schema().Column(columnPath)
	if !ok {
		return nil, source.NewColumnNotFoundError(columnPath)
	}

	groups := src.RowGroups()
	if !scope.IsFile() && (scope.RowGroup < 0 || scope.RowGroup >= len(groups)) {
		return nil, source.NewRowGroupRangeError(scope.RowGroup, len(groups))
	}

	effective := set & model.SupportedStats(col.Type)
	omitted := (set &^ effective).Names()

	start := time.Now()
	acc := newAccumulator(col.Type, effective, c.opts)

	first, last := scope.RowGroup, scope.RowGroup
	if scope.IsFile() {
		first, last = 0, len(groups)-1
	}
	for rg := first; rg <= last; rg++ {
		if err := c.scanRowGroup(ctx, src, rg, columnPath, acc); err != nil {
			return nil, err
		}
	}

	snap := acc.Snapshot(columnPath, scope, c.opts)
	snap.Omitted = omitted
	snap.ComputedAt = time.Now()
	snap.Elapsed = time.Since(start)

	metrics.RecordComputation(columnPath, scope.String())
	metrics.RecordComputationDuration(columnPath, snap.Elapsed.Seconds())
	return snap, nil
}

func (c *Computer) scanRowGroup(ctx context.Context, src source.DataSource, rowGroup int, columnPath string, acc *accumulator) error {
	it, err := src.ReadColumn(ctx, rowGroup, columnPath)
	if err != nil {
		return err
	}
	defer it.Close()

	for {
		v, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		acc.Observe(v)
	}
}
