package stats

import (
	"math"

	"parqscope/internal/model"
)

// accumulator folds a value stream into one snapshot in a single pass.
// Which trackers are live depends on the effective statistic set; a stat
// that was not requested (or that the column's type cannot support) costs
// nothing per value.
type accumulator struct {
	kind model.Kind
	set  model.StatSet

	count int64
	nulls int64

	min *model.Value
	max *model.Value

	// Welford's online mean and variance
	mean float64
	m2   float64
	nNum int64

	trueCount  int64
	falseCount int64

	sample   *sampler
	top      *topTracker
	distinct *distinctCounter
}

func newAccumulator(kind model.Kind, set model.StatSet, opts Options) *accumulator {
	acc := &accumulator{kind: kind, set: set}
	if set.Has(model.StatQuantiles) || set.Has(model.StatHistogram) {
		acc.sample = newSampler(opts.ExactQuantileThreshold, opts.ReservoirSize)
	}
	if set.Has(model.StatTopK) {
		acc.top = newTopTracker(opts.TopCapacity)
	}
	if set.Has(model.StatDistinct) {
		acc.distinct = newDistinctCounter(opts.DistinctExactThreshold)
	}
	return acc
}

func (a *accumulator) Observe(v model.Value) {
	a.count++
	if v.Null {
		a.nulls++
		return
	}

	if a.set.Has(model.StatMinMax) {
		if a.min == nil || v.Compare(*a.min) < 0 {
			c := v
			a.min = &c
		}
		if a.max == nil || v.Compare(*a.max) > 0 {
			c := v
			a.max = &c
		}
	}

	if a.set.Has(model.StatBoolCounts) && v.Kind == model.KindBoolean {
		if v.Bool {
			a.trueCount++
		} else {
			a.falseCount++
		}
	}

	if num, ok := numericOf(v); ok {
		if a.set.Has(model.StatMeanStddev) {
			a.nNum++
			delta := num - a.mean
			a.mean += delta / float64(a.nNum)
			a.m2 += delta * (num - a.mean)
		}
		if a.sample != nil {
			a.sample.Observe(num)
		}
	}

	if a.top != nil || a.distinct != nil {
		key := v.Display()
		if a.top != nil {
			a.top.Observe(key)
		}
		if a.distinct != nil {
			a.distinct.Observe(key)
		}
	}
}

// numericOf maps a value onto the axis used for quantiles and histograms.
// Strings contribute their length, which keeps length distributions visible
// without an ordering over the values themselves.
func numericOf(v model.Value) (float64, bool) {
	switch v.Kind {
	case model.KindInteger:
		return float64(v.Int), true
	case model.KindFloat:
		return v.Float, true
	case model.KindString:
		return float64(len(v.Str)), true
	default:
		return 0, false
	}
}

// Snapshot finalizes the accumulated state. The accumulator must not be
// observed again afterwards.
func (a *accumulator) Snapshot(column string, scope model.Scope, opts Options) *model.StatSnapshot {
	snap := &model.StatSnapshot{
		Column:  column,
		Scope:   scope,
		Type:    a.kind,
		Count:   a.count,
		Nulls:   a.nulls,
		NonNull: a.count - a.nulls,
		Min:     a.min,
		Max:     a.max,
	}

	if a.set.Has(model.StatMeanStddev) && a.nNum > 0 {
		mean := a.mean
		snap.Mean = &mean
		var stddev float64
		if a.nNum > 1 {
			stddev = math.Sqrt(a.m2 / float64(a.nNum-1))
		}
		snap.Stddev = &stddev
	}

	if a.set.Has(model.StatBoolCounts) {
		t, f := a.trueCount, a.falseCount
		snap.TrueCount = &t
		snap.FalseCount = &f
	}

	if a.set.Has(model.StatQuantiles) && a.sample != nil {
		snap.Quantiles = a.sample.Quantiles(opts.QuantileFractions)
		if !a.sample.Exact() {
			snap.Approximate = true
		}
	}

	if a.set.Has(model.StatHistogram) && a.sample != nil {
		for _, b := range a.sample.Histogram(opts.HistogramBuckets) {
			snap.Histogram = append(snap.Histogram, model.HistogramBucket{
				Low:   b.Low,
				High:  b.High,
				Count: b.Count,
			})
		}
		if !a.sample.Exact() {
			snap.Approximate = true
		}
	}

	if a.distinct != nil {
		n := a.distinct.Count()
		snap.Distinct = &n
		if a.distinct.Approximate() {
			snap.Approximate = true
		}
	}

	if a.top != nil {
		for _, e := range a.top.Top(opts.TopK) {
			snap.TopValues = append(snap.TopValues, model.TopValue{Value: e.Value, Count: e.Count})
		}
		if a.top.Approximate() {
			snap.Approximate = true
		}
	}

	return snap
}
