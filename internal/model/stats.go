package model

import (
	"fmt"
	"time"
)

// WholeFile is the row group index meaning "all row groups"
const WholeFile = -1

// Scope selects the rows a statistic is computed over: the whole file or
// one row group.
type Scope struct {
	RowGroup int
}

// FileScope covers every row group in the file
func FileScope() Scope {
	return Scope{RowGroup: WholeFile}
}

// RowGroupScope covers a single row group
func RowGroupScope(index int) Scope {
	return Scope{RowGroup: index}
}

// IsFile reports whether the scope covers the whole file
func (s Scope) IsFile() bool {
	return s.RowGroup == WholeFile
}

func (s Scope) String() string {
	if s.IsFile() {
		return "file"
	}
	return fmt.Sprintf("rg%d", s.RowGroup)
}

// StatSet is a bitmask of requested statistics
type StatSet uint32

const (
	StatCounts StatSet = 1 << iota
	StatMinMax
	StatMeanStddev
	StatQuantiles
	StatDistinct
	StatTopK
	StatHistogram
	StatBoolCounts

	StatBasic = StatCounts | StatMinMax
	StatAll   = StatCounts | StatMinMax | StatMeanStddev | StatQuantiles |
		StatDistinct | StatTopK | StatHistogram | StatBoolCounts
)

// Has reports whether every statistic in sub is requested
func (s StatSet) Has(sub StatSet) bool {
	return s&sub == sub
}

// Names lists the display names of the statistics in the set
func (s StatSet) Names() []string {
	var names []string
	for _, e := range statNames {
		if s.Has(e.set) {
			names = append(names, e.name)
		}
	}
	return names
}

var statNames = []struct {
	set  StatSet
	name string
}{
	{StatCounts, "counts"},
	{StatMinMax, "min/max"},
	{StatMeanStddev, "mean/stddev"},
	{StatQuantiles, "quantiles"},
	{StatDistinct, "distinct"},
	{StatTopK, "top values"},
	{StatHistogram, "histogram"},
	{StatBoolCounts, "true/false counts"},
}

// TopValue is one entry of the capped frequency table
type TopValue struct {
	Value string
	Count int64
}

// HistogramBucket is one uniform-width bucket. For string columns the
// bounds are value lengths rather than values.
type HistogramBucket struct {
	Low   float64
	High  float64
	Count int64
}

// StatSnapshot is the immutable result of one statistics computation for a
// (column, scope) pair. A newer computation for the same key supersedes it;
// snapshots are never mutated in place.
//
// Invariant: Count == Nulls + NonNull, and NonNull never exceeds the
// scope's row count.
type StatSnapshot struct {
	Column string
	Scope  Scope
	Type   Kind

	Count   int64
	Nulls   int64
	NonNull int64

	Min *Value
	Max *Value

	Mean   *float64
	Stddev *float64

	// Quantiles maps the fraction (0.25, 0.5, 0.75) to its value
	Quantiles map[float64]float64

	Distinct *int64

	TrueCount  *int64
	FalseCount *int64

	TopValues []TopValue
	Histogram []HistogramBucket

	// Approximate marks results derived from sampling or sketches
	Approximate bool

	// Omitted lists requested statistics skipped because the column's
	// logical type does not support them
	Omitted []string

	ComputedAt time.Time
	Elapsed    time.Duration
}

// NullPercentage returns the share of null values in the scope
func (s *StatSnapshot) NullPercentage() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Nulls) / float64(s.Count) * 100
}

// CacheKey identifies one cached snapshot. At most one snapshot is cached
// per key at any time.
type CacheKey struct {
	Column string
	Scope  Scope
	Set    StatSet
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%s|%d", k.Column, k.Scope, k.Set)
}
