package stats

import (
	"math"
	"math/rand"
	"sort"
)

// sampler collects numeric observations for quantile and histogram
// estimation. It keeps every value exactly until exactThreshold is crossed,
// then degrades to a fixed-size uniform reservoir so memory stays bounded on
// arbitrarily large columns.
type sampler struct {
	exactThreshold int
	reservoirSize  int

	values []float64
	seen   int64
	rng    *rand.Rand

	// sampled flips when the exact buffer is abandoned for the reservoir
	sampled bool
}

func newSampler(exactThreshold, reservoirSize int) *sampler {
	// A reservoir larger than the exact buffer would fill deterministically
	// with post-downsample arrivals, biasing the sample toward late values
	if reservoirSize > exactThreshold {
		reservoirSize = exactThreshold
	}
	return &sampler{
		exactThreshold: exactThreshold,
		reservoirSize:  reservoirSize,
		rng:            rand.New(rand.NewSource(1)),
	}
}

func (s *sampler) Observe(v float64) {
	s.seen++
	if !s.sampled {
		if len(s.values) < s.exactThreshold {
			s.values = append(s.values, v)
			return
		}
		s.downsample()
	}
	// Vitter's algorithm R
	if len(s.values) < s.reservoirSize {
		s.values = append(s.values, v)
		return
	}
	if j := s.rng.Int63n(s.seen); j < int64(s.reservoirSize) {
		s.values[j] = v
	}
}

// downsample shrinks the exact buffer to a uniform reservoir when the column
// turns out larger than the exact threshold
func (s *sampler) downsample() {
	s.sampled = true
	if len(s.values) <= s.reservoirSize {
		return
	}
	s.rng.Shuffle(len(s.values), func(i, j int) {
		s.values[i], s.values[j] = s.values[j], s.values[i]
	})
	s.values = s.values[:s.reservoirSize]
}

// Exact reports whether the sample still holds every observed value
func (s *sampler) Exact() bool {
	return !s.sampled
}

// Quantiles computes nearest-rank quantiles over the sample. The sample is
// sorted in place; call only at finalization.
func (s *sampler) Quantiles(fractions []float64) map[float64]float64 {
	if len(s.values) == 0 {
		return nil
	}
	sort.Float64s(s.values)
	out := make(map[float64]float64, len(fractions))
	for _, q := range fractions {
		idx := int(math.Ceil(q*float64(len(s.values)))) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(s.values) {
			idx = len(s.values) - 1
		}
		out[q] = s.values[idx]
	}
	return out
}

// Histogram builds uniform-width buckets over the sample. When the sample is
// a reservoir, bucket counts are scaled back up to the observed population.
func (s *sampler) Histogram(buckets int) []histBucket {
	if len(s.values) == 0 || buckets <= 0 {
		return nil
	}
	low, high := s.values[0], s.values[0]
	for _, v := range s.values[1:] {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	if low == high {
		return []histBucket{{Low: low, High: high, Count: s.seen}}
	}

	width := (high - low) / float64(buckets)
	out := make([]histBucket, buckets)
	for i := range out {
		out[i].Low = low + float64(i)*width
		out[i].High = low + float64(i+1)*width
	}
	out[buckets-1].High = high

	for _, v := range s.values {
		idx := int((v - low) / width)
		if idx >= buckets {
			idx = buckets - 1
		}
		out[idx].Count++
	}

	if s.sampled {
		scale := float64(s.seen) / float64(len(s.values))
		for i := range out {
			out[i].Count = int64(math.Round(float64(out[i].Count) * scale))
		}
	}
	return out
}

type histBucket struct {
	Low   float64
	High  float64
	Count int64
}
