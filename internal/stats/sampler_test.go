package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamplerClampsOversizedReservoir(t *testing.T) {
	// A reservoir wider than the exact buffer would fill deterministically
	// after the downsample; the sampler clamps it instead
	s := newSampler(10, 50)
	for i := 0; i < 100; i++ {
		s.Observe(float64(i))
	}

	assert.False(t, s.Exact())
	assert.LessOrEqual(t, len(s.values), 10)
	assert.Equal(t, int64(100), s.seen)
}

func TestSamplerExactBelowThreshold(t *testing.T) {
	s := newSampler(100, 10)
	for i := 1; i <= 100; i++ {
		s.Observe(float64(i))
	}

	assert.True(t, s.Exact())
	q := s.Quantiles([]float64{0.5})
	assert.Equal(t, float64(50), q[0.5])
}
