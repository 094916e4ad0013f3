package stats

import "github.com/axiomhq/hyperloglog"

// distinctCounter counts unique values exactly in a set until the exact
// threshold is crossed, then hands the stream to a HyperLogLog sketch. All
// values observed so far are replayed into the sketch at the switch, so the
// estimate covers the full stream.
type distinctCounter struct {
	exactThreshold int
	exact          map[string]struct{}
	sketch         *hyperloglog.Sketch
}

func newDistinctCounter(exactThreshold int) *distinctCounter {
	return &distinctCounter{
		exactThreshold: exactThreshold,
		exact:          make(map[string]struct{}),
	}
}

func (d *distinctCounter) Observe(key string) {
	if d.sketch != nil {
		d.sketch.Insert([]byte(key))
		return
	}
	d.exact[key] = struct{}{}
	if len(d.exact) > d.exactThreshold {
		d.sketch = hyperloglog.New14()
		for k := range d.exact {
			d.sketch.Insert([]byte(k))
		}
		d.exact = nil
	}
}

// Approximate reports whether the count comes from the sketch
func (d *distinctCounter) Approximate() bool {
	return d.sketch != nil
}

func (d *distinctCounter) Count() int64 {
	if d.sketch != nil {
		return int64(d.sketch.Estimate())
	}
	return int64(len(d.exact))
}
