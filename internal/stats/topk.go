package stats

import "sort"

// topTracker approximates the most frequent values with the space-saving
// scheme: the table is capped, and a new value evicts the current minimum,
// inheriting its count. Counts are exact while the table has not overflowed.
type topTracker struct {
	capacity int
	counts   map[string]int64
	evicted  bool
}

func newTopTracker(capacity int) *topTracker {
	return &topTracker{
		capacity: capacity,
		counts:   make(map[string]int64, capacity),
	}
}

func (t *topTracker) Observe(key string) {
	if c, ok := t.counts[key]; ok {
		t.counts[key] = c + 1
		return
	}
	if len(t.counts) < t.capacity {
		t.counts[key] = 1
		return
	}

	// Evict the minimum, new entry takes over its count
	minKey, minCount := "", int64(-1)
	for k, c := range t.counts {
		if minCount < 0 || c < minCount {
			minKey, minCount = k, c
		}
	}
	delete(t.counts, minKey)
	t.counts[key] = minCount + 1
	t.evicted = true
}

// Approximate reports whether any eviction happened, making counts estimates
func (t *topTracker) Approximate() bool {
	return t.evicted
}

// Top returns the k highest-count entries, ties broken by value for a
// deterministic order.
func (t *topTracker) Top(k int) []topEntry {
	entries := make([]topEntry, 0, len(t.counts))
	for v, c := range t.counts {
		entries = append(entries, topEntry{Value: v, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

type topEntry struct {
	Value string
	Count int64
}
