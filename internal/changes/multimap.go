package changes

import "sort"

type entry[T any] struct {
	seq   int
	value T
}

// Multimap is an ordered multimap from fingerprint to occurrences. Values in a
// bucket keep their insertion order and are consumed front first, so
// duplicates pair one-to-one in encounter order.
type Multimap[T any] struct {
	buckets map[string][]entry[T]
	seq     int
	size    int
}

// NewMultimap creates an empty multimap
func NewMultimap[T any]() *Multimap[T] {
	return &Multimap[T]{buckets: make(map[string][]entry[T])}
}

// Add appends value to the bucket for key
func (m *Multimap[T]) Add(key string, value T) {
	m.buckets[key] = append(m.buckets[key], entry[T]{seq: m.seq, value: value})
	m.seq++
	m.size++
}

// PopFront removes and returns the oldest value in the bucket for key
func (m *Multimap[T]) PopFront(key string) (T, bool) {
	bucket := m.buckets[key]
	if len(bucket) == 0 {
		var zero T
		return zero, false
	}

	front := bucket[0]
	if len(bucket) == 1 {
		delete(m.buckets, key)
	} else {
		m.buckets[key] = bucket[1:]
	}
	m.size--
	return front.value, true
}

// Remaining returns every unconsumed value in overall insertion order
func (m *Multimap[T]) Remaining() []T {
	all := make([]entry[T], 0, m.size)
	for _, bucket := range m.buckets {
		all = append(all, bucket...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	out := make([]T, len(all))
	for i, e := range all {
		out[i] = e.value
	}
	return out
}
