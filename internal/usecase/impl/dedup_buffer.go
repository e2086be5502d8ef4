package impl

// dedupBuffer is a bounded, key-indexed, newest-first collection. An upsert
// with a known key replaces the entry and moves it to the front instead of
// duplicating it; an upsert beyond capacity evicts the oldest entry. The
// backing map gives O(1) dedup lookups and eviction.
type dedupBuffer[T any] struct {
	capacity int
	keys     []string // Newest first.
	items    map[string]T
}

func newDedupBuffer[T any](capacity int) *dedupBuffer[T] {
	return &dedupBuffer[T]{
		capacity: capacity,
		keys:     make([]string, 0, capacity),
		items:    make(map[string]T, capacity),
	}
}

// Upsert inserts or replaces the item under key. It returns true when the key
// was not present before (a new entry rather than a replacement), and the key
// of the evicted entry when capacity forced one out.
func (b *dedupBuffer[T]) Upsert(key string, item T) (inserted bool, evicted string, hadEviction bool) {
	if _, exists := b.items[key]; exists {
		b.items[key] = item
		b.moveToFront(key)

		return false, "", false
	}

	b.items[key] = item
	b.keys = append([]string{key}, b.keys...)

	if len(b.keys) > b.capacity {
		oldest := b.keys[len(b.keys)-1]
		b.keys = b.keys[:len(b.keys)-1]
		delete(b.items, oldest)

		return true, oldest, true
	}

	return true, "", false
}

// Remove deletes the entry under key, reporting whether it existed.
func (b *dedupBuffer[T]) Remove(key string) bool {
	if _, exists := b.items[key]; !exists {
		return false
	}
	delete(b.items, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)

			break
		}
	}

	return true
}

// Contains reports whether the key is buffered.
func (b *dedupBuffer[T]) Contains(key string) bool {
	_, exists := b.items[key]

	return exists
}

// Snapshot returns the buffered items newest first.
func (b *dedupBuffer[T]) Snapshot() []T {
	out := make([]T, 0, len(b.keys))
	for _, key := range b.keys {
		out = append(out, b.items[key])
	}

	return out
}

// Len returns the number of buffered entries.
func (b *dedupBuffer[T]) Len() int {
	return len(b.keys)
}

// Clear empties the buffer.
func (b *dedupBuffer[T]) Clear() {
	b.keys = b.keys[:0]
	b.items = make(map[string]T, b.capacity)
}

func (b *dedupBuffer[T]) moveToFront(key string) {
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)

			break
		}
	}
	b.keys = append([]string{key}, b.keys...)
}
