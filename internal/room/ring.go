package room

// ring is a fixed-capacity circular log. Writes are O(1); once full,
// each write evicts the oldest entry. Snapshots read newest-first,
// which is the order the dashboard renders transaction logs in.
type ring[T any] struct {
	buf   []T
	next  int // next write position
	count int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends an item, evicting the oldest when full.
func (r *ring[T]) push(item T) {
	r.buf[r.next] = item
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// len returns the number of stored items.
func (r *ring[T]) len() int {
	return r.count
}

// newestFirst returns a freshly allocated snapshot, most recent item
// at index 0.
func (r *ring[T]) newestFirst() []T {
	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		idx := (r.next - 1 - i + len(r.buf)) % len(r.buf)
		out[i] = r.buf[idx]
	}
	return out
}
