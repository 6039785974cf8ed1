package memory

// ring is a bounded FIFO: pushing past capacity evicts the oldest entry.
// It is not safe for concurrent use; Store guards it with bufMu.
type ring[T any] struct {
	items []T
	size  int
}

func newRing[T any](size int) *ring[T] {
	return &ring[T]{items: make([]T, 0, size), size: size}
}

func (r *ring[T]) push(v T) {
	if len(r.items) == r.size {
		copy(r.items, r.items[1:])
		r.items[len(r.items)-1] = v
		return
	}
	r.items = append(r.items, v)
}

func (r *ring[T]) len() int { return len(r.items) }

// last returns up to n of the newest entries, oldest first.
func (r *ring[T]) last(n int) []T {
	if n <= 0 || len(r.items) == 0 {
		return nil
	}
	if n > len(r.items) {
		n = len(r.items)
	}
	out := make([]T, n)
	copy(out, r.items[len(r.items)-n:])
	return out
}

func (r *ring[T]) all() []T {
	return r.last(len(r.items))
}
