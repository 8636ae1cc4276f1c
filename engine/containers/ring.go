package containers

// Ring is a fixed-size ring with a cursor. The frame loop uses it to rotate
// through per-frame resources; the cursor always stays in [0, Len()).
type Ring[T any] struct {
	items  []T
	cursor int
}

func NewRing[T any](items []T) *Ring[T] {
	return &Ring[T]{items: items}
}

// Current returns the element under the cursor. It panics on an empty ring.
func (r *Ring[T]) Current() T {
	return r.items[r.cursor]
}

// Advance moves the cursor one step, wrapping at Len().
func (r *Ring[T]) Advance() {
	if len(r.items) == 0 {
		return
	}
	r.cursor = (r.cursor + 1) % len(r.items)
}

func (r *Ring[T]) Index() int {
	return r.cursor
}

func (r *Ring[T]) Len() int {
	return len(r.items)
}

func (r *Ring[T]) IsEmpty() bool {
	return len(r.items) == 0
}

// Each visits the elements in storage order.
func (r *Ring[T]) Each(fn func(i int, item T)) {
	for i, it := range r.items {
		fn(i, it)
	}
}
