// Package ring provides a fixed-capacity circular buffer shared by every
// component that keeps bounded history (waveform buckets, loudness history,
// spectrogram columns, raw sample rings).
package ring

// Buffer is a fixed-capacity circular buffer. The write cursor advances
// modulo the capacity and the filled count saturates at the capacity, so the
// most recent Len() entries always form a contiguous chronological view even
// across the wrap boundary. Buffers are sized once at configuration time and
// never grow while streaming.
type Buffer[T any] struct {
	data    []T
	cursor  int
	filled  int
	wrapped bool
}

// New creates a buffer holding up to capacity elements.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.data) }

// Len returns the number of valid entries, saturating at the capacity.
func (b *Buffer[T]) Len() int { return b.filled }

// Cursor returns the index the next push will write to.
func (b *Buffer[T]) Cursor() int { return b.cursor }

// Wrapped reports whether the cursor has passed the end at least once.
func (b *Buffer[T]) Wrapped() bool { return b.wrapped }

// Push appends one value, overwriting the oldest entry once full.
func (b *Buffer[T]) Push(v T) {
	b.data[b.cursor] = v
	b.advance()
}

// PushSlice appends all values in order. Slices longer than the capacity
// leave the buffer holding the last Cap() values.
func (b *Buffer[T]) PushSlice(vs []T) {
	n := len(b.data)
	if len(vs) >= n {
		copy(b.data, vs[len(vs)-n:])
		b.cursor = 0
		b.filled = n
		b.wrapped = true
		return
	}
	head := copy(b.data[b.cursor:], vs)
	if head < len(vs) {
		copy(b.data, vs[head:])
	}
	b.cursor += len(vs)
	if b.cursor >= n {
		b.cursor -= n
		b.wrapped = true
	}
	b.filled += len(vs)
	if b.filled > n {
		b.filled = n
	}
}

// Slot returns a pointer to the storage at raw index i, for callers that
// fill a pre-allocated slot in place before calling Advance.
func (b *Buffer[T]) Slot(i int) *T { return &b.data[i] }

// Advance moves the cursor past the current slot as if it had been pushed.
func (b *Buffer[T]) Advance() { b.advance() }

func (b *Buffer[T]) advance() {
	b.cursor++
	if b.cursor >= len(b.data) {
		b.cursor = 0
		b.wrapped = true
	}
	if b.filled < len(b.data) {
		b.filled++
	}
}

// Reset empties the buffer without touching the storage.
func (b *Buffer[T]) Reset() {
	b.cursor = 0
	b.filled = 0
	b.wrapped = false
}

// Filled returns the valid entries without chronological ordering. Before
// the first wrap this is the prefix up to the cursor; afterwards it is the
// whole storage. Suitable for means and percentiles where order is
// irrelevant. The returned slice aliases the buffer.
func (b *Buffer[T]) Filled() []T {
	if b.wrapped {
		return b.data
	}
	return b.data[:b.filled]
}

// Raw returns the underlying storage. Index arithmetic is the caller's
// problem; Cursor and Wrapped describe the layout.
func (b *Buffer[T]) Raw() []T { return b.data }

// Linearize copies the valid entries oldest to newest into dst and returns
// the filled prefix. dst must hold at least Len() elements.
func (b *Buffer[T]) Linearize(dst []T) []T {
	if !b.wrapped {
		n := copy(dst, b.data[:b.filled])
		return dst[:n]
	}
	n := copy(dst, b.data[b.cursor:])
	n += copy(dst[n:], b.data[:b.cursor])
	return dst[:n]
}
