package fixedmap

// Vec is a slice with a fixed capacity. The zero value has capacity 0.
type Vec[T any] struct {
	buf []T
}

// NewVec returns a Vec storing into buf; its capacity is len(buf).
func NewVec[T any](buf []T) Vec[T] {
	return Vec[T]{buf: buf[:0:len(buf)]}
}

// Pool carves count vectors of size each out of one allocation.
func Pool[T any](count, size int) []Vec[T] {
	backing := make([]T, count*size)
	vecs := make([]Vec[T], count)
	for i := range vecs {
		vecs[i] = NewVec(backing[i*size : (i+1)*size])
	}
	return vecs
}

// Push appends v, failing with ErrFull when the Vec is at capacity.
func (v *Vec[T]) Push(item T) error {
	if len(v.buf) == cap(v.buf) {
		return ErrFull
	}
	v.buf = append(v.buf, item)
	return nil
}

// Items returns the stored elements. The slice aliases the Vec.
func (v *Vec[T]) Items() []T { return v.buf }

func (v *Vec[T]) Len() int { return len(v.buf) }
func (v *Vec[T]) Cap() int { return cap(v.buf) }
