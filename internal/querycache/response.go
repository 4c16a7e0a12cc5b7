package querycache

// Cloner is implemented by answers that can produce an independent copy.
type Cloner[T any] interface {
	Clone() T
}

// Shared is an answer handed to every reader of the same cache entry or
// in-flight execution. It must not be mutated.
type Shared[T Cloner[T]] struct {
	value T
}

func NewShared[T Cloner[T]](v T) *Shared[T] { return &Shared[T]{value: v} }

// Value returns the shared answer for read-only use.
func (s *Shared[T]) Value() T { return s.value }

// MaybeCached is an answer that either went through the cache or was
// computed for this caller alone.
type MaybeCached[T Cloner[T]] struct {
	value  T
	shared *Shared[T]
}

func NotCached[T Cloner[T]](v T) MaybeCached[T] { return MaybeCached[T]{value: v} }

func Cached[T Cloner[T]](s *Shared[T]) MaybeCached[T] { return MaybeCached[T]{shared: s} }

// IsCached reports whether the answer is a shared cache handle.
func (m MaybeCached[T]) IsCached() bool { return m.shared != nil }

// Value returns the answer without copying. Shared answers must not be
// mutated by the caller.
func (m MaybeCached[T]) Value() T {
	if m.shared != nil {
		return m.shared.value
	}
	return m.value
}

// Inner returns an answer owned by the caller, copying shared answers.
func (m MaybeCached[T]) Inner() T {
	if m.shared != nil {
		return m.shared.value.Clone()
	}
	return m.value
}
