package gateway

// Patch is one field of a partial update. The zero value is omitted from the
// request; Null sends an explicit JSON null.
type Patch[T any] struct {
	set   bool
	value *T
}

func Value[T any](v T) Patch[T] {
	return Patch[T]{set: true, value: &v}
}

func Null[T any]() Patch[T] {
	return Patch[T]{set: true}
}

// Nullable builds a Patch from a pointer: nil becomes an explicit null.
func Nullable[T any](v *T) Patch[T] {
	if v == nil {
		return Null[T]()
	}
	return Value(*v)
}

func (p Patch[T]) IsSet() bool {
	return p.set
}

func (p Patch[T]) Get() (T, bool) {
	if p.value == nil {
		var zero T
		return zero, false
	}
	return *p.value, true
}

func (p Patch[T]) put(m map[string]any, key string) {
	if !p.set {
		return
	}
	if p.value == nil {
		m[key] = nil
		return
	}
	m[key] = *p.value
}
