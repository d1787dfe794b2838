package track

// Channel is one keyframe channel of a track. An absent channel means the
// identity value at every keyframe.
type Channel[T any] struct {
	values  []T
	present bool
}

func Some[T any](values []T) Channel[T] {
	if values == nil {
		values = []T{}
	}
	return Channel[T]{values: values, present: true}
}

func None[T any]() Channel[T] {
	return Channel[T]{}
}

func (c Channel[T]) Present() bool { return c.present }

// Values returns the keyframe values, or nil when the channel is absent.
func (c Channel[T]) Values() []T { return c.values }

func (c Channel[T]) Len() int { return len(c.values) }

// At returns value i, or def when the channel is absent.
func (c Channel[T]) At(i int, def T) T {
	if !c.present {
		return def
	}
	return c.values[i]
}

// pick builds a channel of the same presence from selected keyframe indices.
func (c Channel[T]) pick(indices []int) Channel[T] {
	if !c.present {
		return c
	}
	values := make([]T, len(indices))
	for i, k := range indices {
		values[i] = c.values[k]
	}
	return Some(values)
}
