package domain

import (
	"bytes"
	"encoding/json"
)

// Related holds the result of a foreign-key join expansion whose JSON shape
// is not fixed: the data service may hand back a single object, an array, or
// null for the same relation. The ambiguity is resolved here, at decode time,
// and never leaks past the repository layer.
type Related[T any] struct {
	items []T
}

func RelatedOf[T any](items ...T) Related[T] {
	return Related[T]{items: items}
}

func (r *Related[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	r.items = nil
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, &r.items)
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	r.items = []T{one}
	return nil
}

func (r Related[T]) MarshalJSON() ([]byte, error) {
	if r.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.items)
}

// List always returns the many-form, possibly empty.
func (r Related[T]) List() []T {
	if r.items == nil {
		return []T{}
	}
	return r.items
}

// First returns the single related value for one-to-one joins.
func (r Related[T]) First() (T, bool) {
	if len(r.items) == 0 {
		var zero T
		return zero, false
	}
	return r.items[0], true
}

func (r Related[T]) Len() int { return len(r.items) }
