// Package ptr provides helpers for optional (pointer) fields.
package ptr

// To returns a pointer to the given value.
func To[T any](v T) *T {
	return &v
}

// Clone returns a pointer to a copy of *p, or nil if p is nil.
// Used to keep cached records from sharing optional fields with callers.
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
