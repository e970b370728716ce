// Package ptr provides pointer helpers for optional API fields.
package ptr

// To returns a pointer to v.
func To[T any](v T) *T { return &v }

// Bool returns a pointer to b. Tool annotations take *bool hints.
func Bool(b bool) *bool { return To(b) }

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
