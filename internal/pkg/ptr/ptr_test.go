package ptr

import "testing"

func TestPointers(t *testing.T) {
	if p := Bool(true); p == nil || !*p {
		t.Error("Bool(true) should point at true")
	}
	if got := *To(42); got != 42 {
		t.Errorf("To(42) = %d", got)
	}
	if got := Deref[string](nil); got != "" {
		t.Errorf("Deref(nil) = %q, want empty", got)
	}
	if got := Deref(To("x")); got != "x" {
		t.Errorf("Deref = %q, want x", got)
	}
}
