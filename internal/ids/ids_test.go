package ids

import "testing"

func TestNew(t *testing.T) {
	a, b := New(), New()
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("unexpected lengths: %q %q", a, b)
	}
	if a >= b {
		t.Fatalf("ids not monotonically ordered: %q >= %q", a, b)
	}
}
