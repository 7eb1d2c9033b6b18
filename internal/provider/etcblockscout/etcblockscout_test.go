package etcblockscout

import "testing"

func TestName(t *testing.T) {
	a := New(nil)
	if a.Name() != "etc-blockscout" {
		t.Fatalf("unexpected name %q", a.Name())
	}
}
