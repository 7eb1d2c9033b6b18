package dashinsight

import "testing"

func TestName(t *testing.T) {
	a := New(nil)
	if a.Name() != "dash-insight" {
		t.Fatalf("unexpected name %q", a.Name())
	}
}

func TestBaseURL(t *testing.T) {
	if baseURL == "" {
		t.Fatalf("baseURL must not be empty")
	}
}
