package toncenter

import "testing"

func TestName(t *testing.T) {
	a := New(nil, "")
	if a.Name() != "toncenter" {
		t.Fatalf("unexpected name %q", a.Name())
	}
}

func TestHeadersOmitsKeyWhenEmpty(t *testing.T) {
	a := New(nil, "")
	h := a.headers()
	if _, ok := h["X-API-Key"]; ok {
		t.Fatalf("expected no X-API-Key header when apiKey is empty")
	}
}

func TestHeadersIncludesKeyWhenSet(t *testing.T) {
	a := New(nil, "secret")
	h := a.headers()
	if h["X-API-Key"] != "secret" {
		t.Fatalf("expected X-API-Key header to carry the configured key")
	}
}
