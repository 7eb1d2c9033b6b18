package trongrid

import "testing"

func TestName(t *testing.T) {
	a := New(nil, "")
	if a.Name() != "trongrid" {
		t.Fatalf("unexpected name %q", a.Name())
	}
}

func TestHeadersOmitsKeyWhenEmpty(t *testing.T) {
	a := New(nil, "")
	if _, ok := a.headers()["TRON-PRO-API-KEY"]; ok {
		t.Fatalf("expected no TRON-PRO-API-KEY header when apiKey is empty")
	}
}

func TestHeadersIncludesKeyWhenSet(t *testing.T) {
	a := New(nil, "secret")
	if a.headers()["TRON-PRO-API-KEY"] != "secret" {
		t.Fatalf("expected TRON-PRO-API-KEY header to carry the configured key")
	}
}
