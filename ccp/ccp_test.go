package ccp

import (
	"strings"
	"testing"
)

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(Flavour{Name: "ccp", Description: "CP/M v2.2", Bytes: []byte{1, 2, 3}, Start: 0xDC00})
	r.Register(Flavour{Name: "ccpz", Description: "CCPZ v4.1", Bytes: []byte{4, 5, 6}, Start: 0xDC00})

	f, err := r.Get("CCPZ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Name != "ccpz" || len(f.Bytes) != 3 {
		t.Fatalf("got %+v", f)
	}
}

func TestGetUnknownListsValidChoices(t *testing.T) {
	r := NewRegistry()
	r.Register(Flavour{Name: "ccp"})
	r.Register(Flavour{Name: "ccpz"})

	_, err := r.Get("nope")
	if err == nil {
		t.Fatalf("expected error for unknown flavour")
	}
	if !strings.Contains(err.Error(), "ccp") || !strings.Contains(err.Error(), "ccpz") {
		t.Fatalf("error %q missing valid choices", err)
	}
}

func TestRegisterReplacesByName(t *testing.T) {
	r := NewRegistry()
	r.Register(Flavour{Name: "ccp", Start: 0x0100})
	r.Register(Flavour{Name: "ccp", Start: 0xDC00})

	if len(r.All()) != 1 {
		t.Fatalf("expected re-registering a name to replace it, not append")
	}
	f, _ := r.Get("ccp")
	if f.Start != 0xDC00 {
		t.Fatalf("got start %#04x, want the replaced value", f.Start)
	}
}
