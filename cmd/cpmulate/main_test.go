package main

import (
	"testing"

	"github.com/dgpx/zcpm/ccp"
	"github.com/dgpx/zcpm/pkgfs"
)

func TestParseLoadAddress(t *testing.T) {
	cases := map[string]uint16{
		"0xDC00": 0xDC00,
		"0XDC00": 0xDC00,
		"DC00":   0xDC00,
		"":       0x0100,
		"zzzz":   0x0100,
	}
	for in, want := range cases {
		if got := parseLoadAddress(in); got != want {
			t.Errorf("parseLoadAddress(%q) = %#04x, want %#04x", in, got, want)
		}
	}
}

func TestRegisterShellsFindsShellEntry(t *testing.T) {
	registry := ccp.NewRegistry()
	packages := []pkgfs.LoadedPackage{
		{
			Manifest: pkgfs.Manifest{
				Name: "Demo CCP",
				Files: []pkgfs.FileEntry{
					{Src: "CCP.COM", Type: "shell", LoadAddress: "0xDC00"},
					{Src: "README.TXT"},
				},
			},
			Files: map[string][]byte{
				"CCP.COM":    {0xC9},
				"README.TXT": []byte("hi"),
			},
		},
	}

	registerShells(registry, packages)

	f, err := registry.Get("Demo CCP")
	if err != nil {
		t.Fatalf("expected registered flavour: %v", err)
	}
	if f.Start != 0xDC00 || len(f.Bytes) != 1 {
		t.Fatalf("got %+v", f)
	}
}

func TestRegisterShellsIgnoresNonShellEntries(t *testing.T) {
	registry := ccp.NewRegistry()
	packages := []pkgfs.LoadedPackage{
		{
			Manifest: pkgfs.Manifest{
				Name:  "No Shell",
				Files: []pkgfs.FileEntry{{Src: "README.TXT"}},
			},
			Files: map[string][]byte{"README.TXT": []byte("hi")},
		},
	}

	registerShells(registry, packages)

	if len(registry.All()) != 0 {
		t.Fatalf("expected no flavours registered, got %d", len(registry.All()))
	}
}
