package drivefs

import "testing"

func TestNormalize8_3(t *testing.T) {
	cases := map[string]string{
		"hello.txt":          "HELLO.TXT",
		"HELLO.TXT":          "HELLO.TXT",
		"verylongname.ext12": "VERYLONG.EXT",
		"noext":              "NOEXT",
		"test$file.com":      "TEST$FIL.COM",
		"hello world.txt":    "HELLOWOR.TXT",
		".txt":               "_.TXT",
	}

	for in, want := range cases {
		if got := Normalize8_3(in); got != want {
			t.Errorf("Normalize8_3(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize8_3Idempotent(t *testing.T) {
	inputs := []string{"hello.txt", "VeryLongName.extension", "noext", ".txt", "a!b@c#.d$e"}
	for _, in := range inputs {
		once := Normalize8_3(in)
		twice := Normalize8_3(once)
		if once != twice {
			t.Errorf("Normalize8_3 not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestMemoryDrive(t *testing.T) {
	m := NewMemoryDrive()

	if err := m.Write("TEST.COM", []byte{0xC9}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if !m.Exists("TEST.COM") || !m.Exists("test.com") {
		t.Fatalf("expected case-insensitive existence")
	}

	data, ok := m.Read("TEST.COM")
	if !ok || len(data) != 1 || data[0] != 0xC9 {
		t.Fatalf("unexpected read result: %v %v", data, ok)
	}

	if !m.Delete("TEST.COM") {
		t.Fatalf("expected delete to report prior existence")
	}
	if m.Delete("TEST.COM") {
		t.Fatalf("expected second delete to report absence")
	}
	if m.Exists("TEST.COM") {
		t.Fatalf("expected file gone after delete")
	}
}

func TestOverlayDrive(t *testing.T) {
	base := NewMemoryDrive()
	_ = base.Write("FILE.TXT", []byte("old"))

	ov := NewOverlayDrive(base)

	_ = ov.Write("file.txt", []byte("new"))
	data, ok := ov.Read("FILE.TXT")
	if !ok || string(data) != "new" {
		t.Fatalf("expected overlay value, got %q (ok=%v)", data, ok)
	}

	baseData, _ := base.Read("FILE.TXT")
	if string(baseData) != "old" {
		t.Fatalf("base was mutated: %q", baseData)
	}

	existed := ov.Delete("FILE.TXT")
	if !existed {
		t.Fatalf("expected delete to report prior existence")
	}
	if ov.Exists("FILE.TXT") {
		t.Fatalf("expected file gone through overlay")
	}
	if !base.Exists("FILE.TXT") {
		t.Fatalf("expected base untouched by overlay delete")
	}

	_ = ov.Write("FILE.TXT", []byte("restored"))
	if !ov.Exists("FILE.TXT") {
		t.Fatalf("expected write to clear tombstone")
	}
	data, _ = ov.Read("FILE.TXT")
	if string(data) != "restored" {
		t.Fatalf("expected restored content, got %q", data)
	}
}

func TestOverlayList(t *testing.T) {
	base := NewMemoryDrive()
	_ = base.Write("A.TXT", []byte{1})
	_ = base.Write("B.TXT", []byte{2})

	ov := NewOverlayDrive(base)
	_ = ov.Write("C.TXT", []byte{3})
	ov.Delete("A.TXT")

	names := map[string]bool{}
	for _, n := range ov.List() {
		names[n] = true
	}

	if names["A.TXT"] {
		t.Fatalf("deleted file should not be listed")
	}
	if !names["B.TXT"] {
		t.Fatalf("base file should be listed")
	}
	if !names["C.TXT"] {
		t.Fatalf("overlay file should be listed")
	}
}
