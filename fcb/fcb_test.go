package fcb

import "testing"

func TestFromString(t *testing.T) {
	f := FromString("b:foo")
	if f.Drive != 2 {
		t.Fatalf("drive wrong, got %d", f.Drive)
	}
	if f.GetName() != "FOO" {
		t.Fatalf("name wrong, got %q", f.GetName())
	}
	if f.GetType() != "" {
		t.Fatalf("unexpected suffix %q", f.GetType())
	}

	// Long name is truncated to 8 characters.
	f = FromString("c:this-is-a-long-name")
	if f.Drive != 3 {
		t.Fatalf("drive wrong, got %d", f.Drive)
	}
	if f.GetName() != "THIS-IS-" {
		t.Fatalf("name wrong, got %q", f.GetName())
	}

	// Long suffix is truncated to 3 characters.
	f = FromString("c:this-is-a.long-name")
	if f.GetType() != "LON" {
		t.Fatalf("suffix wrong, got %q", f.GetType())
	}

	// Wildcards expand to fill the remaining width.
	f = FromString("c:steve*")
	if f.GetName() != "STEVE???" {
		t.Fatalf("name wrong, got %q", f.GetName())
	}

	f = FromString("c:test.c*")
	if f.GetName() != "TEST" {
		t.Fatalf("name wrong, got %q", f.GetName())
	}
	if f.GetType() != "C??" {
		t.Fatalf("type wrong, got %q", f.GetType())
	}

	f = FromString("noext")
	if f.Drive != 0 {
		t.Fatalf("expected default drive, got %d", f.Drive)
	}
	if f.GetFileName() != "NOEXT" {
		t.Fatalf("filename wrong, got %q", f.GetFileName())
	}
}

func TestBytesRoundTrip(t *testing.T) {
	f := FromString("a:hello.com")
	b := f.AsBytes()
	if len(b) != Size {
		t.Fatalf("expected %d bytes, got %d", Size, len(b))
	}

	g := FromBytes(b)
	if g.GetFileName() != "HELLO.COM" {
		t.Fatalf("round trip filename wrong, got %q", g.GetFileName())
	}
	if g.Drive != f.Drive {
		t.Fatalf("round trip drive wrong, got %d want %d", g.Drive, f.Drive)
	}
}

func TestCurrentRecordCodec(t *testing.T) {
	cases := []uint32{0, 1, 127, 128, 1000, (1 << 20) - 1}
	for _, n := range cases {
		var f FCB
		f.SetCurrentRecord(n)
		if got := f.CurrentRecord(); got != n {
			t.Fatalf("record %d round-tripped to %d", n, got)
		}
		if f.Cr >= 128 {
			t.Fatalf("CR out of range: %d", f.Cr)
		}
		if f.Ex >= 32 {
			t.Fatalf("EX out of range: %d", f.Ex)
		}
	}
}

func TestHandleSignature(t *testing.T) {
	var f FCB

	if _, ok := f.Handle(); ok {
		t.Fatalf("expected no handle on a blank FCB")
	}

	f.SetHandle(42)
	h, ok := f.Handle()
	if !ok || h != 42 {
		t.Fatalf("expected handle 42, got %d (ok=%v)", h, ok)
	}

	f.SetHandle(12345)
	h, ok = f.Handle()
	if !ok || h != 12345 {
		t.Fatalf("expected handle 12345, got %d (ok=%v)", h, ok)
	}

	f.ClearHandle()
	if _, ok := f.Handle(); ok {
		t.Fatalf("expected no handle after clear")
	}
}

func TestMatches(t *testing.T) {
	f := FromString("test.txt")

	var wildName [8]uint8
	var wildExt [3]uint8
	for i := range wildName {
		wildName[i] = '?'
	}
	for i := range wildExt {
		wildExt[i] = '?'
	}

	if !f.Matches(f.Name, f.Type) {
		t.Fatalf("expected exact match")
	}
	if !f.Matches(wildName, wildExt) {
		t.Fatalf("expected wildcard match")
	}

	other := FromString("other.txt")
	if f.Matches(other.Name, other.Type) {
		t.Fatalf("expected no match")
	}
}
