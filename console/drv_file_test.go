package console

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileInputReplaysBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte("ab"), 0644); err != nil {
		t.Fatalf("writing scripted input: %v", err)
	}

	f := NewFileInput(path)
	if err := f.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if !f.PendingInput() {
		t.Fatalf("expected pending input")
	}
	b, err := f.ReadByte()
	if err != nil || b != 'a' {
		t.Fatalf("got %q err=%v, want 'a'", b, err)
	}
	b, err = f.ReadByte()
	if err != nil || b != 'b' {
		t.Fatalf("got %q err=%v, want 'b'", b, err)
	}
	if f.PendingInput() {
		t.Fatalf("expected input exhausted")
	}
}

func TestFileInputMissingFileIsEmpty(t *testing.T) {
	f := NewFileInput(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	if err := f.Setup(); err != nil {
		t.Fatalf("Setup on missing file should not error: %v", err)
	}
	if f.PendingInput() {
		t.Fatalf("expected no pending input")
	}
}

func TestFileInputSkipsPauseMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte("a#b"), 0644); err != nil {
		t.Fatalf("writing scripted input: %v", err)
	}

	f := NewFileInput(path)
	if err := f.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	b, err := f.ReadByte()
	if err != nil || b != 'a' {
		t.Fatalf("got %q err=%v, want 'a'", b, err)
	}

	// the next byte is the unconsumed '#' marker, so pending input is
	// still true, but reading it starts a pause before 'b' is reachable.
	if !f.PendingInput() {
		t.Fatalf("expected '#' marker to still count as pending input")
	}
	if _, err := f.ReadByte(); err == nil {
		t.Fatalf("expected the '#' marker to trigger a pause, not return a byte")
	}
	if f.PendingInput() {
		t.Fatalf("expected pending input suppressed during the scripted pause")
	}
}
