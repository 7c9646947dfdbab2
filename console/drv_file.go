package console

import (
	"errors"
	"os"
	"time"
)

// FileInput replays keystrokes from a file on disk, useful for scripted
// automation and reproducing a batch run without a real terminal. A "#"
// byte in the file is consumed as a one-second pause rather than emitted,
// since some guest software polls for input and would otherwise race past
// it depending on host speed.
type FileInput struct {
	path       string
	offset     int
	content    []byte
	delayUntil time.Time
}

// NewFileInput builds a FileInput reading keystrokes from path.
func NewFileInput(path string) *FileInput {
	return &FileInput{path: path}
}

// Setup reads the scripted-input file into memory. A missing file is not
// an error: it just means no input is ever available.
func (f *FileInput) Setup() error {
	if f.path == "" {
		f.path = "input.txt"
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	f.content = data
	return nil
}

// TearDown is a no-op; there's no host resource to release.
func (f *FileInput) TearDown() error { return nil }

// PendingInput reports whether there's a queued byte and any pause has
// elapsed.
func (f *FileInput) PendingInput() bool {
	if !f.delayUntil.IsZero() && time.Now().Before(f.delayUntil) {
		return false
	}
	return f.offset < len(f.content)
}

// ReadByte returns the next scripted byte, skipping "#" pause markers.
func (f *FileInput) ReadByte() (byte, error) {
	for f.offset < len(f.content) {
		if !f.delayUntil.IsZero() && time.Now().Before(f.delayUntil) {
			return 0, errors.New("file input: waiting out a scripted pause")
		}
		f.delayUntil = time.Time{}

		b := f.content[f.offset]
		f.offset++

		if b == '#' {
			f.delayUntil = time.Now().Add(time.Second)
			continue
		}
		return b, nil
	}
	return 0, errors.New("file input: exhausted")
}

// GetName returns this driver's registered name.
func (f *FileInput) GetName() string {
	return "file"
}

func init() {
	RegisterInput("file", func() InputDriver {
		return NewFileInput(os.Getenv("INPUT_FILE"))
	})
}
