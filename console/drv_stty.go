//go:build unix

// drv_stty.go is a lighter-weight input driver than the termbox one: it
// reads stdin directly in raw mode, using select(2) to implement a
// non-blocking PendingInput check. No background goroutine.

package console

import (
	"os"
	"os/exec"

	"golang.org/x/term"
)

// STTYInput is an input driver that shells out to `stty` to manage echo
// and uses select(2) to poll stdin.
type STTYInput struct {
	echoDisabled bool

	// stuffed holds synthetic input injected by StuffInput, consumed
	// before real stdin is touched. Useful for scripted boot sequences
	// (e.g. AUTOEXEC.SUB) and for tests.
	stuffed []byte
}

// Setup is a no-op; raw mode is entered per-read.
func (si *STTYInput) Setup() error {
	return nil
}

// TearDown restores echo if it was disabled.
func (si *STTYInput) TearDown() error {
	if si.echoDisabled {
		si.enableEcho()
	}
	return nil
}

// StuffInput injects synthetic bytes to be consumed before real stdin.
func (si *STTYInput) StuffInput(input string) {
	si.stuffed = append(si.stuffed, []byte(input)...)
}

// PendingInput reports whether stuffed or real input is ready.
func (si *STTYInput) PendingInput() bool {
	if len(si.stuffed) > 0 {
		return true
	}
	return canSelect()
}

// ReadByte returns the next stuffed byte, or reads one raw byte from stdin.
func (si *STTYInput) ReadByte() (byte, error) {
	if len(si.stuffed) > 0 {
		b := si.stuffed[0]
		si.stuffed = si.stuffed[1:]
		return b, nil
	}

	si.disableEcho()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return 0, err
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	buf := make([]byte, 1)
	if _, err := os.Stdin.Read(buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// GetName returns this driver's registered name.
func (si *STTYInput) GetName() string {
	return "stty"
}

func (si *STTYInput) disableEcho() {
	_ = exec.Command("stty", "-F", "/dev/tty", "-echo").Run()
	si.echoDisabled = true
}

func (si *STTYInput) enableEcho() {
	_ = exec.Command("stty", "-F", "/dev/tty", "echo").Run()
	si.echoDisabled = false
}

func init() {
	RegisterInput("stty", func() InputDriver {
		return new(STTYInput)
	})
}
