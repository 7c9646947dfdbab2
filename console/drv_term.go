// drv_term.go uses the Termbox library to collect keyboard input in the
// background, buffering it for on-demand consumption. This is the default
// interactive input driver.

package console

import (
	"context"
	"os"
	"time"

	"github.com/nsf/termbox-go"
	"golang.org/x/term"
)

// TermboxInput is an input driver backed by termbox-go's event loop,
// running in its own goroutine so WaitForKey's polling never blocks
// keyboard capture.
type TermboxInput struct {
	oldState *term.State
	cancel   context.CancelFunc

	keyBuffer []byte
}

// Setup switches the terminal to raw mode and starts the background poller.
func (ti *TermboxInput) Setup() error {
	var err error

	ti.oldState, err = term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}

	if err = termbox.Init(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	ti.cancel = cancel
	go ti.pollKeyboard(ctx)

	return nil
}

func (ti *TermboxInput) pollKeyboard(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			if ev.Ch != 0 {
				ti.keyBuffer = append(ti.keyBuffer, byte(ev.Ch))
			} else {
				ti.keyBuffer = append(ti.keyBuffer, byte(ev.Key))
			}
		}
	}
}

// TearDown cancels the poller and restores terminal state.
func (ti *TermboxInput) TearDown() error {
	if ti.cancel != nil {
		ti.cancel()
	}
	termbox.Close()

	if ti.oldState != nil {
		return term.Restore(int(os.Stdin.Fd()), ti.oldState)
	}
	return nil
}

// PendingInput reports whether the background poller has buffered a key.
func (ti *TermboxInput) PendingInput() bool {
	return len(ti.keyBuffer) > 0
}

// ReadByte blocks (by polling the buffer) for the next captured key.
func (ti *TermboxInput) ReadByte() (byte, error) {
	for len(ti.keyBuffer) == 0 {
		time.Sleep(time.Millisecond)
	}
	c := ti.keyBuffer[0]
	ti.keyBuffer = ti.keyBuffer[1:]
	return c, nil
}

// GetName returns this driver's registered name.
func (ti *TermboxInput) GetName() string {
	return "term"
}

func init() {
	RegisterInput("term", func() InputDriver {
		return new(TermboxInput)
	})
}
