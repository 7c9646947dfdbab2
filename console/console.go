// Package console bridges the emulator's character-level I/O contract to
// a host terminal (or, for tests, an in-memory buffer).
//
// The contract is deliberately narrow — write/print/has_key/get_key/
// wait_for_key — matching the BDOS dispatcher's needs exactly; anything
// richer (line editing, echo-on-backspace) is BDOS's job, not the
// console's, because CP/M line editing is itself a BDOS function (Read
// Console Buffer) rather than a terminal-driver feature.
package console

import "time"

// Console is the character-level contract the BDOS/BIOS dispatch layer
// uses for all guest console I/O.
type Console interface {
	// Write sends one byte to the user-visible stream. 0x0D emits CR
	// only, 0x0A emits LF only, 0x08 emits backspace-space-backspace,
	// 0x07 emits bell; other bytes pass through unchanged.
	Write(ch byte)

	// Print sends one byte to the auxiliary "list" device. May be a
	// no-op.
	Print(ch byte)

	// HasKey is a non-blocking check for a pending key.
	HasKey() bool

	// GetKey returns the next buffered key, or ok=false if none is
	// waiting. Non-blocking.
	GetKey() (byte, bool)

	// WaitForKey blocks until a key is available.
	WaitForKey() byte
}

// TerminalConsole composes a registered InputDriver and OutputDriver into
// the Console contract.
type TerminalConsole struct {
	in  InputDriver
	out OutputDriver

	// printOut, when non-nil, receives Print() bytes; nil means Print is
	// a no-op, matching the list device being optional.
	printOut OutputDriver
}

// NewTerminalConsole builds a Console from an input and an output driver.
func NewTerminalConsole(in InputDriver, out OutputDriver) *TerminalConsole {
	return &TerminalConsole{in: in, out: out}
}

// SetPrinter attaches (or, with nil, detaches) the auxiliary list device.
func (c *TerminalConsole) SetPrinter(out OutputDriver) {
	c.printOut = out
}

// Setup prepares the underlying input driver.
func (c *TerminalConsole) Setup() error {
	return c.in.Setup()
}

// TearDown restores the underlying input driver.
func (c *TerminalConsole) TearDown() error {
	return c.in.TearDown()
}

// Write implements Console's CR/LF/backspace/bell convention before
// delegating to the output driver.
func (c *TerminalConsole) Write(ch byte) {
	switch ch {
	case 0x0D:
		c.out.PutCharacter(0x0D)
	case 0x0A:
		c.out.PutCharacter(0x0A)
	case 0x08:
		c.out.PutCharacter(0x08)
		c.out.PutCharacter(' ')
		c.out.PutCharacter(0x08)
	case 0x07:
		c.out.PutCharacter(0x07)
	default:
		c.out.PutCharacter(ch)
	}
}

// Print implements Console; a no-op unless a list device is attached.
func (c *TerminalConsole) Print(ch byte) {
	if c.printOut != nil {
		c.printOut.PutCharacter(ch)
	}
}

// HasKey implements Console.
func (c *TerminalConsole) HasKey() bool {
	return c.in.PendingInput()
}

// GetKey implements Console: non-blocking, returns ok=false if nothing is
// pending.
func (c *TerminalConsole) GetKey() (byte, bool) {
	if !c.in.PendingInput() {
		return 0, false
	}
	b, err := c.in.ReadByte()
	if err != nil {
		return 0, false
	}
	return b, true
}

// WaitForKey implements Console: blocks (by polling) until a byte is
// available.
func (c *TerminalConsole) WaitForKey() byte {
	for !c.in.PendingInput() {
		time.Sleep(time.Millisecond)
	}
	b, err := c.in.ReadByte()
	if err != nil {
		return 0
	}
	return b
}

// InputDriverName reports the registered name of the active input driver.
func (c *TerminalConsole) InputDriverName() string {
	return c.in.GetName()
}

// OutputDriverName reports the registered name of the active output driver.
func (c *TerminalConsole) OutputDriverName() string {
	return c.out.GetName()
}

// SetInputDriver swaps the active input driver, tearing down the old one
// first and setting up the new one.
func (c *TerminalConsole) SetInputDriver(in InputDriver) error {
	if err := c.in.TearDown(); err != nil {
		return err
	}
	if err := in.Setup(); err != nil {
		return err
	}
	c.in = in
	return nil
}

// SetOutputDriver swaps the active output driver.
func (c *TerminalConsole) SetOutputDriver(out OutputDriver) {
	c.out = out
}

var _ Console = (*TerminalConsole)(nil)
