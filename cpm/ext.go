package cpm

import (
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dgpx/zcpm/console"
	"github.com/dgpx/zcpm/version"
)

// dispatchExtension implements the BIOS custom-extension mechanism: a
// single reserved BIOS slot (biosExtension) that software running inside
// the guest can use to introspect or reconfigure the host engine. HL
// selects the sub-function; real CP/M software never calls this slot, and
// every unused BIOS slot is a no-op by convention.
func (e *Engine) dispatchExtension() {
	hl := e.CPU.States.HL.U16()
	de := e.CPU.States.DE.U16()

	switch hl {
	case 0x0000: // identify engine + version
		e.CPU.States.HL.Hi = 'Z'
		e.CPU.States.HL.Lo = 'C'
		e.CPU.States.AF.Hi = 'P'
		e.setStringInDMA(version.GetVersionBanner())

	case 0x0001: // get/set CCP flavour
		if e.ccps == nil {
			return
		}
		if de == 0x0000 {
			e.setStringInDMA(e.currentCCP)
			return
		}
		name := e.getStringFromMemory(de)
		_ = e.SwitchCCP(name)

	case 0x0002: // get/set output driver
		term, ok := e.console.(*console.TerminalConsole)
		if !ok {
			return
		}
		if de == 0x0000 {
			e.setStringInDMA(term.OutputDriverName())
			return
		}
		name := e.getStringFromMemory(de)
		if out, ok := console.NewOutput(name); ok {
			term.SetOutputDriver(out)
		}

	case 0x0003: // get/set input driver
		term, ok := e.console.(*console.TerminalConsole)
		if !ok {
			return
		}
		if de == 0x0000 {
			e.setStringInDMA(term.InputDriverName())
			return
		}
		name := e.getStringFromMemory(de)
		if in, ok := console.NewInput(name); ok {
			_ = term.SetInputDriver(in)
		}

	case 0x0004: // get terminal size: H=rows, L=cols; 0x0000 if not a terminal
		cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			e.CPU.States.HL.SetU16(0x0000)
			return
		}
		e.CPU.States.HL.Hi = uint8(rows)
		e.CPU.States.HL.Lo = uint8(cols)

	default:
		// Unknown extension sub-function: no-op.
	}
}

// getStringFromMemory reads a NUL-terminated string out of guest memory,
// trimming whitespace and lower-casing it (the CCP upper-cases CLI
// arguments before they ever reach here).
func (e *Engine) getStringFromMemory(addr uint16) string {
	var b strings.Builder
	for {
		ch := e.Memory.Get(addr)
		if ch == 0x00 {
			break
		}
		b.WriteByte(ch)
		addr++
	}
	return strings.ToLower(strings.TrimSpace(b.String()))
}

// setStringInDMA NUL-fills the DMA area then writes str there, the
// convention several extension sub-functions use to return a string.
func (e *Engine) setStringInDMA(str string) {
	e.Memory.FillRange(e.dma, RecordSize-1, 0x00)
	e.Memory.PutRange(e.dma, []byte(str)...)
}
