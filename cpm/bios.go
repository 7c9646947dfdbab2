package cpm

// dispatchCBIOS handles a breakpoint hit at or past the BIOS jump table.
// Slot index is (pc-BIOSBase)/3: 0/1 are cold/warm boot, 2 is CONST, 3 is
// CONIN, 4 is CONOUT; every other slot is a no-op. It reports whether the
// guest requested a warm boot.
func (e *Engine) dispatchCBIOS(pc uint16) bool {
	slot := (pc - BIOSBase) / 3

	switch slot {
	case 0, 1: // BOOT / WBOOT
		return true
	case 2: // CONST
		e.setA(boolByte(e.console.HasKey(), 0xFF, 0x00))
	case 3: // CONIN
		e.setA(e.console.WaitForKey())
	case 4: // CONOUT
		e.console.Write(e.CPU.States.BC.Lo)
	case biosExtension:
		e.dispatchExtension()
	}

	return false
}
