package cpm

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgpx/zcpm/fcb"
)

// dispatchBDOS reads the syscall number from C and the byte/word args from
// E/DE, performs the requested service, and writes results back into
// registers or memory. It reports whether the guest requested a warm boot.
func (e *Engine) dispatchBDOS() bool {
	c := e.CPU.States.BC.Lo
	arg := e.CPU.States.DE.Lo
	de := e.CPU.States.DE.U16()

	e.Logger.Debug("bdos call",
		slog.Int("function", int(c)),
		slog.String("hex", hexByte(c)),
		slog.Group("registers",
			slog.Int("E", int(arg)),
			slog.Int("DE", int(de))),
	)

	switch c {
	case 0: // System Reset
		return true

	case 1: // Console Input
		ch := e.console.WaitForKey()
		e.setA(ch)

	case 2: // Console Output
		e.console.Write(arg)

	case 5: // List Output
		e.console.Print(arg)

	case 6: // Direct Console I/O
		switch arg {
		case 0xFF:
			if ch, ok := e.console.GetKey(); ok {
				e.setA(ch)
			} else {
				e.setA(0)
			}
		case 0xFE:
			e.setA(boolByte(e.console.HasKey(), 0xFF, 0x00))
		case 0xFD:
			e.setA(e.console.WaitForKey())
		default:
			e.console.Write(arg)
		}

	case 9: // Print String, '$'-terminated
		addr := de
		for {
			ch := e.Memory.Get(addr)
			if ch == '$' {
				break
			}
			e.console.Write(ch)
			addr++
		}

	case 10: // Read Console Buffer
		e.readConsoleBuffer(de)

	case 11: // Console Status
		e.setA(boolByte(e.console.HasKey(), 0xFF, 0x00))

	case 12: // Return Version
		e.CPU.States.HL.SetU16(0x0022)

	case 13: // Reset Disk System
		e.currentDrive = 0
		e.dma = DefaultDMA
		e.setA(0)

	case 14: // Select Disk
		e.currentDrive = arg
		e.Memory.Set(CurrentDrive, arg)
		e.setA(boolByte(e.Drive(arg) != nil, 0x00, 0xFF))

	case 15:
		e.bdosOpenFile(de)

	case 16:
		e.bdosCloseFile(de)

	case 17:
		e.bdosSearchFirst(de)

	case 18:
		e.bdosSearchNext()

	case 19:
		e.bdosDeleteFile(de)

	case 20:
		e.bdosReadSequential(de)

	case 21:
		e.bdosWriteSequential(de)

	case 22:
		e.bdosMakeFile(de)

	case 23:
		e.bdosRenameFile(de)

	case 24: // Login Vector
		var vector uint16
		for i := 0; i < 16; i++ {
			if e.Drive(uint8(i)) != nil {
				vector |= 1 << uint(i)
			}
		}
		e.CPU.States.HL.SetU16(vector)

	case 25: // Return Current Disk
		e.setA(e.currentDrive)

	case 26: // Set DMA
		e.dma = de

	case 32: // User Code
		if arg == 0xFF {
			e.setA(e.currentUser)
		} else {
			e.currentUser = arg & 0x0F
		}

	case 33:
		e.bdosReadRandom(de)

	case 34, 40:
		e.bdosWriteRandom(de)

	case 35:
		e.bdosComputeFileSize(de)

	case 36:
		e.bdosSetRandomRecord(de)

	case 3, 4, 7, 8, 27, 28, 29, 30, 31, 37:
		// Known CP/M 2.2 functions with no disk structure to model
		// (reader/punch I/O, IOBYTE, attributes, R/O vector, allocation
		// and parameter vectors, drive reset): report success.
		e.setA(0)

	default:
		e.Logger.Debug("bdos: unknown function, ignoring",
			slog.Int("function", int(c)))
	}

	return false
}

func (e *Engine) setA(v uint8) {
	e.CPU.States.AF.Hi = v
}

func boolByte(cond bool, onTrue, onFalse uint8) uint8 {
	if cond {
		return onTrue
	}
	return onFalse
}

func hexByte(b uint8) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{'0', 'x', digits[b>>4], digits[b&0xF]})
}

// data2String dumps at most one record of data as paired hex and ASCII
// strings, for trace-level logs of record transfers.
func data2String(data []uint8) (string, string) {
	if len(data) > RecordSize {
		data = data[:RecordSize]
	}

	hex := ""
	asc := ""
	for _, b := range data {
		hex += fmt.Sprintf("%02X ", b)
		if b > 32 && b < 128 {
			asc += string(b)
		} else {
			asc += "."
		}
	}
	return hex, asc
}

// readConsoleBuffer implements BDOS 10: DE points at {max, len, buf[max]}.
// Characters are echoed as typed; CR terminates the line (emitting CR LF);
// backspace erases on-screen and steps pos back when pos>0; printable
// bytes (>=0x20) are stored while pos<max. Other control bytes are
// dropped.
func (e *Engine) readConsoleBuffer(de uint16) {
	max := int(e.Memory.Get(de))
	pos := 0

	for {
		ch := e.console.WaitForKey()

		switch {
		case ch == 0x0D:
			e.console.Write(0x0D)
			e.console.Write(0x0A)
			e.Memory.Set(de+1, uint8(pos))
			return
		case ch == 0x08 || ch == 0x7F:
			if pos > 0 {
				pos--
				e.console.Write(0x08)
			}
		case ch >= 0x20 && pos < max:
			e.Memory.Set(de+2+uint16(pos), ch)
			pos++
			e.console.Write(ch)
		}
	}
}

func (e *Engine) bdosOpenFile(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	drive := e.effectiveDrive(f.Drive)
	name := f.GetFileName()

	fs := e.Drive(drive)
	if fs == nil {
		e.setA(0xFF)
		return
	}
	data, ok := fs.Read(name)
	if !ok {
		e.setA(0xFF)
		return
	}

	handle := uint32(len(e.openFiles)) + 1
	// Buffer a private copy: drives hand out their internal slices, and
	// record writes must stay invisible to the drive until Close.
	e.openFiles = append(e.openFiles, openFile{drive: drive, name: name, data: append([]byte(nil), data...)})

	f.Init()
	f.SetHandle(handle)
	writeFCB(e.Memory, fcbAddr, f)
	e.setA(0x00)
}

func (e *Engine) bdosCloseFile(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	handle, ok := f.Handle()
	if !ok {
		e.setA(0xFF)
		return
	}

	idx := int(handle) - 1
	if idx < 0 || idx >= len(e.openFiles) {
		e.setA(0xFF)
		return
	}

	of := e.openFiles[idx]
	if of.dirty {
		if fs := e.Drive(of.drive); fs != nil {
			_ = fs.Write(of.name, of.data)
		}
	}

	f.ClearHandle()
	writeFCB(e.Memory, fcbAddr, f)
	e.setA(0x00)
}

func (e *Engine) bdosMakeFile(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	drive := e.effectiveDrive(f.Drive)
	name := f.GetFileName()

	handle := uint32(len(e.openFiles)) + 1
	e.openFiles = append(e.openFiles, openFile{drive: drive, name: name, data: nil, dirty: true})

	f.Init()
	f.SetHandle(handle)
	writeFCB(e.Memory, fcbAddr, f)
	e.setA(0x00)
}

func (e *Engine) bdosDeleteFile(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	drive := e.effectiveDrive(f.Drive)
	name := f.GetFileName()

	fs := e.Drive(drive)
	if fs == nil || !fs.Delete(name) {
		e.setA(0xFF)
		return
	}
	e.setA(0x00)
}

func (e *Engine) bdosSearchFirst(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	drive := e.effectiveDrive(f.Drive)

	e.searchDrive = drive
	e.searchName = f.Name
	e.searchExt = f.Type

	fs := e.Drive(drive)
	if fs == nil {
		e.setA(0xFF)
		return
	}

	e.searchSnap = fs.List()
	sort.Strings(e.searchSnap)
	e.searchCursor = 0
	e.bdosSearchNext()
}

func (e *Engine) bdosSearchNext() {
	for e.searchCursor < len(e.searchSnap) {
		name := e.searchSnap[e.searchCursor]
		e.searchCursor++

		candidate := fcb.FromString(name)
		if candidate.Matches(e.searchName, e.searchExt) {
			dma := e.dma
			e.Memory.FillRange(dma, 32, 0x00)
			e.Memory.Set(dma, e.currentUser)
			e.Memory.PutRange(dma+1, candidate.Name[:]...)
			e.Memory.PutRange(dma+9, candidate.Type[:]...)
			e.setA(0x00)
			return
		}
	}
	e.setA(0xFF)
}

func (e *Engine) bdosRenameFile(fcbAddr uint16) {
	oldFCB := readFCB(e.Memory, fcbAddr)
	newFCB := readFCB(e.Memory, fcbAddr+16)

	drive := e.effectiveDrive(oldFCB.Drive)
	oldName := oldFCB.GetFileName()
	newName := newFCB.GetFileName()

	fs := e.Drive(drive)
	if fs == nil {
		e.setA(0xFF)
		return
	}
	data, ok := fs.Read(oldName)
	if !ok {
		e.setA(0xFF)
		return
	}
	if err := fs.Write(newName, data); err != nil {
		e.setA(0xFF)
		return
	}
	fs.Delete(oldName)
	e.setA(0x00)
}

func (e *Engine) bdosReadSequential(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	handle, ok := f.Handle()
	if !ok {
		e.setA(0xFF)
		return
	}
	idx := int(handle) - 1
	if idx < 0 || idx >= len(e.openFiles) {
		e.setA(0xFF)
		return
	}

	record := f.CurrentRecord()
	offset := int(record) * RecordSize
	data := e.openFiles[idx].data

	if offset >= len(data) {
		e.setA(0x01)
		return
	}

	e.Memory.FillRange(e.dma, RecordSize, 0x1A)
	end := offset + RecordSize
	if end > len(data) {
		end = len(data)
	}
	e.Memory.PutRange(e.dma, data[offset:end]...)

	hex, asc := data2String(data[offset:end])
	e.Logger.Debug("read sequential",
		slog.Int("record", int(record)),
		slog.Group("record",
			slog.Int("offset", offset),
			slog.String("dump_hex", hex),
			slog.String("dump_str", asc)))

	f.SetCurrentRecord(record + 1)
	writeFCB(e.Memory, fcbAddr, f)
	e.setA(0x00)
}

func (e *Engine) bdosWriteSequential(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	handle, ok := f.Handle()
	if !ok {
		e.setA(0xFF)
		return
	}
	idx := int(handle) - 1
	if idx < 0 || idx >= len(e.openFiles) {
		e.setA(0xFF)
		return
	}

	record := f.CurrentRecord()
	offset := int(record) * RecordSize
	e.writeRecord(idx, offset)

	f.SetCurrentRecord(record + 1)
	writeFCB(e.Memory, fcbAddr, f)
	e.setA(0x00)
}

func (e *Engine) bdosReadRandom(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	handle, ok := f.Handle()
	if !ok {
		e.setA(0xFF)
		return
	}
	idx := int(handle) - 1
	if idx < 0 || idx >= len(e.openFiles) {
		e.setA(0xFF)
		return
	}

	record := f.RandomRecord()
	offset := int(record) * RecordSize
	data := e.openFiles[idx].data

	if offset >= len(data) {
		e.setA(0x01)
		return
	}

	e.Memory.FillRange(e.dma, RecordSize, 0x1A)
	end := offset + RecordSize
	if end > len(data) {
		end = len(data)
	}
	e.Memory.PutRange(e.dma, data[offset:end]...)
	e.setA(0x00)
}

func (e *Engine) bdosWriteRandom(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	handle, ok := f.Handle()
	if !ok {
		e.setA(0xFF)
		return
	}
	idx := int(handle) - 1
	if idx < 0 || idx >= len(e.openFiles) {
		e.setA(0xFF)
		return
	}

	offset := int(f.RandomRecord()) * RecordSize
	e.writeRecord(idx, offset)
	e.setA(0x00)
}

// writeRecord copies one 128-byte record from the DMA buffer into an
// open-file's in-memory data, padding the gap with 0x1A if the write
// extends past the current end of file.
func (e *Engine) writeRecord(idx, offset int) {
	data := e.openFiles[idx].data
	need := offset + RecordSize
	if need > len(data) {
		grown := make([]byte, need)
		copy(grown, data)
		for i := len(data); i < need; i++ {
			grown[i] = 0x1A
		}
		data = grown
	}
	record := e.Memory.GetRange(e.dma, RecordSize)
	copy(data[offset:offset+RecordSize], record)
	e.openFiles[idx].data = data
	e.openFiles[idx].dirty = true

	hex, asc := data2String(record)
	e.Logger.Debug("write record",
		slog.Group("record",
			slog.Int("offset", offset),
			slog.String("dump_hex", hex),
			slog.String("dump_str", asc)))
}

func (e *Engine) bdosComputeFileSize(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	drive := e.effectiveDrive(f.Drive)
	name := f.GetFileName()

	fs := e.Drive(drive)
	if fs == nil {
		e.setA(0xFF)
		return
	}
	data, ok := fs.Read(name)
	if !ok {
		e.setA(0xFF)
		return
	}
	records := (len(data) + RecordSize - 1) / RecordSize
	f.SetRandomRecord(uint32(records))
	writeFCB(e.Memory, fcbAddr, f)
	e.setA(0x00)
}

func (e *Engine) bdosSetRandomRecord(fcbAddr uint16) {
	f := readFCB(e.Memory, fcbAddr)
	f.SetRandomRecord(f.CurrentRecord())
	writeFCB(e.Memory, fcbAddr, f)
}
