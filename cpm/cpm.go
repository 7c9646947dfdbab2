// Package cpm drives a Z80 CPU through a CP/M 2.2 execution environment:
// 64KiB of linear memory, an intercepting BDOS/BIOS dispatcher, a 16-slot
// drive table, an open-file table and the warm-boot reload cycle that
// keeps a shell alive across guest program exits.
package cpm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/koron-go/z80"

	"github.com/dgpx/zcpm/ccp"
	"github.com/dgpx/zcpm/console"
	"github.com/dgpx/zcpm/drivefs"
	"github.com/dgpx/zcpm/fcb"
	"github.com/dgpx/zcpm/memory"
)

// ExitReason describes why Run/RunFrom returned control to the host.
type ExitReason int

const (
	// WarmBoot means the guest jumped to 0x0000 or invoked BDOS 0 and no
	// shell was registered to reload.
	WarmBoot ExitReason = iota
	// Halt means the CPU executed a HALT instruction.
	Halt
)

func (r ExitReason) String() string {
	switch r {
	case WarmBoot:
		return "WarmBoot"
	case Halt:
		return "Halt"
	default:
		return "Unknown"
	}
}

// ExitInfo reports how and where execution stopped.
type ExitInfo struct {
	Reason ExitReason
	PC     uint16
}

// openFile is one entry in the engine's open-file table; handles into this
// table are what get hidden in an FCB's disk-allocation-map bytes.
type openFile struct {
	drive uint8
	name  string
	data  []byte
	dirty bool
}

// Engine is CP/M-on-Z80 execution state: memory, CPU, mounted drives,
// console, open files and directory-search cursor.
type Engine struct {
	Memory *memory.Memory
	CPU    z80.CPU

	console console.Console
	drives  [16]drivefs.DriveFS

	currentDrive uint8
	currentUser  uint8
	dma          uint16

	openFiles []openFile

	searchDrive  uint8
	searchName   [8]uint8
	searchExt    [3]uint8
	searchSnap   []string
	searchCursor int

	shellBytes   []byte
	shellAddress uint16

	// ccps and currentCCP back BIOS extension function 0x0001
	// (get/set CCP flavour); a registry is optional, nil unless the
	// host registers one with SetCCPRegistry.
	ccps       *ccp.Registry
	currentCCP string

	Logger *slog.Logger
}

// New creates an engine bound to the given console. A logger of nil is
// replaced with one that discards everything.
func New(con console.Console, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{
		Memory:       new(memory.Memory),
		console:      con,
		shellAddress: TPA,
		dma:          DefaultDMA,
		Logger:       logger,
	}
	e.initMemory()
	return e
}

// initMemory (re)establishes the fixed low-memory vectors: warm-boot jump,
// BDOS vector, and RET stubs at the BDOS and BIOS intercept points.
func (e *Engine) initMemory() {
	e.Memory.Set(WarmBootVector, 0xC3)
	e.Memory.Set(WarmBootVector+1, 0x00)
	e.Memory.Set(WarmBootVector+2, 0x00)

	e.Memory.Set(IOByte, 0x00)
	e.Memory.Set(CurrentDrive, 0x00)

	e.Memory.Set(BDOSVector, 0xC3)
	e.Memory.SetU16(BDOSVector+1, BDOSEntry)

	e.Memory.Set(BDOSEntry, 0xC9) // RET

	for i := 0; i < biosSlots; i++ {
		e.Memory.Set(uint16(BIOSBase+i*3), 0xC9) // RET
	}
}

// Mount attaches a filesystem at the given drive index (0=A .. 15=P).
func (e *Engine) Mount(drive uint8, fs drivefs.DriveFS) {
	if drive < 16 {
		e.drives[drive] = fs
	}
}

// Unmount detaches whatever filesystem is at the given drive index.
func (e *Engine) Unmount(drive uint8) {
	if drive < 16 {
		e.drives[drive] = nil
	}
}

// Drive returns the filesystem mounted at the given index, or nil.
func (e *Engine) Drive(drive uint8) drivefs.DriveFS {
	if drive >= 16 {
		return nil
	}
	return e.drives[drive]
}

// Console returns the engine's console.
func (e *Engine) Console() console.Console {
	return e.console
}

// LoadAt copies data into memory starting at address.
func (e *Engine) LoadAt(address uint16, data []uint8) {
	e.Memory.LoadAt(address, data)
}

// LoadCOM loads a .COM image at the canonical TPA load point.
func (e *Engine) LoadCOM(data []uint8) {
	e.LoadAt(TPA, data)
}

// SetShell registers the shell image reloaded on every warm boot.
func (e *Engine) SetShell(data []uint8, address uint16) {
	e.shellBytes = append([]byte(nil), data...)
	e.shellAddress = address
	e.LoadAt(address, data)
}

// SetCCPRegistry attaches a shell-flavour registry, enabling BIOS
// extension function 0x0001 (get/set CCP) to switch between registered
// shells at runtime.
func (e *Engine) SetCCPRegistry(r *ccp.Registry, active string) {
	e.ccps = r
	e.currentCCP = active
}

// SwitchCCP looks the named flavour up in the registry and makes it the
// shell reloaded on warm boot.
func (e *Engine) SwitchCCP(name string) error {
	f, err := e.ccps.Get(name)
	if err != nil {
		return err
	}
	e.currentCCP = f.Name
	e.SetShell(f.Bytes, f.Start)
	return nil
}

// SetArgs injects a command-line tail as an uppercased, length-prefixed
// Pascal string at the default DMA/command-line location.
func (e *Engine) SetArgs(args string) {
	upper := []byte(toUpperASCII(args))
	n := len(upper)
	if n > 127 {
		n = 127
	}
	e.Memory.Set(CommandLine, uint8(n))
	e.Memory.PutRange(CommandLine+1, upper[:n]...)
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// ErrTimeout is returned by RunContext when ctx is done before the guest
// halts or warm-boots.
var ErrTimeout = errors.New("cpm: execution timed out")

// Run starts execution at the TPA load point.
func (e *Engine) Run() (ExitInfo, error) {
	return e.RunFrom(TPA)
}

// RunFrom starts execution at the given address with no deadline.
func (e *Engine) RunFrom(start uint16) (ExitInfo, error) {
	return e.RunContext(context.Background(), start)
}

// RunContext starts execution at the given address and runs until the
// guest halts, warm-boots with no shell registered, or ctx is done. If a
// shell is registered, warm boot reloads it and execution continues
// transparently.
func (e *Engine) RunContext(ctx context.Context, start uint16) (ExitInfo, error) {
	e.CPU = z80.CPU{
		States: z80.States{SPR: z80.SPR{PC: start}},
		Memory: e.Memory,
	}
	e.CPU.SP = BDOSEntry - 2
	e.CPU.BreakPoints = e.breakpoints()

	for {
		err := e.CPU.Run(ctx)
		if err == nil && ctx.Err() != nil {
			return ExitInfo{}, ErrTimeout
		}
		if err == nil {
			// HALT.
			e.flushOpenFiles()
			return ExitInfo{Reason: Halt, PC: e.CPU.PC}, nil
		}
		if !errors.Is(err, z80.ErrBreakPoint) {
			return ExitInfo{}, fmt.Errorf("cpm: cpu run failed: %w", err)
		}

		pc := e.CPU.PC
		switch {
		case pc == WarmBootVector:
			if e.reloadShell() {
				continue
			}
			return ExitInfo{Reason: WarmBoot, PC: pc}, nil

		case pc == BDOSEntry:
			warm := e.dispatchBDOS()
			if warm {
				if e.reloadShell() {
					continue
				}
				return ExitInfo{Reason: WarmBoot, PC: pc}, nil
			}
			e.returnFromCall()

		case pc >= BIOSBase:
			warm := e.dispatchCBIOS(pc)
			if warm {
				if e.reloadShell() {
					continue
				}
				return ExitInfo{Reason: WarmBoot, PC: pc}, nil
			}
			e.returnFromCall()

		default:
			return ExitInfo{}, fmt.Errorf("cpm: unexpected breakpoint at 0x%04X", pc)
		}
	}
}

// breakpoints computes the PC-intercept set: the BDOS entry, every BIOS
// slot, and the warm-boot vector.
func (e *Engine) breakpoints() map[uint16]struct{} {
	bp := map[uint16]struct{}{
		WarmBootVector: {},
		BDOSEntry:      {},
	}
	for i := 0; i < biosSlots; i++ {
		bp[uint16(BIOSBase+i*3)] = struct{}{}
	}
	return bp
}

// returnFromCall pops a return address off the guest stack, the
// conventional way a CALL-based syscall resumes.
func (e *Engine) returnFromCall() {
	ret := e.Memory.GetU16(e.CPU.SP)
	e.CPU.SP += 2
	e.CPU.PC = ret
}

// reloadShell reloads the registered shell image after flushing open
// files, restoring the fixed vectors, and resetting CPU/DMA state. It
// reports whether a shell was actually registered.
func (e *Engine) reloadShell() bool {
	if e.shellBytes == nil {
		return false
	}

	e.flushOpenFiles()
	e.LoadAt(e.shellAddress, e.shellBytes)
	e.initMemory()
	e.currentDrive = 0
	e.dma = DefaultDMA
	e.Memory.Set(CommandLine, 0x00)

	e.CPU = z80.CPU{
		States: z80.States{SPR: z80.SPR{PC: e.shellAddress}},
		Memory: e.Memory,
	}
	e.CPU.SP = BDOSEntry - 2
	e.CPU.BreakPoints = e.breakpoints()
	return true
}

// flushOpenFiles writes every dirty open-file buffer back to its drive and
// empties the table. Write failures are ignored: CP/M's close is
// best-effort.
func (e *Engine) flushOpenFiles() {
	for _, f := range e.openFiles {
		if f.dirty {
			if fs := e.Drive(f.drive); fs != nil {
				_ = fs.Write(f.name, f.data)
			}
		}
	}
	e.openFiles = nil
}

// effectiveDrive resolves an FCB drive byte (0 meaning "current drive")
// into an absolute 0-based drive index.
func (e *Engine) effectiveDrive(fcbDrive uint8) uint8 {
	if fcbDrive == 0 {
		return e.currentDrive
	}
	return fcbDrive - 1
}

func readFCB(m *memory.Memory, addr uint16) fcb.FCB {
	return fcb.FromBytes(m.GetRange(addr, fcb.Size))
}

func writeFCB(m *memory.Memory, addr uint16, f fcb.FCB) {
	b := f.AsBytes()
	m.PutRange(addr, b[:]...)
}
