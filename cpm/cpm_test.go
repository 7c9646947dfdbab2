package cpm

import (
	"bytes"
	"testing"

	"github.com/dgpx/zcpm/console"
	"github.com/dgpx/zcpm/drivefs"
)

func newTestEngine() (*Engine, *console.LoggerOutput) {
	out := &console.LoggerOutput{}
	in := console.NewHeadlessInput()
	con := console.NewTerminalConsole(in, out)
	return New(con, nil), out
}

func TestHelloWorld(t *testing.T) {
	program := []byte{
		0x0E, 0x02, // LD C, 2
		0x1E, 'H', // LD E, 'H'
		0xCD, 0x05, 0x00, // CALL 0x0005
		0x1E, 'i', // LD E, 'i'
		0xCD, 0x05, 0x00, // CALL 0x0005
		0xC3, 0x00, 0x00, // JP 0x0000
	}

	e, out := newTestEngine()
	e.LoadCOM(program)

	info, err := e.Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if info.Reason != WarmBoot {
		t.Fatalf("got reason %v, want WarmBoot", info.Reason)
	}
	if got := out.GetOutput(); got != "Hi" {
		t.Fatalf("got console output %q, want %q", got, "Hi")
	}
}

func TestWriteThenReadRecord(t *testing.T) {
	e, _ := newTestEngine()
	drive := drivefs.NewMemoryDrive()
	e.Mount(0, drive)

	fcbAddr := uint16(0x005C)
	e.Memory.Set(fcbAddr, 0) // default drive
	e.Memory.PutRange(fcbAddr+1, []byte("OUT     DAT")...)
	e.Memory.FillRange(fcbAddr+12, 24, 0)

	e.dma = DefaultDMA
	e.bdosMakeFile(fcbAddr)
	if e.CPU.States.AF.Hi != 0x00 {
		t.Fatalf("make file failed, A=%#02x", e.CPU.States.AF.Hi)
	}

	block := bytes.Repeat([]byte{0xAA}, RecordSize)
	e.Memory.PutRange(DefaultDMA, block...)
	e.bdosWriteSequential(fcbAddr)
	if e.CPU.States.AF.Hi != 0x00 {
		t.Fatalf("write sequential failed, A=%#02x", e.CPU.States.AF.Hi)
	}
	e.bdosCloseFile(fcbAddr)

	e.Memory.Set(fcbAddr, 0)
	e.Memory.PutRange(fcbAddr+1, []byte("OUT     DAT")...)
	e.Memory.FillRange(fcbAddr+12, 24, 0)
	e.bdosOpenFile(fcbAddr)
	if e.CPU.States.AF.Hi != 0x00 {
		t.Fatalf("reopen failed, A=%#02x", e.CPU.States.AF.Hi)
	}

	e.Memory.FillRange(DefaultDMA, RecordSize, 0x00)
	e.bdosReadSequential(fcbAddr)
	if e.CPU.States.AF.Hi != 0x00 {
		t.Fatalf("read sequential failed, A=%#02x", e.CPU.States.AF.Hi)
	}
	got := e.Memory.GetRange(DefaultDMA, RecordSize)
	for i, b := range got {
		if b != 0xAA {
			t.Fatalf("byte %d = %#02x, want 0xAA", i, b)
		}
	}
}

func TestWriteRecordDoesNotMutateDriveUntilClose(t *testing.T) {
	e, _ := newTestEngine()
	drive := drivefs.NewMemoryDrive()
	original := bytes.Repeat([]byte{0x11}, RecordSize)
	_ = drive.Write("OUT.DAT", original)
	e.Mount(0, drive)

	fcbAddr := uint16(0x005C)
	e.Memory.Set(fcbAddr, 0)
	e.Memory.PutRange(fcbAddr+1, []byte("OUT     DAT")...)
	e.Memory.FillRange(fcbAddr+12, 24, 0)

	e.bdosOpenFile(fcbAddr)
	if e.CPU.States.AF.Hi != 0x00 {
		t.Fatalf("open failed, A=%#02x", e.CPU.States.AF.Hi)
	}

	e.Memory.PutRange(DefaultDMA, bytes.Repeat([]byte{0xAA}, RecordSize)...)
	e.bdosWriteSequential(fcbAddr)

	data, _ := drive.Read("OUT.DAT")
	if !bytes.Equal(data, original) {
		t.Fatalf("drive bytes mutated before close")
	}

	e.bdosCloseFile(fcbAddr)
	data, _ = drive.Read("OUT.DAT")
	if data[0] != 0xAA {
		t.Fatalf("expected close to write the record back, got %#02x", data[0])
	}
}

func TestSearchWildcard(t *testing.T) {
	e, _ := newTestEngine()
	drive := drivefs.NewMemoryDrive()
	_ = drive.Write("A.TXT", []byte("a"))
	_ = drive.Write("B.TXT", []byte("b"))
	_ = drive.Write("AA.COM", []byte("c"))
	e.Mount(0, drive)

	fcbAddr := uint16(0x005C)
	e.Memory.Set(fcbAddr, 0)
	e.Memory.PutRange(fcbAddr+1, []byte("????????TXT")...)
	e.dma = DefaultDMA

	e.bdosSearchFirst(fcbAddr)
	if e.CPU.States.AF.Hi != 0x00 {
		t.Fatalf("search first failed")
	}
	name := string(bytes.TrimRight(e.Memory.GetRange(DefaultDMA+1, 8), " "))
	if name != "A" {
		t.Fatalf("got first match %q, want %q", name, "A")
	}

	e.bdosSearchNext()
	if e.CPU.States.AF.Hi != 0x00 {
		t.Fatalf("search next failed")
	}
	name = string(bytes.TrimRight(e.Memory.GetRange(DefaultDMA+1, 8), " "))
	if name != "B" {
		t.Fatalf("got second match %q, want %q", name, "B")
	}

	e.bdosSearchNext()
	if e.CPU.States.AF.Hi != 0xFF {
		t.Fatalf("expected exhausted search to return 0xFF, got %#02x", e.CPU.States.AF.Hi)
	}
}

func TestWarmBootReload(t *testing.T) {
	shell := []byte{
		0x0E, 0x00, // LD C, 0 (system reset -> warm boot again, but we HALT first below)
		0x76, // HALT
	}

	e, _ := newTestEngine()
	e.SetShell(shell, TPA)

	program := []byte{
		0x0E, 0x00, // LD C, 0 (BDOS 0: system reset)
		0xCD, 0x05, 0x00, // CALL 0x0005
	}
	e.LoadAt(0x0200, program)

	info, err := e.RunFrom(0x0200)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if info.Reason != Halt {
		t.Fatalf("got reason %v, want Halt (shell reloaded then halted)", info.Reason)
	}
	if e.Memory.Get(CommandLine) != 0 {
		t.Fatalf("expected command-line length cleared after warm boot")
	}
	if e.Memory.Get(WarmBootVector) != 0xC3 {
		t.Fatalf("expected warm-boot vector restored")
	}
}

func TestLoginVectorReflectsMountedDrives(t *testing.T) {
	e, _ := newTestEngine()
	e.Mount(0, drivefs.NewMemoryDrive())
	e.Mount(2, drivefs.NewMemoryDrive())

	e.CPU.States.BC.Lo = 24
	e.dispatchBDOS()

	want := uint16(1<<0 | 1<<2)
	if got := e.CPU.States.HL.U16(); got != want {
		t.Fatalf("got login vector %#04x, want %#04x", got, want)
	}
}
