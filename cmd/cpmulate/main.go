// cpmulate is the command-line driver for the zcpm engine: it parses
// flags, mounts drives from package archives, registers a shell, and runs
// the guest until it halts or warm-boots with nothing left to reload.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/dgpx/zcpm/ccp"
	"github.com/dgpx/zcpm/console"
	"github.com/dgpx/zcpm/cpm"
	"github.com/dgpx/zcpm/drivefs"
	"github.com/dgpx/zcpm/pkgfs"
	"github.com/dgpx/zcpm/static"
	"github.com/dgpx/zcpm/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("cpmulate", flag.ContinueOnError)

	input := fs.String("input", "term", "Console input driver (-list-input-drivers for choices).")
	output := fs.String("output", "ansi", "Console output driver (-list-output-drivers for choices).")
	ccpName := fs.String("ccp", "", "Name of a registered shell flavour to boot when no program is given.")
	trace := fs.Bool("trace", false, "Log every BDOS/BIOS call to stderr.")
	stuff := fs.String("stuff", "", "Inject this text into the input stream before starting (input drivers with stuffing support only, e.g. stty; ignored otherwise).")
	prnPath := fs.String("prn-path", "print.log", "File to write list-device (BDOS 5 / List Output) output to.")
	showVersion := fs.Bool("version", false, "Print the version banner and exit.")
	listInput := fs.Bool("list-input-drivers", false, "List console input drivers and exit.")
	listOutput := fs.Bool("list-output-drivers", false, "List console output drivers and exit.")

	driveFlags := make(map[string]*string)
	for _, letter := range "ABCDEFGHIJKLMNOP" {
		driveFlags[string(letter)] = fs.String("drive-"+strings.ToLower(string(letter)), "",
			"Path to a package archive (.zip) to mount on drive "+string(letter)+":")
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *showVersion {
		fmt.Print(version.GetVersionBanner())
		return 0
	}
	if *listInput {
		printSorted(console.InputDrivers())
		return 0
	}
	if *listOutput {
		printSorted(console.OutputDrivers())
		return 0
	}

	level := slog.LevelWarn
	if *trace {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	in, ok := console.NewInput(*input)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown input driver %q\n", *input)
		return 1
	}
	out, ok := console.NewOutput(*output)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown output driver %q\n", *output)
		return 1
	}
	con := console.NewTerminalConsole(in, out)
	if err := con.Setup(); err != nil {
		fmt.Fprintf(os.Stderr, "console setup failed: %v\n", err)
		return 1
	}
	defer con.TearDown()

	if *prnPath != "" {
		prnFile, err := os.OpenFile(*prnPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening printer log %s: %v\n", *prnPath, err)
			return 1
		}
		defer prnFile.Close()

		printer, _ := console.NewOutput("ansi")
		printer.SetWriter(prnFile)
		con.SetPrinter(printer)
	}

	if *stuff != "" {
		if stuffer, ok := in.(interface{ StuffInput(string) }); ok {
			stuffer.StuffInput(*stuff)
		}
	}

	engine := cpm.New(con, logger)

	registry := ccp.NewRegistry()

	for letter, path := range driveFlags {
		if *path == "" {
			continue
		}
		drive, packages, err := mountPackageDrive(*path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mounting drive %s: %v\n", letter, err)
			return 1
		}
		engine.Mount(driveIndex(letter), drive)
		registerShells(registry, packages)
	}

	engine.SetCCPRegistry(registry, *ccpName)

	program := fs.Args()
	if len(program) > 0 {
		data, err := os.ReadFile(program[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading %s: %v\n", program[0], err)
			return 1
		}
		engine.LoadCOM(data)
		if len(program) > 1 {
			engine.SetArgs(strings.Join(program[1:], " "))
		}
	} else if *ccpName != "" {
		if err := engine.SwitchCCP(*ccpName); err != nil {
			fmt.Fprintf(os.Stderr, "selecting CCP %q: %v\n", *ccpName, err)
			return 1
		}
		printWelcome(con)
	}

	info, err := engine.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "execution error: %v\n", err)
		return 1
	}

	logger.Debug("execution finished", slog.String("reason", info.Reason.String()))
	return 0
}

// mountPackageDrive loads a ZIP archive from disk and exposes it as a
// read-only drivefs.DriveFS.
func mountPackageDrive(path string) (drivefs.DriveFS, []pkgfs.LoadedPackage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	packages, err := pkgfs.LoadPackages(f, info.Size())
	if err != nil {
		return nil, nil, err
	}
	return pkgfs.NewPackageDrive(packages...), packages, nil
}

// registerShells scans each package's manifest for a file entry of
// type "shell" and registers it as a bootable CCP flavour, named after
// the manifest.
func registerShells(registry *ccp.Registry, packages []pkgfs.LoadedPackage) {
	for _, pkg := range packages {
		for _, entry := range pkg.Manifest.Files {
			if entry.Type != "shell" {
				continue
			}
			fname := drivefs.Normalize8_3(entry.Src)
			data, ok := pkg.Files[fname]
			if !ok {
				continue
			}
			name := pkg.Manifest.ID
			if name == "" {
				name = pkg.Manifest.Name
			}
			registry.Register(ccp.Flavour{
				Name:        name,
				Description: pkg.Manifest.Description,
				Bytes:       data,
				Start:       parseLoadAddress(entry.LoadAddress),
			})
		}
	}
}

// parseLoadAddress parses a hex string like "0xDC00", defaulting to the
// TPA load point when absent or malformed. Relocated CCPs declare their
// own address (conventionally 0xDC00) in the manifest entry.
func parseLoadAddress(s string) uint16 {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return cpm.TPA
	}
	var v uint32
	if _, err := fmt.Sscanf(s, "%X", &v); err != nil {
		return cpm.TPA
	}
	return uint16(v)
}

// printWelcome shows the bundled greeting banner before an interactive
// shell starts, via the console so CR/LF handling matches guest output.
func printWelcome(con console.Console) {
	data, err := static.Content.ReadFile("bundled/welcome.txt")
	if err != nil {
		return
	}
	for _, ch := range data {
		if ch == '\n' {
			con.Write(0x0D)
		}
		con.Write(ch)
	}
}

func driveIndex(letter string) uint8 {
	return letter[0] - 'A'
}

func printSorted(names []string) {
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
}
