// Package workspace is a thread-safe container owning the sixteen drive
// slots and a package cache, so several emulator instances can share one
// set of drives and see each other's writes immediately.
//
// The Workspace struct guards its drive slots, drive configs and package
// cache with a single sync.RWMutex.
package workspace

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dgpx/zcpm/cpmerr"
	"github.com/dgpx/zcpm/drivefs"
	"github.com/dgpx/zcpm/pkgfs"
)

// DriveConfig records how a drive letter was configured, so a later
// lookup (or shell discovery) can see which packages back it.
type DriveConfig struct {
	Letter   rune
	Packages []string
	Writable bool
}

// ShellInfo describes a bootable shell discovered on some drive.
type ShellInfo struct {
	Binary      []byte
	Filename    string
	Drive       rune
	LoadAddress uint16
	Package     string
}

// fallbackShellNames is the order CCP.COM lookalikes are tried when no
// package manifest advertises a shell.
var fallbackShellNames = []string{"XCCP.COM", "CCP.COM", "ZCCP.COM"}

// Workspace is a shared, mutex-guarded environment multiple emulators can
// attach to: mounting a drive or writing a file through one Workspace
// handle is immediately visible through any other handle to the same
// Workspace (they share one underlying struct).
type Workspace struct {
	mu       sync.RWMutex
	drives   [16]drivefs.DriveFS
	configs  map[rune]DriveConfig
	pkgCache map[string]pkgfs.LoadedPackage
}

// New returns an empty workspace.
func New() *Workspace {
	return &Workspace{
		configs:  make(map[rune]DriveConfig),
		pkgCache: make(map[string]pkgfs.LoadedPackage),
	}
}

func driveIndex(letter rune) (int, error) {
	upper := letter
	if upper >= 'a' && upper <= 'p' {
		upper -= 'a' - 'A'
	}
	if upper < 'A' || upper > 'P' {
		return 0, cpmerr.New(cpmerr.InvalidDrive, string(letter))
	}
	return int(upper - 'A'), nil
}

// Mount attaches a filesystem at the given drive letter (A-P).
func (w *Workspace) Mount(letter rune, fs drivefs.DriveFS) error {
	idx, err := driveIndex(letter)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drives[idx] = fs
	return nil
}

// Unmount detaches whatever is mounted at the given letter, and forgets
// its drive configuration.
func (w *Workspace) Unmount(letter rune) error {
	idx, err := driveIndex(letter)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.drives[idx] = nil
	delete(w.configs, normalizeLetter(letter))
	return nil
}

// IsMounted reports whether a drive is mounted.
func (w *Workspace) IsMounted(letter rune) bool {
	idx, err := driveIndex(letter)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.drives[idx] != nil
}

// ReadFile reads a file from a drive, or ok=false if the drive is
// unmounted or the file doesn't exist.
func (w *Workspace) ReadFile(letter rune, name string) ([]byte, bool) {
	idx, err := driveIndex(letter)
	if err != nil {
		return nil, false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	fs := w.drives[idx]
	if fs == nil {
		return nil, false
	}
	return fs.Read(name)
}

// WriteFile writes a file to a drive.
func (w *Workspace) WriteFile(letter rune, name string, data []byte) error {
	idx, err := driveIndex(letter)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fs := w.drives[idx]
	if fs == nil {
		return cpmerr.New(cpmerr.DriveNotMounted, string(letter))
	}
	return fs.Write(name, data)
}

// DeleteFile deletes a file from a drive, reporting whether it existed.
func (w *Workspace) DeleteFile(letter rune, name string) (bool, error) {
	idx, err := driveIndex(letter)
	if err != nil {
		return false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fs := w.drives[idx]
	if fs == nil {
		return false, cpmerr.New(cpmerr.DriveNotMounted, string(letter))
	}
	return fs.Delete(name), nil
}

// ListFiles lists the files on a drive.
func (w *Workspace) ListFiles(letter rune) ([]string, error) {
	idx, err := driveIndex(letter)
	if err != nil {
		return nil, err
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	fs := w.drives[idx]
	if fs == nil {
		return nil, cpmerr.New(cpmerr.DriveNotMounted, string(letter))
	}
	return fs.List(), nil
}

// FileExists reports whether a file exists on a drive.
func (w *Workspace) FileExists(letter rune, name string) bool {
	idx, err := driveIndex(letter)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	fs := w.drives[idx]
	if fs == nil {
		return false
	}
	return fs.Exists(name)
}

// MountedDrives returns the letters of every mounted drive, A first.
func (w *Workspace) MountedDrives() []rune {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []rune
	for i, fs := range w.drives {
		if fs != nil {
			out = append(out, rune('A'+i))
		}
	}
	return out
}

// Drive returns the filesystem mounted at a letter, or nil.
func (w *Workspace) Drive(letter rune) drivefs.DriveFS {
	idx, err := driveIndex(letter)
	if err != nil {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.drives[idx]
}

// ConfigureDrive builds a PackageDrive from the given packages (wrapped in
// an OverlayDrive when writable) and mounts it at config.Letter,
// remembering the config for later shell discovery.
func (w *Workspace) ConfigureDrive(config DriveConfig, packages ...pkgfs.LoadedPackage) error {
	letter := normalizeLetter(config.Letter)
	idx, err := driveIndex(letter)
	if err != nil {
		return err
	}

	base := pkgfs.NewPackageDrive(packages...)
	var fs drivefs.DriveFS = base
	if config.Writable {
		fs = drivefs.NewOverlayDrive(base)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.drives[idx] = fs
	config.Letter = letter
	w.configs[letter] = config
	return nil
}

// DriveConfig returns the configuration recorded for a letter, if any.
func (w *Workspace) DriveConfig(letter rune) (DriveConfig, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.configs[normalizeLetter(letter)]
	return c, ok
}

// CachePackage remembers a loaded package under a lower-cased name, so
// repeated mounts of the same archive skip re-parsing it.
func (w *Workspace) CachePackage(name string, pkg pkgfs.LoadedPackage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pkgCache[strings.ToLower(name)] = pkg
}

// CachedPackage looks a package up by name, case-insensitively.
func (w *Workspace) CachedPackage(name string) (pkgfs.LoadedPackage, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	pkg, ok := w.pkgCache[strings.ToLower(name)]
	return pkg, ok
}

// CreateMemoryDrive mounts a fresh, empty MemoryDrive at the given letter.
func (w *Workspace) CreateMemoryDrive(letter rune) error {
	return w.Mount(letter, drivefs.NewMemoryDrive())
}

// FindShell searches mounted drives, in letter order, for a shell to
// boot: first any package (per drive config) whose manifest lists a file
// entry with type "shell", then a fallback lookup of
// XCCP.COM/CCP.COM/ZCCP.COM directly on the drive.
func (w *Workspace) FindShell() (ShellInfo, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for i, fs := range w.drives {
		if fs == nil {
			continue
		}
		letter := rune('A' + i)

		if config, ok := w.configs[letter]; ok {
			for _, pkgName := range config.Packages {
				pkg, ok := w.pkgCache[strings.ToLower(pkgName)]
				if !ok {
					continue
				}
				if info, ok := shellFromManifest(pkg, letter); ok {
					return info, true
				}
			}
		}

		for _, name := range fallbackShellNames {
			if data, ok := fs.Read(name); ok {
				return ShellInfo{
					Binary:      data,
					Filename:    name,
					Drive:       letter,
					LoadAddress: 0x0100,
					Package:     "unknown",
				}, true
			}
		}
	}

	return ShellInfo{}, false
}

func shellFromManifest(pkg pkgfs.LoadedPackage, letter rune) (ShellInfo, bool) {
	for _, entry := range pkg.Manifest.Files {
		if entry.Type != "shell" {
			continue
		}
		fname := drivefs.Normalize8_3(entry.Src)
		data, ok := pkg.Files[fname]
		if !ok {
			continue
		}
		return ShellInfo{
			Binary:      data,
			Filename:    fname,
			Drive:       letter,
			LoadAddress: parseLoadAddress(entry.LoadAddress),
			Package:     pkg.Manifest.Name,
		}, true
	}
	return ShellInfo{}, false
}

// parseLoadAddress parses a hex string like "0xDC00" or "DC00", defaulting
// to 0x0100 (the TPA) when absent or malformed.
func parseLoadAddress(s string) uint16 {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0x0100
	}
	var v uint32
	if _, err := fmt.Sscanf(s, "%X", &v); err != nil {
		return 0x0100
	}
	return uint16(v)
}

func normalizeLetter(letter rune) rune {
	if letter >= 'a' && letter <= 'p' {
		return letter - ('a' - 'A')
	}
	return letter
}
