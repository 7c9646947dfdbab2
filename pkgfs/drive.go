package pkgfs

import (
	"encoding/json"
	"sort"

	"github.com/dgpx/zcpm/cpmerr"
	"github.com/dgpx/zcpm/drivefs"
)

// PackageDrive is a read-only drivefs.DriveFS backed by one or more loaded
// packages. Later packages override earlier ones on duplicate filenames.
// It additionally synthesizes a virtual MANIFEST.MF whenever at least one
// package is held.
type PackageDrive struct {
	files       map[string][]byte
	fileOrigins map[string]string
	packages    []LoadedPackage
	allActions  []PackageAction
}

// NewPackageDrive builds a PackageDrive from already-loaded packages.
func NewPackageDrive(packages ...LoadedPackage) *PackageDrive {
	d := &PackageDrive{
		files:       make(map[string][]byte),
		fileOrigins: make(map[string]string),
	}
	for _, p := range packages {
		d.AddPackage(p)
	}
	return d
}

// AddPackage merges another package's files into the drive.
func (d *PackageDrive) AddPackage(pkg LoadedPackage) {
	owner := pkg.Manifest.Name
	for name, data := range pkg.Files {
		fname := drivefs.Normalize8_3(name)
		d.files[fname] = data
		d.fileOrigins[fname] = owner
	}
	d.allActions = append(d.allActions, pkg.Actions...)
	d.packages = append(d.packages, pkg)
}

// Packages returns every package merged into this drive.
func (d *PackageDrive) Packages() []LoadedPackage {
	return d.packages
}

// Actions returns every action collected across held packages.
func (d *PackageDrive) Actions() []PackageAction {
	return d.allActions
}

// FileOrigin reports which package's manifest a file came from.
func (d *PackageDrive) FileOrigin(name string) (string, bool) {
	origin, ok := d.fileOrigins[drivefs.Normalize8_3(name)]
	return origin, ok
}

func (d *PackageDrive) manifestContent() []byte {
	if len(d.packages) == 1 {
		b, _ := json.MarshalIndent(d.packages[0].Manifest, "", "  ")
		return b
	}

	manifests := make([]Manifest, len(d.packages))
	for i, p := range d.packages {
		manifests[i] = p.Manifest
	}
	b, _ := json.MarshalIndent(manifests, "", "  ")
	return b
}

// Read implements drivefs.DriveFS.
func (d *PackageDrive) Read(name string) ([]byte, bool) {
	fname := drivefs.Normalize8_3(name)
	if fname == "MANIFEST.MF" && len(d.packages) > 0 {
		return d.manifestContent(), true
	}
	data, ok := d.files[fname]
	return data, ok
}

// Write implements drivefs.DriveFS: package drives are read-only.
func (d *PackageDrive) Write(name string, data []byte) error {
	return cpmerr.New(cpmerr.ReadOnly, name)
}

// Delete implements drivefs.DriveFS: package drives are read-only.
func (d *PackageDrive) Delete(name string) bool {
	return false
}

// List implements drivefs.DriveFS.
func (d *PackageDrive) List() []string {
	names := make([]string, 0, len(d.files)+1)
	for name := range d.files {
		names = append(names, name)
	}
	if len(d.packages) > 0 {
		if _, ok := d.files["MANIFEST.MF"]; !ok {
			names = append(names, "MANIFEST.MF")
		}
	}
	sort.Strings(names)
	return names
}

// Exists implements drivefs.DriveFS.
func (d *PackageDrive) Exists(name string) bool {
	fname := drivefs.Normalize8_3(name)
	if fname == "MANIFEST.MF" && len(d.packages) > 0 {
		return true
	}
	_, ok := d.files[fname]
	return ok
}

var _ drivefs.DriveFS = (*PackageDrive)(nil)
