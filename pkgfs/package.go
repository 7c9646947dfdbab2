package pkgfs

import (
	"archive/zip"
	"io"
	"sort"
	"strings"

	"github.com/dgpx/zcpm/cpmerr"
	"github.com/dgpx/zcpm/drivefs"
)

// LoadedPackage is a manifest plus the files and actions it claims.
type LoadedPackage struct {
	Manifest Manifest
	Files    map[string][]byte
	Actions  []PackageAction
}

// ActionsFor returns the actions in this package whose patterns match the
// given filename.
func (p *LoadedPackage) ActionsFor(filename string) []PackageAction {
	var out []PackageAction
	for _, a := range p.Actions {
		if ActionMatchesFile(a, filename) {
			out = append(out, a)
		}
	}
	return out
}

// ActionMatchesFile reports whether filename satisfies one of action's
// glob patterns. Patterns are either "*.EXT" (suffix match) or an exact
// filename, compared case-insensitively.
func ActionMatchesFile(action PackageAction, filename string) bool {
	upper := strings.ToUpper(filename)
	for _, pattern := range action.Patterns {
		upperPattern := strings.ToUpper(pattern)
		if strings.HasPrefix(upperPattern, "*") {
			if strings.HasSuffix(upper, strings.TrimPrefix(upperPattern, "*")) {
				return true
			}
			continue
		}
		if upper == upperPattern {
			return true
		}
	}
	return false
}

// ExpandSubmitTemplate fills in an action's submit template (or the
// default "{command} {name}\r") with a basename and optional drive
// letter.
func ExpandSubmitTemplate(action PackageAction, baseName string, drive rune) string {
	template := action.Submit
	if template == "" {
		template = "{command} {name}\r"
	}

	result := strings.ReplaceAll(template, "{command}", action.Command)
	result = strings.ReplaceAll(result, "{name}", baseName)
	if drive != 0 {
		result = strings.ReplaceAll(result, "{drive}", string(drive))
	}
	return result
}

// LoadPackages parses a ZIP archive and returns one LoadedPackage per
// manifest found (or a single synthesized manifest if none is present).
func LoadPackages(r io.ReaderAt, size int64) ([]LoadedPackage, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, cpmerr.Wrap(cpmerr.ArchiveFormat, "opening archive", err)
	}

	allFiles := make(map[string][]byte)
	var manifests []Manifest

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, cpmerr.Wrap(cpmerr.ArchiveFormat, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, cpmerr.Wrap(cpmerr.Io, f.Name, err)
		}

		upperName := strings.ToUpper(f.Name)
		if upperName == "MANIFEST.MF" || strings.HasSuffix(upperName, "/MANIFEST.MF") {
			if parsed := normalizeManifestData(content); parsed != nil {
				manifests = parsed
			}
			continue
		}

		basename := f.Name
		if idx := strings.LastIndexByte(basename, '/'); idx >= 0 {
			basename = basename[idx+1:]
		}
		allFiles[drivefs.Normalize8_3(basename)] = content
	}

	if len(manifests) == 0 {
		names := make([]string, 0, len(allFiles))
		for name := range allFiles {
			names = append(names, name)
		}
		sort.Strings(names)

		var entries []FileEntry
		for _, name := range names {
			entries = append(entries, FileEntry{Src: name})
		}
		manifests = []Manifest{{Name: "Unknown Package", Files: entries}}
	}

	packages := make([]LoadedPackage, 0, len(manifests))
	assigned := make(map[string]bool)

	for _, manifest := range manifests {
		pkgFiles := make(map[string][]byte)

		for _, entry := range manifest.Files {
			fname := drivefs.Normalize8_3(entry.Src)
			if content, ok := allFiles[fname]; ok {
				pkgFiles[fname] = content
				assigned[fname] = true
			}
		}

		owner := manifest.ID
		if owner == "" {
			owner = manifest.Name
		}

		actions := make([]PackageAction, len(manifest.Actions))
		for i, a := range manifest.Actions {
			a.Package = owner
			actions[i] = a
		}

		packages = append(packages, LoadedPackage{
			Manifest: manifest,
			Files:    pkgFiles,
			Actions:  actions,
		})
	}

	if len(packages) > 0 {
		for fname, content := range allFiles {
			if !assigned[fname] {
				packages[0].Files[fname] = content
			}
		}
	}

	return packages, nil
}
