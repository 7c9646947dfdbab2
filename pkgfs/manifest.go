// Package pkgfs loads CP/M "packages" — ZIP archives carrying a set of
// files plus an optional manifest.mf describing them — and exposes the
// result as a read-only drivefs.DriveFS.
package pkgfs

import "encoding/json"

// InteractiveStep is one (wait, send) pair of a PackageAction's scripted
// interaction with a menu-driven tool.
type InteractiveStep struct {
	Wait string `json:"wait"`
	Send string `json:"send"`
}

// PackageAction describes a higher-layer command a package makes
// available; the emulator core never executes these itself, only parses
// and exposes them for a caller to run.
type PackageAction struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Command           string            `json:"command"`
	Patterns          []string          `json:"patterns,omitempty"`
	OutputExts        []string          `json:"outputExts,omitempty"`
	Submit            string            `json:"submit,omitempty"`
	InteractiveScript []InteractiveStep `json:"interactiveScript,omitempty"`

	// Package names the manifest (by id, or name if no id) this action
	// was collected from. Filled in at load time, never serialized.
	Package string `json:"-"`
}

// FileEntry describes one file a manifest lists.
type FileEntry struct {
	Src         string `json:"src"`
	Dst         string `json:"dst,omitempty"`
	Required    bool   `json:"required,omitempty"`
	LoadAddress string `json:"loadAddress,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Manifest is the decoded form of a package's manifest.mf.
type Manifest struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Version     string          `json:"version,omitempty"`
	Description string          `json:"description,omitempty"`
	OutputDir   string          `json:"outputDir,omitempty"`
	Files       []FileEntry     `json:"files,omitempty"`
	Meta        json.RawMessage `json:"meta,omitempty"`
	Actions     []PackageAction `json:"actions,omitempty"`
}

// normalizeManifestData accepts either a single JSON object or an array of
// objects and always returns a slice of Manifest; a manifest.mf may carry
// one manifest or several.
func normalizeManifestData(raw []byte) []Manifest {
	var arr []Manifest
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}

	var single Manifest
	if err := json.Unmarshal(raw, &single); err == nil {
		return []Manifest{single}
	}

	return nil
}
