package drivefs

// OverlayDrive is a copy-on-write wrapper around a base drive. Writes land
// in the overlay map; deletes record a tombstone. The base is never
// mutated.
type OverlayDrive struct {
	base    DriveFS
	overlay map[string][]byte
	deleted map[string]struct{}
}

// NewOverlayDrive wraps base in a copy-on-write layer.
func NewOverlayDrive(base DriveFS) *OverlayDrive {
	return &OverlayDrive{
		base:    base,
		overlay: make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Base returns the wrapped drive.
func (o *OverlayDrive) Base() DriveFS {
	return o.base
}

// Read implements DriveFS: tombstoned -> absent; else overlay; else base.
func (o *OverlayDrive) Read(name string) ([]byte, bool) {
	key := Normalize8_3(name)

	if _, dead := o.deleted[key]; dead {
		return nil, false
	}

	if data, ok := o.overlay[key]; ok {
		return data, true
	}

	return o.base.Read(name)
}

// Write implements DriveFS: stores into the overlay, clears any tombstone.
func (o *OverlayDrive) Write(name string, data []byte) error {
	key := Normalize8_3(name)
	buf := make([]byte, len(data))
	copy(buf, data)
	o.overlay[key] = buf
	delete(o.deleted, key)
	return nil
}

// Delete implements DriveFS: drops any overlay entry, tombstones the name,
// and reports whether the name was visible beforehand.
func (o *OverlayDrive) Delete(name string) bool {
	key := Normalize8_3(name)
	existed := o.Exists(name)

	delete(o.overlay, key)
	o.deleted[key] = struct{}{}

	return existed
}

// List implements DriveFS: base names union overlay names, minus tombstones.
func (o *OverlayDrive) List() []string {
	seen := make(map[string]struct{})

	for _, name := range o.base.List() {
		seen[name] = struct{}{}
	}
	for name := range o.overlay {
		seen[name] = struct{}{}
	}
	for name := range o.deleted {
		delete(seen, name)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

// Exists implements DriveFS.
func (o *OverlayDrive) Exists(name string) bool {
	key := Normalize8_3(name)

	if _, dead := o.deleted[key]; dead {
		return false
	}

	if _, ok := o.overlay[key]; ok {
		return true
	}

	return o.base.Exists(name)
}

var _ DriveFS = (*OverlayDrive)(nil)
