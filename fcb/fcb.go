// Package fcb contains helpers for reading, writing, and working with the
// CP/M File Control Block structure.
//
// An FCB is 36 bytes, normally found inside the guest's memory at an
// address the running program chooses (traditionally 0x005C or 0x006C,
// or some caller-supplied location). This package works with an owned copy
// of those bytes; callers read the span out of guest memory with FromBytes
// and write it back with AsBytes once they're done mutating it.
package fcb

import "strings"

// Size is the number of bytes an FCB occupies in guest memory.
const Size = 36

// fdSignature is XORed against the low word of a stored handle to
// distinguish a live handle from garbage/zeroed bytes.
const fdSignature = 0xBEEF

// FCB is an in-memory representation of a CP/M File Control Block.
type FCB struct {
	// Drive holds the drive letter for this entry: 0=default, 1=A, ... 16=P.
	Drive uint8

	// Name holds the name of the file, space-padded to eight characters.
	Name [8]uint8

	// Type holds the suffix, space-padded to three characters.
	Type [3]uint8

	Ex uint8
	S1 uint8
	S2 uint8
	RC uint8

	// Al holds the 16 "disk allocation map" bytes. The engine repurposes
	// the first four as an opaque file-handle with a signature check;
	// the rest (Al[4:]) are never read or written.
	Al [16]uint8

	Cr uint8
	R0 uint8
	R1 uint8
	R2 uint8
}

// GetName returns the name component of an FCB entry, trimmed and with
// the high bit masked off each character.
func (f *FCB) GetName() string {
	var b strings.Builder
	for _, c := range f.Name {
		c &= 0x7F
		if c == 0x00 {
			continue
		}
		b.WriteByte(c)
	}
	return strings.TrimRight(b.String(), " ")
}

// GetType returns the type/extension component of an FCB entry, trimmed
// and with the high bit masked off each character.
func (f *FCB) GetType() string {
	var b strings.Builder
	for _, c := range f.Type {
		c &= 0x7F
		if c == 0x00 {
			continue
		}
		b.WriteByte(c)
	}
	return strings.TrimRight(b.String(), " ")
}

// GetFileName returns "NAME.EXT", or just "NAME" when there's no extension.
func (f *FCB) GetFileName() string {
	name := f.GetName()
	typ := f.GetType()
	if typ == "" {
		return name
	}
	return name + "." + typ
}

// SetName sets the filename, upper-casing and space-padding/truncating to
// eight characters.
func (f *FCB) SetName(name string) {
	name = strings.ToUpper(name)
	for i := range f.Name {
		if i < len(name) {
			f.Name[i] = name[i]
		} else {
			f.Name[i] = ' '
		}
	}
}

// SetType sets the extension, upper-casing and space-padding/truncating to
// three characters.
func (f *FCB) SetType(typ string) {
	typ = strings.ToUpper(typ)
	for i := range f.Type {
		if i < len(typ) {
			f.Type[i] = typ[i]
		} else {
			f.Type[i] = ' '
		}
	}
}

// CurrentRecord computes the sequential record number from CR/EX/S2.
func (f *FCB) CurrentRecord() uint32 {
	return uint32(f.Cr) | (uint32(f.Ex) << 7) | (uint32(f.S2) << 12)
}

// SetCurrentRecord recomposes CR/EX/S2 from a sequential record number.
func (f *FCB) SetCurrentRecord(n uint32) {
	f.Cr = uint8(n & 0x7F)
	f.Ex = uint8((n >> 7) & 0x1F)
	f.S2 = uint8(n >> 12)
}

// RandomRecord returns the 24-bit little-endian random record number.
func (f *FCB) RandomRecord() uint32 {
	return uint32(f.R0) | (uint32(f.R1) << 8) | (uint32(f.R2) << 16)
}

// SetRandomRecord stores a 24-bit little-endian random record number.
func (f *FCB) SetRandomRecord(n uint32) {
	f.R0 = uint8(n & 0xFF)
	f.R1 = uint8((n >> 8) & 0xFF)
	f.R2 = uint8((n >> 16) & 0xFF)
}

// Handle returns the open-file handle stored in Al[0:4], or (0, false) if
// no valid handle is present. A handle is valid iff the low word is
// non-zero and the high word equals low XOR 0xBEEF.
func (f *FCB) Handle() (uint32, bool) {
	n1 := uint16(f.Al[0]) | uint16(f.Al[1])<<8
	n2 := uint16(f.Al[2]) | uint16(f.Al[3])<<8

	if n1 != 0 && (n1^fdSignature) == n2 {
		return uint32(n1), true
	}
	return 0, false
}

// SetHandle stores a file handle with its signature.
func (f *FCB) SetHandle(h uint32) {
	n1 := uint16(h)
	n2 := n1 ^ fdSignature

	f.Al[0] = uint8(n1)
	f.Al[1] = uint8(n1 >> 8)
	f.Al[2] = uint8(n2)
	f.Al[3] = uint8(n2 >> 8)
}

// ClearHandle removes any stored handle.
func (f *FCB) ClearHandle() {
	f.Al[0], f.Al[1], f.Al[2], f.Al[3] = 0, 0, 0, 0
}

// Init resets the fields BDOS Open/Make reset: extent, S1/S2, record count,
// current record and handle. Name/extension/drive are untouched.
func (f *FCB) Init() {
	f.Ex, f.S1, f.S2, f.RC, f.Cr = 0, 0, 0, 0, 0
	f.ClearHandle()
}

// Blank resets the FCB to its "empty" state: drive 0, name/extension
// space-padded, everything else zeroed.
func (f *FCB) Blank() {
	f.Drive = 0
	for i := range f.Name {
		f.Name[i] = ' '
	}
	for i := range f.Type {
		f.Type[i] = ' '
	}
	f.Ex, f.S1, f.S2, f.RC = 0, 0, 0, 0
	for i := range f.Al {
		f.Al[i] = 0
	}
	f.Cr, f.R0, f.R1, f.R2 = 0, 0, 0, 0
}

// Matches reports whether this FCB's name/extension match the given
// pattern bytes, where a '?' in the pattern matches any byte (both sides
// masked to 7 bits first).
func (f *FCB) Matches(patternName [8]uint8, patternExt [3]uint8) bool {
	for i := 0; i < 8; i++ {
		p := patternName[i] & 0x7F
		c := f.Name[i] & 0x7F
		if p != '?' && p != c {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		p := patternExt[i] & 0x7F
		c := f.Type[i] & 0x7F
		if p != '?' && p != c {
			return false
		}
	}
	return true
}

// AsBytes serializes the FCB into its 36-byte on-the-wire form, suitable
// for writing back into guest memory.
func (f *FCB) AsBytes() []uint8 {
	r := make([]uint8, 0, Size)
	r = append(r, f.Drive)
	r = append(r, f.Name[:]...)
	r = append(r, f.Type[:]...)
	r = append(r, f.Ex, f.S1, f.S2, f.RC)
	r = append(r, f.Al[:]...)
	r = append(r, f.Cr, f.R0, f.R1, f.R2)
	return r
}

// FromBytes decodes an FCB from a 36-byte guest-memory span.
func FromBytes(b []uint8) FCB {
	var f FCB

	f.Drive = b[0]
	copy(f.Name[:], b[1:9])
	copy(f.Type[:], b[9:12])
	f.Ex = b[12]
	f.S1 = b[13]
	f.S2 = b[14]
	f.RC = b[15]
	copy(f.Al[:], b[16:32])
	f.Cr = b[32]
	f.R0 = b[33]
	f.R1 = b[34]
	f.R2 = b[35]

	return f
}

// FromString builds an FCB from a filename string of the shape
// "D:NAME.EXT", "NAME.EXT" or "NAME", expanding a trailing '*' in either
// component into '?' wildcards. The drive letter follows the guest
// convention: 0=default, 1=A, 2=B, ...
func FromString(str string) FCB {
	var f FCB
	f.Blank()

	str = strings.ToUpper(str)

	if len(str) > 2 && str[1] == ':' {
		f.Drive = str[0] - 'A' + 1
		str = str[2:]
	}

	name := str
	ext := ""
	if idx := strings.LastIndex(str, "."); idx >= 0 {
		name = str[:idx]
		ext = str[idx+1:]
	}

	f.SetName(expandWildcard(name, 8))
	f.SetType(expandWildcard(ext, 3))

	return f
}

// expandWildcard turns a trailing '*' into enough '?' to fill the
// remaining width, matching CP/M's "STEVE*" -> "STEVE???" convention.
func expandWildcard(s string, width int) string {
	idx := strings.IndexByte(s, '*')
	if idx < 0 {
		return s
	}
	pad := width - idx
	if pad < 0 {
		pad = 0
	}
	return s[:idx] + strings.Repeat("?", pad)
}
