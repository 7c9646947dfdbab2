// Package drivefs provides the uniform filesystem abstraction each of the
// sixteen CP/M drive slots is mounted behind: read/write/list/delete/exists
// over 8.3-normalized names. Memory, Package and Overlay drives all
// implement the same DriveFS interface so the BDOS dispatcher never has to
// know which kind of drive it's talking to.
package drivefs

// DriveFS is the capability set every drive variant implements.
type DriveFS interface {
	// Read returns a file's bytes, or ok=false if it does not exist.
	Read(name string) (data []byte, ok bool)

	// Write stores a file's bytes, returning an error if the drive
	// refuses writes (e.g. a read-only package drive).
	Write(name string, data []byte) error

	// Delete removes a file, reporting whether it existed beforehand.
	Delete(name string) (existed bool)

	// List returns every filename currently visible on the drive.
	List() []string

	// Exists reports whether a file is visible on the drive.
	Exists(name string) bool
}

// allowedChars is the CP/M 8.3 character set, beyond plain alphanumerics.
const allowedChars = "$#@!%'`(){}~^-_"

// Normalize8_3 upper-cases a filename, strips characters outside the CP/M
// charset, and truncates the name to 8 and the extension to 3 characters.
// An empty name becomes "_". Idempotent: Normalize8_3(Normalize8_3(s)) ==
// Normalize8_3(s).
func Normalize8_3(filename string) string {
	upper := []rune(toUpperASCII(filename))

	name := upper
	ext := []rune{}
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] == '.' {
			name = upper[:i]
			ext = upper[i+1:]
			break
		}
	}

	cleanName := clean(name, 8)
	cleanExt := clean(ext, 3)

	if len(cleanName) == 0 {
		cleanName = "_"
	}

	if len(cleanExt) == 0 {
		return cleanName
	}
	return cleanName + "." + cleanExt
}

func clean(runes []rune, limit int) string {
	var b []rune
	for _, r := range runes {
		if len(b) >= limit {
			break
		}
		if isAllowed(r) {
			b = append(b, r)
		}
	}
	return string(b)
}

func isAllowed(r rune) bool {
	if r >= '0' && r <= '9' {
		return true
	}
	if r >= 'A' && r <= 'Z' {
		return true
	}
	for _, c := range allowedChars {
		if c == r {
			return true
		}
	}
	return false
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
