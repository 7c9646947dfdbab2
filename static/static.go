// Package static holds auxiliary files bundled directly into the
// emulator binary: banners, default configuration, anything a zero-config
// run wants without the host supplying a package archive.
package static

import "embed"

//go:embed bundled
var Content embed.FS
