//go:build unix

package console

import (
	"os"

	"golang.org/x/sys/unix"
)

// canSelect uses select(2) with a short timeout to check whether stdin has
// a byte ready, without blocking.
func canSelect() bool {
	fds := &unix.FdSet{}
	fds.Set(int(os.Stdin.Fd()))

	tv := unix.Timeval{Usec: 200}

	nRead, err := unix.Select(1, fds, nil, nil, &tv)
	if err != nil {
		return false
	}

	return nRead > 0
}
