package console

import (
	"io"
	"os"
)

// ANSIOutput is the default interactive output driver: it writes straight
// through to a host stream (stdout by default), leaving terminal escape
// sequences the guest emits untouched.
type ANSIOutput struct {
	writer io.Writer
}

// PutCharacter writes c to the underlying stream.
func (a *ANSIOutput) PutCharacter(c byte) {
	a.writer.Write([]byte{c})
}

// SetWriter overrides the destination stream, used by tests.
func (a *ANSIOutput) SetWriter(w io.Writer) {
	a.writer = w
}

// GetName returns this driver's registered name.
func (a *ANSIOutput) GetName() string { return "ansi" }

func init() {
	RegisterOutput("ansi", func() OutputDriver {
		return &ANSIOutput{writer: os.Stdout}
	})
}
