package console

import (
	"io"
	"strings"
)

// LoggerOutput records every character written to it instead of displaying
// it, for use by tests that need to assert on emitted console output.
type LoggerOutput struct {
	buf strings.Builder
}

// PutCharacter appends c to the recorded output.
func (l *LoggerOutput) PutCharacter(c byte) {
	l.buf.WriteByte(c)
}

// SetWriter is a no-op; LoggerOutput never writes to a host stream.
func (l *LoggerOutput) SetWriter(w io.Writer) {}

// GetName returns this driver's registered name.
func (l *LoggerOutput) GetName() string { return "logger" }

// GetOutput returns everything recorded so far.
func (l *LoggerOutput) GetOutput() string {
	return l.buf.String()
}

// Reset clears recorded output.
func (l *LoggerOutput) Reset() {
	l.buf.Reset()
}

func init() {
	RegisterOutput("logger", func() OutputDriver {
		return new(LoggerOutput)
	})
}
