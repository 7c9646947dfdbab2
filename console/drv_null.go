package console

import "io"

// NullOutput discards everything written to it.
type NullOutput struct{}

// PutCharacter discards c.
func (n *NullOutput) PutCharacter(c byte) {}

// SetWriter is a no-op; a null driver has nowhere to write to.
func (n *NullOutput) SetWriter(w io.Writer) {}

// GetName returns this driver's registered name.
func (n *NullOutput) GetName() string { return "null" }

func init() {
	RegisterOutput("null", func() OutputDriver {
		return new(NullOutput)
	})
}
