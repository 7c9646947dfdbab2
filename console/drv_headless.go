// drv_headless.go provides a buffer-fed input driver with no terminal
// dependency at all, for tests and scripted automation.

package console

import "errors"

// HeadlessInput serves bytes from a pre-loaded queue; once drained,
// PendingInput reports false (rather than blocking) until Feed adds more.
type HeadlessInput struct {
	queue []byte
}

// NewHeadlessInput builds a headless input driver pre-loaded with bytes.
func NewHeadlessInput(bytes ...byte) *HeadlessInput {
	return &HeadlessInput{queue: bytes}
}

// Feed appends more bytes to the queue.
func (h *HeadlessInput) Feed(bytes ...byte) {
	h.queue = append(h.queue, bytes...)
}

// Setup is a no-op.
func (h *HeadlessInput) Setup() error { return nil }

// TearDown is a no-op.
func (h *HeadlessInput) TearDown() error { return nil }

// PendingInput reports whether the queue has a byte left.
func (h *HeadlessInput) PendingInput() bool {
	return len(h.queue) > 0
}

// ReadByte pops the next queued byte, or errors if the queue is empty.
func (h *HeadlessInput) ReadByte() (byte, error) {
	if len(h.queue) == 0 {
		return 0, errors.New("headless input: queue empty")
	}
	b := h.queue[0]
	h.queue = h.queue[1:]
	return b, nil
}

// GetName returns this driver's registered name.
func (h *HeadlessInput) GetName() string {
	return "headless"
}

func init() {
	RegisterInput("headless", func() InputDriver {
		return NewHeadlessInput()
	})
}
