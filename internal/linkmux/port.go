package linkmux

import (
	"io"
	"time"
)

// Porter defines the minimal interface needed for a serial link.
// This abstraction enables unit testing without real serial hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutPorter extends Porter with a read timeout. Monitor detects it and
// bounds blocking reads on ports that implement it, such as real serial
// ports.
type TimeoutPorter interface {
	Porter
	// SetReadTimeout sets the read timeout for the port.
	SetReadTimeout(timeout time.Duration) error
}
