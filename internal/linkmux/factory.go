package linkmux

import (
	"go.bug.st/serial"
)

// NewRealMux creates a Mux backed by a real serial port at the given path
// using the provided serial options.
func NewRealMux(path string, opts PortOptions) (*Mux[serial.Port], error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return New[serial.Port](port, opts.MaxFrame), nil
}
