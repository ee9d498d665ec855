package linkmux

import (
	"io"
	"time"
)

// MockPort implements Porter for development without real serial hardware.
// Reads come from a pipe fed by a frame generator; writes are discarded.
type MockPort struct {
	r *io.PipeReader
}

func (m *MockPort) Read(p []byte) (int, error) {
	return m.r.Read(p)
}

func (m *MockPort) Write(p []byte) (int, error) {
	return len(p), nil
}

func (m *MockPort) Close() error {
	return m.r.Close()
}

// NewMockMux creates a Mux backed by a mock port that emits the given frame
// periodically, simulating a device that pauses between packets.
func NewMockMux(frame []byte, interval time.Duration) *Mux[*MockPort] {
	r, w := io.Pipe()

	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := w.Write(frame); err != nil {
				return
			}
		}
	}()

	return New(&MockPort{r: r}, DefaultMaxFrame)
}
