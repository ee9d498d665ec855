package linkmux

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"
)

// testPort implements Porter with scripted frames for testing Mux
// operations. Each queued frame is returned by one Read call, mimicking a
// device that pauses between packets.
type testPort struct {
	mu      sync.Mutex
	frames  [][]byte
	written bytes.Buffer
	writeN  int // if >0, Write reports this count instead of the real one
	closed  bool
}

func newTestPort(frames ...[]byte) *testPort {
	return &testPort{frames: frames}
}

func (p *testPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.EOF
	}
	if len(p.frames) == 0 {
		p.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		p.mu.Lock()
		if p.closed {
			return 0, io.EOF
		}
		return 0, nil
	}
	frame := p.frames[0]
	p.frames = p.frames[1:]
	return copy(buf, frame), nil
}

func (p *testPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.written.Write(data)
	if p.writeN > 0 {
		return p.writeN, err
	}
	return n, err
}

func (p *testPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestMonitorFansOutFrames(t *testing.T) {
	port := newTestPort([]byte{2, 3, 0xAA}, []byte{9, 9, 9, 9})
	mux := New(port, 64)

	_, ch1 := mux.Subscribe()
	_, ch2 := mux.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go mux.Monitor(ctx)

	for i, ch := range []chan []byte{ch1, ch2} {
		select {
		case frame := <-ch:
			if !bytes.Equal(frame, []byte{2, 3, 0xAA}) {
				t.Errorf("subscriber %d got frame %v, want [2 3 170]", i, frame)
			}
		case <-ctx.Done():
			t.Fatalf("subscriber %d never received a frame", i)
		}
	}

	// The second queued frame follows on the same channels.
	select {
	case frame := <-ch1:
		if !bytes.Equal(frame, []byte{9, 9, 9, 9}) {
			t.Errorf("second frame = %v, want [9 9 9 9]", frame)
		}
	case <-ctx.Done():
		t.Fatal("second frame never arrived")
	}
}

// timeoutPort extends testPort with read timeout support, as real serial
// ports have.
type timeoutPort struct {
	*testPort
	timeout time.Duration
}

func (p *timeoutPort) SetReadTimeout(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = d
	return nil
}

func TestMonitorSetsReadTimeoutWhenSupported(t *testing.T) {
	port := &timeoutPort{testPort: newTestPort([]byte{1, 1, 0xFF})}
	mux := New[Porter](port, 64)
	_, ch := mux.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go mux.Monitor(ctx)

	select {
	case <-ch:
	case <-ctx.Done():
		t.Fatal("frame never arrived")
	}

	port.mu.Lock()
	defer port.mu.Unlock()
	if port.timeout != readTimeout {
		t.Errorf("read timeout = %v, want %v", port.timeout, readTimeout)
	}
}

func TestMonitorStopsOnContextCancel(t *testing.T) {
	port := newTestPort()
	mux := New(port, 64)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Monitor returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not stop after cancellation")
	}
}

func TestSendReportsShortWrite(t *testing.T) {
	port := newTestPort()
	port.writeN = 1
	mux := New(port, 64)

	if err := mux.Send([]byte{1, 2, 3}); err != ErrWriteFailed {
		t.Errorf("Send with short write returned %v, want ErrWriteFailed", err)
	}
}

func TestSendWritesWholeFrame(t *testing.T) {
	port := newTestPort()
	mux := New(port, 64)

	frame := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := mux.Send(frame); err != nil {
		t.Fatalf("Send returned %v", err)
	}
	if !bytes.Equal(port.written.Bytes(), frame) {
		t.Errorf("port received %v, want %v", port.written.Bytes(), frame)
	}
}

func TestCloseShutsDownSubscribers(t *testing.T) {
	port := newTestPort()
	mux := New(port, 64)
	_, ch := mux.Subscribe()

	if err := mux.Close(); err != nil {
		t.Fatalf("Close returned %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("subscriber channel still open after Close")
	}
	if !port.closed {
		t.Error("underlying port not closed")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	mux := New(newTestPort(), 64)
	id, ch := mux.Subscribe()
	mux.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}
	// Unsubscribing twice is a no-op.
	mux.Unsubscribe(id)
}

func TestPortOptionsNormalize(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize of zero options returned %v", err)
	}
	if opts.BaudRate != 115200 || opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("defaults = %+v", opts)
	}
	if opts.MaxFrame != DefaultMaxFrame {
		t.Errorf("MaxFrame default = %d, want %d", opts.MaxFrame, DefaultMaxFrame)
	}

	if _, err := (PortOptions{DataBits: 3}).Normalize(); err == nil {
		t.Error("Normalize accepted 3 data bits")
	}
	if _, err := (PortOptions{StopBits: 5}).Normalize(); err == nil {
		t.Error("Normalize accepted 5 stop bits")
	}
	if _, err := (PortOptions{Parity: "Q"}).Normalize(); err == nil {
		t.Error("Normalize accepted parity Q")
	}

	opts, err = PortOptions{Parity: "even"}.Normalize()
	if err != nil || opts.Parity != "E" {
		t.Errorf("Normalize(parity=even) = (%+v, %v)", opts, err)
	}
}
