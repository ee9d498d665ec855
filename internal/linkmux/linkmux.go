// Package linkmux provides an abstraction over a serial link carrying
// framed binary packets, with the ability for multiple clients to subscribe
// to received frames and send packets out through a single port.
//
// Frames are delimited by read boundaries: embedded devices pause between
// packets, so each successful port read is treated as one frame. There is
// no in-band length or delimiter; the packet layer's identifier prefix and
// validity checking sort real packets from noise.
package linkmux

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrWriteFailed reports a short write to the serial port.
var ErrWriteFailed = fmt.Errorf("failed to write to serial port")

// DefaultMaxFrame is the read buffer size used when options leave the frame
// bound unset. Large enough for any realistic embedded packet.
const DefaultMaxFrame = 512

// readTimeout bounds individual port reads on ports that support timeouts.
const readTimeout = 500 * time.Millisecond

// Mux is a generic serial link multiplexer that allows multiple clients to
// subscribe to frames received from a single port.
type Mux[T Porter] struct {
	port         T
	maxFrame     int
	subscribers  map[string]chan []byte
	subscriberMu sync.Mutex
	sendMu       sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// Muxer defines the interface for the Mux type.
type Muxer interface {
	// Subscribe creates a new channel for receiving frames from the link.
	// The returned ID identifies the channel when unsubscribing.
	Subscribe() (string, chan []byte)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// Send writes the provided frame to the port.
	Send([]byte) error
	// Monitor reads frames from the port and fans them out to subscribers.
	Monitor(context.Context) error
	// Close closes all subscribed channels and the underlying port.
	Close() error
}

// New creates a Mux backed by the given port. maxFrame bounds the size of a
// single received frame; values below one fall back to DefaultMaxFrame.
func New[T Porter](port T, maxFrame int) *Mux[T] {
	if maxFrame < 1 {
		maxFrame = DefaultMaxFrame
	}
	return &Mux[T]{
		port:        port,
		maxFrame:    maxFrame,
		subscribers: make(map[string]chan []byte),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (m *Mux[T]) Subscribe() (string, chan []byte) {
	id := randomID()
	// Small buffer so a subscriber that lags briefly does not drop frames;
	// a persistently slow subscriber still gets skipped in Monitor.
	ch := make(chan []byte, 16)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the mux.
func (m *Mux[T]) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// Send writes a frame to the port. Concurrent senders are serialized so a
// frame is never interleaved with another.
func (m *Mux[T]) Send(frame []byte) error {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	n, err := m.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads frames from the port and sends them to subscribers until
// the context is cancelled or the port fails.
func (m *Mux[T]) Monitor(ctx context.Context) error {
	// Bound blocking reads when the port supports timeouts so the reader
	// goroutine cannot outlive cancellation indefinitely. Timed-out reads
	// surface as zero-length reads and loop.
	if tp, ok := any(m.port).(TimeoutPorter); ok {
		if err := tp.SetReadTimeout(readTimeout); err != nil {
			log.Printf("linkmux: set read timeout: %v", err)
		}
	}

	frameChan := make(chan []byte)
	readErrChan := make(chan error, 1)

	// Read in a separate goroutine so the blocking port.Read cannot keep
	// the outer loop from observing context cancellation.
	go func() {
		defer close(frameChan)
		buf := make([]byte, m.maxFrame)
		for {
			n, err := m.port.Read(buf)
			if err != nil {
				select {
				case readErrChan <- err:
				case <-ctx.Done():
				}
				return
			}
			if n == 0 {
				continue
			}
			// Copy out of the reusable read buffer. Subscribers share
			// the copy and must treat frames as read-only.
			frame := make([]byte, n)
			copy(frame, buf[:n])
			select {
			case frameChan <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErrChan:
			return err

		case frame, ok := <-frameChan:
			if !ok {
				return nil
			}

			m.closingMu.Lock()
			if m.closing {
				m.closingMu.Unlock()
				return nil
			}
			m.closingMu.Unlock()

			m.subscriberMu.Lock()
			for _, ch := range m.subscribers {
				select {
				case ch <- frame:
				default:
					// skip a full/blocked subscriber rather than stall
					// the whole link
				}
			}
			m.subscriberMu.Unlock()
		}
	}
}

func (m *Mux[T]) Close() error {
	m.closingMu.Lock()
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	return m.port.Close()
}
