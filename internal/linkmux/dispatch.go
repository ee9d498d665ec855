package linkmux

import (
	"context"
	"log"

	"github.com/banshee-data/translink/packet"
)

// Handler is invoked after a frame decoded as a registered packet type. The
// packet prototype passed at registration holds the decoded field values
// when the handler runs.
type Handler func(raw []byte, consumed int)

type binding struct {
	name string
	pkt  *packet.Tagged
	fn   Handler
}

// Dispatcher routes received frames to registered tagged packet types. Each
// frame is checked against the registered identifier prefixes in
// registration order; the first match whose payload decodes as valid wins.
//
// A Dispatcher is not safe for concurrent use; register all packet types
// before starting Run.
type Dispatcher struct {
	bindings []binding
}

// Register binds a tagged packet prototype and its handler under a
// diagnostic name. The dispatcher decodes into the prototype, so a handler
// reads field values straight from the packet it registered.
func (d *Dispatcher) Register(name string, pkt *packet.Tagged, fn Handler) {
	d.bindings = append(d.bindings, binding{name: name, pkt: pkt, fn: fn})
}

// Dispatch matches a single frame against the registered packet types.
// It returns the matched name and true after a valid decode. Frames that
// match no identifier, or match one but fail validity, return false.
func (d *Dispatcher) Dispatch(frame []byte) (string, bool) {
	for _, b := range d.bindings {
		if _, ok := b.pkt.CheckIDMatch(frame); !ok {
			continue
		}
		// The identifier matched, so this frame belongs to b; the tagged
		// decode re-checks the prefix and reports consumed including it.
		n, valid := b.pkt.Unserialize(frame)
		if !valid {
			log.Printf("dispatcher: frame matched %q but payload was invalid (%d bytes)", b.name, len(frame)-b.pkt.IDLen())
			continue
		}
		if b.fn != nil {
			b.fn(frame, n)
		}
		return b.name, true
	}
	return "", false
}

// Run subscribes to the mux and dispatches every received frame until the
// context is cancelled or the subscription channel closes.
func (d *Dispatcher) Run(ctx context.Context, mux Muxer) {
	id, frames := mux.Subscribe()
	defer mux.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if _, ok := d.Dispatch(frame); !ok {
				log.Printf("dispatcher: dropping %d byte frame matching no packet type", len(frame))
			}
		}
	}
}
