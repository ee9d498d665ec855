package packet

import "fmt"

// Tagged wraps a Packet with a fixed-width identifier prefix. The
// identifier bytes are written before the payload on every serialization
// and let a receiver recognize the packet type before decoding the fields.
type Tagged struct {
	*Packet
	id []byte
}

// NewTagged returns a tagged packet with an idLen-byte identifier,
// initially all zero, over the given fields.
func NewTagged(idLen int, fields ...Field) *Tagged {
	if idLen <= 0 {
		panic(fmt.Sprintf("packet: invalid identifier length %d", idLen))
	}
	return &Tagged{
		Packet: New(fields...),
		id:     make([]byte, idLen),
	}
}

// IDLen returns the identifier width in bytes.
func (t *Tagged) IDLen() int {
	return len(t.id)
}

// ID returns a copy of the current identifier bytes.
func (t *Tagged) ID() []byte {
	out := make([]byte, len(t.id))
	copy(out, t.id)
	return out
}

// SetID replaces the identifier from src. Bytes beyond the identifier
// width are ignored; a shorter source leaves the remaining identifier
// bytes at their previous values.
func (t *Tagged) SetID(src []byte) {
	copy(t.id, src)
}

// MaxSize returns the static upper bound on the full serialized packet,
// identifier included. Like Packet.MaxSize it panics on an unbounded
// field set.
func (t *Tagged) MaxSize() int {
	return len(t.id) + t.Packet.MaxSize()
}

// CheckIDMatch compares the leading bytes of src against the stored
// identifier. On a full match it returns the payload window just past the
// identifier and true. Too-short input and a mismatch anywhere in the
// prefix both report no match.
func (t *Tagged) CheckIDMatch(src []byte) ([]byte, bool) {
	if len(src) < len(t.id) {
		return nil, false
	}
	for i := range t.id {
		if src[i] != t.id[i] {
			return nil, false
		}
	}
	return src[len(t.id):], true
}

// Unserialize decodes a whole frame through the tagged path: the
// identifier prefix must match before any field is decoded. On a match the
// payload window is decoded with the usual two-phase commit and the
// returned count includes the identifier bytes. Too-short input and an
// identifier mismatch both report (0, false) and leave the packet
// untouched.
//
// To decode a payload whose identifier was already stripped, use the
// embedded Packet.Unserialize directly.
func (t *Tagged) Unserialize(src []byte) (int, bool) {
	payload, ok := t.CheckIDMatch(src)
	if !ok {
		return 0, false
	}
	n, ok := t.Packet.Unserialize(payload)
	return len(t.id) + n, ok
}

// Serialize writes the identifier bytes followed by the payload into dst
// and returns the total bytes written, identifier included. When dst is too
// small for identifier plus payload nothing is written and 0 is returned.
func (t *Tagged) Serialize(dst []byte) int {
	if len(dst) < len(t.id)+t.SerializedLen() {
		return 0
	}
	n := copy(dst, t.id)
	return n + t.Packet.Serialize(dst[n:])
}

// AppendTo appends identifier plus payload to dst and returns the extended
// slice.
func (t *Tagged) AppendTo(dst []byte) []byte {
	dst = append(dst, t.id...)
	return t.Packet.AppendTo(dst)
}
