package packet

// Packet is an ordered list of fields with a defined wire encoding. Field
// order is fixed at construction and is part of the wire contract. The
// packet exclusively owns its field values for codec purposes; callers keep
// references to the fields for typed access.
//
// A Packet is a plain value with no internal locking. Sharing one instance
// across goroutines requires external synchronization.
type Packet struct {
	fields []Field

	// scratchFields is the reusable transient target of two-phase decode,
	// built on first use so the steady-state decode path does not allocate.
	scratchFields []Field
}

// New returns a packet over the given fields, in wire order.
func New(fields ...Field) *Packet {
	return &Packet{fields: fields}
}

// Bounded reports whether every field has a static maximum size. Only a
// bounded packet has a defined MaxSize.
func (p *Packet) Bounded() bool {
	for _, f := range p.fields {
		if _, bounded := f.maxSize(); !bounded {
			return false
		}
	}
	return true
}

// MaxSize returns the static upper bound on the serialized payload length,
// the sum of every field's maximum size. Calling it on an unbounded packet
// is a structural error in the packet definition and panics; check Bounded
// when the field set is not known statically.
func (p *Packet) MaxSize() int {
	sum := 0
	for _, f := range p.fields {
		n, bounded := f.maxSize()
		if !bounded {
			panic("packet: MaxSize on a packet with an unbounded field")
		}
		sum += n
	}
	return sum
}

// SerializedLen returns the exact serialized length of the current field
// values. Unlike MaxSize it is always available.
func (p *Packet) SerializedLen() int {
	sum := 0
	for _, f := range p.fields {
		sum += f.size()
	}
	return sum
}

// Serialize writes every field in declaration order into dst and returns
// the number of bytes written. When dst is too small for the whole payload
// nothing is written and 0 is returned. The per-field writers additionally
// clamp to the buffer, so even a bypassed length check cannot overrun dst.
func (p *Packet) Serialize(dst []byte) int {
	if len(dst) < p.SerializedLen() {
		return 0
	}
	n := 0
	for _, f := range p.fields {
		n += f.encode(dst[n:])
	}
	return n
}

// AppendTo appends the serialized payload to dst, growing it to exact fit,
// and returns the extended slice. This is the allocation-permitted
// serialization path for callers without a preallocated buffer.
func (p *Packet) AppendTo(dst []byte) []byte {
	off := len(dst)
	dst = append(dst, make([]byte, p.SerializedLen())...)
	n := off
	for _, f := range p.fields {
		n += f.encode(dst[n:])
	}
	return dst
}

// Unserialize decodes every field in declaration order from src. It
// returns the total bytes consumed and whether every field reported a
// complete value.
//
// The decode is two-phase: fields are parsed into a scratch value set and
// committed to the packet only when the whole input was valid, so a failed
// decode leaves the packet exactly as it was. When ok is false the consumed
// count may exceed the true payload boundary and must not be used to locate
// a following packet.
func (p *Packet) Unserialize(src []byte) (int, bool) {
	if p.scratchFields == nil {
		p.scratchFields = make([]Field, len(p.fields))
		for i, f := range p.fields {
			p.scratchFields[i] = f.scratch()
		}
	}

	n := 0
	ok := true
	for _, f := range p.scratchFields {
		c, v := f.decode(src[n:])
		n += c
		ok = ok && v
	}
	if ok {
		for i, f := range p.fields {
			f.commit(p.scratchFields[i])
		}
	}
	return n, ok
}
