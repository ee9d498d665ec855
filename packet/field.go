// Package packet implements a declarative binary codec for small
// fixed-format messages of the kind exchanged with embedded sensors. A
// packet is an ordered list of typed fields; the package derives the wire
// encoding, a bounds-checked decoder, and an optional fixed-width identifier
// prefix for multiplexing several message types over one link.
//
// The wire layout is the concatenation of each field's encoding in
// declaration order, with no separators or length prefixes. Multi-byte
// scalars are little-endian. Decoding is transactional: field values are
// only replaced when the whole input parsed as valid.
package packet

// Field is the capability set every packet field implements. The method set
// is unexported, which keeps the implementer set closed: Scalar, String,
// DynString, Bits, and Array are the only field categories.
type Field interface {
	// maxSize returns the static upper bound on the serialized length.
	// bounded is false for fields with no compile-time bound (DynString),
	// in which case n is meaningless.
	maxSize() (n int, bounded bool)

	// size returns the serialized length of the current value.
	size() int

	// encode writes the field into dst, clamped to len(dst), and returns
	// the number of bytes written. It never writes past dst.
	encode(dst []byte) int

	// decode reads the field from src and returns the number of bytes
	// consumed and whether src held enough bytes for a complete value. It
	// never reads past src. When ok is false the consumed count is not a
	// trustworthy boundary for follow-on parsing.
	decode(src []byte) (n int, ok bool)

	// scratch returns a fresh zero field of the same shape, used as the
	// transient target of a two-phase decode.
	scratch() Field

	// commit copies the value out of a scratch field of the same shape.
	commit(from Field)
}
