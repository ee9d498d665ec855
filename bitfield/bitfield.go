// Package bitfield provides a fixed-bit-width storage unit for building
// compact wire formats. A Bitfield packs boolean flags and small integers
// into a byte array and exposes masked access to sub-ranges, so a message
// can carry many status bits in a handful of bytes.
//
// The backing unit is one byte: every sub-range must lie within a single
// backing byte. Declaring a range that straddles a byte boundary is a
// structural error in the message definition, not a runtime data error, and
// therefore panics.
package bitfield

import (
	"bytes"
	"fmt"
)

// Bitfield is a fixed-width sequence of bits backed by ceil(bits/8) bytes.
// The zero bytes of a freshly constructed Bitfield mean all flags clear.
type Bitfield struct {
	bits    int
	storage []byte
}

// New returns a Bitfield spanning the given number of bits. The backing
// storage is allocated once here; no later operation allocates.
func New(bits int) *Bitfield {
	if bits <= 0 {
		panic(fmt.Sprintf("bitfield: invalid bit length %d", bits))
	}
	return &Bitfield{
		bits:    bits,
		storage: make([]byte, (bits+7)/8),
	}
}

// BitLen returns the declared length of the bitfield in bits.
func (b *Bitfield) BitLen() int {
	return b.bits
}

// ByteLen returns the serialized length of the bitfield in bytes.
func (b *Bitfield) ByteLen() int {
	return len(b.storage)
}

// mask computes the bit mask covering width bits starting at offset, and the
// shift of the range from the start of its backing byte.
func mask(offset, width int) (m byte, shift int) {
	shift = offset % 8
	for i := shift; i < shift+width; i++ {
		m |= 1 << i
	}
	return m, shift
}

// checkRange validates a sub-range declaration. Violations are programmer
// errors in the message definition and panic.
func (b *Bitfield) checkRange(offset, width int) {
	if offset < 0 || width < 1 || offset+width > b.bits {
		panic(fmt.Sprintf("bitfield: sub-range [%d,%d) outside declared %d bits", offset, offset+width, b.bits))
	}
	if offset%8+width > 8 {
		panic(fmt.Sprintf("bitfield: sub-range at offset %d width %d crosses a byte boundary", offset, width))
	}
}

// Bits returns the value stored in the width bits starting at offset,
// zero-extended into a uint8.
func (b *Bitfield) Bits(offset, width int) uint8 {
	b.checkRange(offset, width)
	m, shift := mask(offset, width)
	return (b.storage[offset/8] & m) >> shift
}

// SetBits stores the low width bits of v at offset. Bits outside the masked
// range are left untouched; bits of v beyond the range width are dropped.
func (b *Bitfield) SetBits(offset, width int, v uint8) {
	b.checkRange(offset, width)
	m, shift := mask(offset, width)
	idx := offset / 8
	b.storage[idx] &^= m
	b.storage[idx] |= (v & (m >> shift)) << shift
}

// Flag returns the single bit at offset as a bool.
func (b *Bitfield) Flag(offset int) bool {
	return b.Bits(offset, 1) != 0
}

// SetFlag sets or clears the single bit at offset.
func (b *Bitfield) SetFlag(offset int, v bool) {
	if v {
		b.SetBits(offset, 1, 1)
	} else {
		b.SetBits(offset, 1, 0)
	}
}

// Serialize copies the backing bytes into dst, clamped to len(dst), and
// returns the number of bytes written. A short destination truncates the
// copy; no error is signalled at this layer.
func (b *Bitfield) Serialize(dst []byte) int {
	return copy(dst, b.storage)
}

// Parse fills the backing storage from src and returns the number of bytes
// consumed and whether the input was long enough to cover the whole
// bitfield. A short input still consumes what was available; the backing
// bytes past the consumed count keep their previous values.
func (b *Bitfield) Parse(src []byte) (int, bool) {
	n := copy(b.storage, src)
	return n, n == len(b.storage)
}

// Bytes returns the backing storage. The slice is a live view, not a copy;
// mutating it mutates the bitfield.
func (b *Bitfield) Bytes() []byte {
	return b.storage
}

// Equal reports whether two bitfields of the same bit length hold identical
// backing bytes. Bitfields of different lengths are never equal.
func (b *Bitfield) Equal(other *Bitfield) bool {
	if other == nil || b.bits != other.bits {
		return false
	}
	return bytes.Equal(b.storage, other.storage)
}
