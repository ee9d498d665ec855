package packet

import "github.com/banshee-data/translink/bitfield"

// Bits adapts a bitfield.Bitfield to the packet field set. On the wire the
// field is the raw backing bytes of the bitfield, exactly ByteLen bytes.
type Bits struct {
	bf *bitfield.Bitfield
}

// NewBits returns a field backed by a fresh bitfield of the given bit
// length.
func NewBits(bits int) *Bits {
	return &Bits{bf: bitfield.New(bits)}
}

// WrapBits returns a field backed by an existing bitfield. The field and
// the caller share the bitfield; the packet owns it for codec purposes.
func WrapBits(bf *bitfield.Bitfield) *Bits {
	return &Bits{bf: bf}
}

// Bitfield returns the underlying bitfield for sub-range access.
func (b *Bits) Bitfield() *bitfield.Bitfield {
	return b.bf
}

func (b *Bits) maxSize() (int, bool) {
	return b.bf.ByteLen(), true
}

func (b *Bits) size() int {
	return b.bf.ByteLen()
}

func (b *Bits) encode(dst []byte) int {
	return b.bf.Serialize(dst)
}

func (b *Bits) decode(src []byte) (int, bool) {
	return b.bf.Parse(src)
}

func (b *Bits) scratch() Field {
	return NewBits(b.bf.BitLen())
}

func (b *Bits) commit(from Field) {
	copy(b.bf.Bytes(), from.(*Bits).bf.Bytes())
}
