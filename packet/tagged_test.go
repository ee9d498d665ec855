package packet

import (
	"bytes"
	"testing"
)

func newTaggedTelemetry() *Tagged {
	t := NewTagged(2,
		NewScalar[int32](0),
		NewString(10),
		NewBits(1),
		NewBits(70),
		NewScalarArray[uint8](10),
	)
	t.SetID([]byte{2, 3})
	return t
}

func TestTaggedDefaultsToZeroID(t *testing.T) {
	p := NewTagged(3, NewScalar[uint8](0))
	if got := p.ID(); !bytes.Equal(got, []byte{0, 0, 0}) {
		t.Errorf("fresh identifier = %v, want all zero", got)
	}
	if got := p.IDLen(); got != 3 {
		t.Errorf("IDLen() = %d, want 3", got)
	}
}

func TestTaggedSetIDTruncatesAndKeepsRemainder(t *testing.T) {
	p := NewTagged(3, NewScalar[uint8](0))

	// Extra source bytes beyond the identifier width are ignored.
	p.SetID([]byte{9, 8, 7, 6, 5})
	if got := p.ID(); !bytes.Equal(got, []byte{9, 8, 7}) {
		t.Errorf("identifier = %v, want [9 8 7]", got)
	}

	// A shorter source leaves the untouched tail at its previous value.
	p.SetID([]byte{1})
	if got := p.ID(); !bytes.Equal(got, []byte{1, 8, 7}) {
		t.Errorf("identifier = %v, want [1 8 7]", got)
	}
}

func TestTaggedSerializePrependsID(t *testing.T) {
	p := NewTagged(2, NewScalar[uint16](0x1234))
	p.SetID([]byte{0xAA, 0xBB})

	buf := make([]byte, 8)
	n := p.Serialize(buf)
	if n != 4 {
		t.Fatalf("Serialize wrote %d bytes, want identifier + payload = 4", n)
	}
	want := []byte{0xAA, 0xBB, 0x34, 0x12}
	if !bytes.Equal(buf[:n], want) {
		t.Errorf("wire bytes = %v, want %v", buf[:n], want)
	}
	if got := p.MaxSize(); got != 4 {
		t.Errorf("MaxSize() = %d, want 4", got)
	}
}

func TestTaggedSerializeShortBuffer(t *testing.T) {
	p := NewTagged(2, NewScalar[uint32](1))
	buf := make([]byte, 5) // needs 6
	if n := p.Serialize(buf); n != 0 {
		t.Errorf("Serialize into short buffer = %d, want 0", n)
	}
}

func TestTaggedCheckIDMatch(t *testing.T) {
	p := newTaggedTelemetry()

	// Mismatching leading bytes report no match regardless of the rest.
	if _, ok := p.CheckIDMatch([]byte{10, 10, 1, 2, 3, 4, 5, 6}); ok {
		t.Error("CheckIDMatch matched a wrong identifier")
	}

	// Input shorter than the identifier reports no match.
	if _, ok := p.CheckIDMatch([]byte{2}); ok {
		t.Error("CheckIDMatch matched input shorter than the identifier")
	}

	// Divergence at the second byte is still a mismatch.
	if _, ok := p.CheckIDMatch([]byte{2, 4, 0}); ok {
		t.Error("CheckIDMatch matched on a partial prefix")
	}

	payload, ok := p.CheckIDMatch([]byte{2, 3, 0xDE, 0xAD})
	if !ok {
		t.Fatal("CheckIDMatch rejected the stored identifier")
	}
	if !bytes.Equal(payload, []byte{0xDE, 0xAD}) {
		t.Errorf("payload window = %v, want [222 173]", payload)
	}
}

func TestTaggedUnserializeRejectsWrongIdentifier(t *testing.T) {
	src := NewTagged(2, NewScalar[uint16](0x1234))
	src.SetID([]byte{2, 3})
	frame := src.AppendTo(nil)

	dst := NewTagged(2, NewScalar[uint16](0))
	dst.SetID([]byte{9, 9})
	dst.Packet.fields[0].(*Scalar[uint16]).Set(0xBEEF)

	// The identifier bytes must never be decoded as field data: a frame
	// carrying the wrong identifier is rejected outright.
	n, ok := dst.Unserialize(frame)
	if ok {
		t.Fatal("tagged decode accepted a frame with the wrong identifier")
	}
	if n != 0 {
		t.Errorf("rejected decode consumed %d bytes, want 0", n)
	}
	if got := dst.Packet.fields[0].(*Scalar[uint16]).Get(); got != 0xBEEF {
		t.Errorf("rejected decode modified the field: %#x, want 0xbeef", got)
	}
}

func TestTaggedUnserializeRequiresIdentifierEvenWhenShort(t *testing.T) {
	dst := NewTagged(2, NewScalar[uint8](7))
	dst.SetID([]byte{2, 3})

	n, ok := dst.Unserialize([]byte{2})
	if ok || n != 0 {
		t.Errorf("decode of input shorter than the identifier = (%d, %v), want (0, false)", n, ok)
	}
	if got := dst.Packet.fields[0].(*Scalar[uint8]).Get(); got != 7 {
		t.Errorf("short decode modified the field: %d, want 7", got)
	}
}

func TestTaggedEndToEnd(t *testing.T) {
	src := newTaggedTelemetry()
	srcTemp := src.Packet.fields[0].(*Scalar[int32])
	srcName := src.Packet.fields[1].(*String)
	srcTemp.Set(-10)
	srcName.Set("HELLO WORLD")
	src.Packet.fields[2].(*Bits).Bitfield().SetFlag(0, true)
	arr := src.Packet.fields[4].(*Array[*Scalar[uint8]])
	for i := 0; i < arr.Len(); i++ {
		arr.At(i).Set(5)
	}

	wire := src.AppendTo(nil)
	if len(wire) != src.IDLen()+src.SerializedLen() {
		t.Fatalf("wire length %d, want %d", len(wire), src.IDLen()+src.SerializedLen())
	}

	dst := newTaggedTelemetry()
	n, ok := dst.Unserialize(wire)
	if !ok {
		t.Fatal("tagged decode reported invalid")
	}
	if n != len(wire) {
		t.Fatalf("consumed %d bytes, want identifier + payload = %d", n, len(wire))
	}

	if got := dst.Packet.fields[0].(*Scalar[int32]).Get(); got != -10 {
		t.Errorf("scalar = %d, want -10", got)
	}
	if got := dst.Packet.fields[1].(*String).Get(); got != "HELLO WORL" {
		t.Errorf("string = %q, want %q", got, "HELLO WORL")
	}
	if !dst.Packet.fields[2].(*Bits).Bitfield().Flag(0) {
		t.Error("status flag lost")
	}
}
