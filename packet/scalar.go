package packet

import (
	"encoding/binary"
	"math"
)

// ScalarValue is the set of fixed-size value types a Scalar field can carry.
type ScalarValue interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// Scalar is a fixed-size field holding one numeric or boolean value.
// Multi-byte values are encoded little-endian; bool encodes as one byte
// (0 or 1).
type Scalar[T ScalarValue] struct {
	v T
}

// NewScalar returns a Scalar field holding v.
func NewScalar[T ScalarValue](v T) *Scalar[T] {
	return &Scalar[T]{v: v}
}

// Get returns the current value.
func (s *Scalar[T]) Get() T {
	return s.v
}

// Set replaces the current value.
func (s *Scalar[T]) Set(v T) {
	s.v = v
}

// scalarWidth returns the wire size of T in bytes.
func scalarWidth[T ScalarValue]() int {
	var z T
	switch any(z).(type) {
	case bool, int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	default: // int64, uint64, float64
		return 8
	}
}

func (s *Scalar[T]) maxSize() (int, bool) {
	return scalarWidth[T](), true
}

func (s *Scalar[T]) size() int {
	return scalarWidth[T]()
}

func (s *Scalar[T]) encode(dst []byte) int {
	var tmp [8]byte
	n := s.put(tmp[:])
	return copy(dst, tmp[:n])
}

func (s *Scalar[T]) put(b []byte) int {
	switch v := any(s.v).(type) {
	case bool:
		if v {
			b[0] = 1
		} else {
			b[0] = 0
		}
		return 1
	case int8:
		b[0] = byte(v)
		return 1
	case uint8:
		b[0] = v
		return 1
	case int16:
		binary.LittleEndian.PutUint16(b, uint16(v))
		return 2
	case uint16:
		binary.LittleEndian.PutUint16(b, v)
		return 2
	case int32:
		binary.LittleEndian.PutUint32(b, uint32(v))
		return 4
	case uint32:
		binary.LittleEndian.PutUint32(b, v)
		return 4
	case float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(v))
		return 4
	case int64:
		binary.LittleEndian.PutUint64(b, uint64(v))
		return 8
	case uint64:
		binary.LittleEndian.PutUint64(b, v)
		return 8
	default:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v.(float64)))
		return 8
	}
}

func (s *Scalar[T]) decode(src []byte) (int, bool) {
	n := scalarWidth[T]()
	if len(src) < n {
		// Not enough input for this field: consume everything that was
		// available and leave the value untouched.
		return len(src), false
	}
	switch any(s.v).(type) {
	case bool:
		s.v = any(src[0] != 0).(T)
	case int8:
		s.v = any(int8(src[0])).(T)
	case uint8:
		s.v = any(src[0]).(T)
	case int16:
		s.v = any(int16(binary.LittleEndian.Uint16(src))).(T)
	case uint16:
		s.v = any(binary.LittleEndian.Uint16(src)).(T)
	case int32:
		s.v = any(int32(binary.LittleEndian.Uint32(src))).(T)
	case uint32:
		s.v = any(binary.LittleEndian.Uint32(src)).(T)
	case float32:
		s.v = any(math.Float32frombits(binary.LittleEndian.Uint32(src))).(T)
	case int64:
		s.v = any(int64(binary.LittleEndian.Uint64(src))).(T)
	case uint64:
		s.v = any(binary.LittleEndian.Uint64(src)).(T)
	default:
		s.v = any(math.Float64frombits(binary.LittleEndian.Uint64(src))).(T)
	}
	return n, true
}

func (s *Scalar[T]) scratch() Field {
	return &Scalar[T]{}
}

func (s *Scalar[T]) commit(from Field) {
	s.v = from.(*Scalar[T]).v
}
