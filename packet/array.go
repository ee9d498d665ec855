package packet

import "fmt"

// Array is a fixed-length homogeneous sequence of fields. The element
// count is part of the type: the wire layout is the concatenation of the
// element encodings in index order with no length prefix or separators.
type Array[F Field] struct {
	mk    func() F
	elems []F
}

// NewArray returns an array of n elements, each produced by mk. The
// constructor is retained so scratch decode targets can be built with the
// same shape.
func NewArray[F Field](n int, mk func() F) *Array[F] {
	if n <= 0 {
		panic(fmt.Sprintf("packet: invalid array length %d", n))
	}
	a := &Array[F]{mk: mk, elems: make([]F, n)}
	for i := range a.elems {
		a.elems[i] = mk()
	}
	return a
}

// NewScalarArray returns an array of n zero-valued scalar fields.
func NewScalarArray[T ScalarValue](n int) *Array[*Scalar[T]] {
	return NewArray(n, func() *Scalar[T] { return &Scalar[T]{} })
}

// Len returns the element count.
func (a *Array[F]) Len() int {
	return len(a.elems)
}

// At returns the i'th element for direct access.
func (a *Array[F]) At(i int) F {
	return a.elems[i]
}

func (a *Array[F]) maxSize() (int, bool) {
	sum := 0
	for _, e := range a.elems {
		n, bounded := e.maxSize()
		if !bounded {
			return 0, false
		}
		sum += n
	}
	return sum, true
}

func (a *Array[F]) size() int {
	sum := 0
	for _, e := range a.elems {
		sum += e.size()
	}
	return sum
}

func (a *Array[F]) encode(dst []byte) int {
	n := 0
	for _, e := range a.elems {
		n += e.encode(dst[n:])
	}
	return n
}

func (a *Array[F]) decode(src []byte) (int, bool) {
	// The whole array either fits or it does not: a short input marks the
	// field invalid up front and reports the entire remainder consumed,
	// with no per-element partial attempt.
	if len(src) < a.size() {
		return len(src), false
	}
	n := 0
	ok := true
	for _, e := range a.elems {
		c, v := e.decode(src[n:])
		n += c
		ok = ok && v
	}
	return n, ok
}

func (a *Array[F]) scratch() Field {
	return NewArray(len(a.elems), a.mk)
}

func (a *Array[F]) commit(from Field) {
	src := from.(*Array[F])
	for i := range a.elems {
		a.elems[i].commit(src.elems[i])
	}
}
