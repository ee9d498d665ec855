package packet

import (
	"fmt"
	"strings"
)

// String is a bounded string field with a fixed capacity. The stored content
// never contains a NUL byte and never exceeds the capacity; Set truncates at
// the first NUL and at the capacity. On the wire the field is the content
// bytes followed by exactly one 0x00 terminator, so its serialized length
// tracks the current content, not the capacity.
type String struct {
	cap int
	s   string
}

// NewString returns an empty bounded string field with the given capacity.
func NewString(capacity int) *String {
	if capacity < 0 {
		panic(fmt.Sprintf("packet: invalid string capacity %d", capacity))
	}
	return &String{cap: capacity}
}

// NewStringValue returns a bounded string field holding s, truncated to the
// capacity.
func NewStringValue(capacity int, s string) *String {
	f := NewString(capacity)
	f.Set(s)
	return f
}

// Get returns the current content.
func (f *String) Get() string {
	return f.s
}

// Set replaces the content, truncating at the first NUL byte and at the
// field capacity.
func (f *String) Set(s string) {
	f.s = clampString(s, f.cap)
}

// Cap returns the declared capacity.
func (f *String) Cap() int {
	return f.cap
}

func clampString(s string, max int) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	if max >= 0 && len(s) > max {
		s = s[:max]
	}
	return s
}

func (f *String) maxSize() (int, bool) {
	return f.cap + 1, true
}

func (f *String) size() int {
	return len(f.s) + 1
}

func (f *String) encode(dst []byte) int {
	return encodeString(f.s, dst)
}

// encodeString writes the content bytes then one terminator, clamped to
// dst. When dst ends exactly at the content the terminator is dropped; the
// read side treats end-of-input as termination.
func encodeString(s string, dst []byte) int {
	n := copy(dst, s)
	if n < len(dst) {
		dst[n] = 0
		n++
	}
	return n
}

func (f *String) decode(src []byte) (int, bool) {
	limit := min(len(src), f.cap)
	n := scanString(src, limit)
	f.s = string(src[:n])
	if n < len(src) {
		// A byte followed the content within the input, so count the
		// terminator position as consumed. Truncation at capacity takes
		// this branch too and deliberately does not clear validity; the
		// original wire contract treats an over-long string as readable.
		n++
	}
	return n, true
}

// scanString returns the index of the first NUL within src[:limit], or limit
// when no terminator appears.
func scanString(src []byte, lim int) int {
	for i := 0; i < lim; i++ {
		if src[i] == 0 {
			return i
		}
	}
	return lim
}

func (f *String) scratch() Field {
	return &String{cap: f.cap}
}

func (f *String) commit(from Field) {
	f.s = from.(*String).s
}

// DynString is a string field with no compile-time size bound. A packet
// containing one still reports its serialized length at runtime but has no
// static maximum, so Packet.MaxSize is unavailable. Content rules and wire
// layout match String.
type DynString struct {
	s string
}

// NewDynString returns an unbounded string field holding s.
func NewDynString(s string) *DynString {
	f := &DynString{}
	f.Set(s)
	return f
}

// Get returns the current content.
func (f *DynString) Get() string {
	return f.s
}

// Set replaces the content, truncating at the first NUL byte.
func (f *DynString) Set(s string) {
	f.s = clampString(s, -1)
}

func (f *DynString) maxSize() (int, bool) {
	return 0, false
}

func (f *DynString) size() int {
	return len(f.s) + 1
}

func (f *DynString) encode(dst []byte) int {
	return encodeString(f.s, dst)
}

func (f *DynString) decode(src []byte) (int, bool) {
	n := scanString(src, len(src))
	f.s = string(src[:n])
	if n < len(src) {
		n++
	}
	return n, true
}

func (f *DynString) scratch() Field {
	return &DynString{}
}

func (f *DynString) commit(from Field) {
	f.s = from.(*DynString).s
}
