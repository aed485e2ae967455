// Package anyval implements the Language's Any value: a small tagged union
// that carries a type descriptor plus at most one embedded primitive value
// or handle/delegate, per spec section 3.4.
//
// Values larger than the inline buffer are rejected rather than silently
// boxed, matching the spec's invariant that Any's inline size is fixed and
// sufficient only for primitives, handles, delegates, and small vectors.
package anyval

import (
	"fmt"
	"math"

	"github.com/zilchlang/zilch/pkg/handle"
)

// inlineSize bounds the inline byte buffer, which holds the fixed-width
// scalars (at most 8 bytes); strings, vectors, handles, and delegates are
// kept in out-of-line fields instead.
const inlineSize = 24

// ErrTooLarge is returned by Pack when a value does not fit the inline
// buffer.
var ErrTooLarge = fmt.Errorf("anyval: value exceeds inline buffer of %d bytes", inlineSize)

// Kind tags which alternative is currently packed into an AnyValue.
type Kind byte

const (
	KindNull Kind = iota
	KindBool
	KindByte
	KindInteger
	KindDoubleInteger
	KindReal
	KindDoubleReal
	KindString
	KindVector
	KindHandle
	KindDelegate
)

// Delegate pairs a bound function identity with a this-handle, per spec
// section 3.4. FuncID is opaque here (package vm/types owns real function
// identity); anyval only needs to move the pair around and compare it.
type Delegate struct {
	FuncID uintptr
	This   handle.Handle
}

// AnyValue is the Language's Any: a type tag plus an inline payload.
type AnyValue struct {
	kind    Kind
	typeTag string // descriptive type name; full Type lives in package types
	bytes   [inlineSize]byte
	str     string         // out-of-line for KindString (immutable, ref-counted upstream)
	vec     []float64      // out-of-line for KindVector (small, but variable width)
	del     *Delegate      // out-of-line for KindDelegate
	hdl     *handle.Handle // out-of-line for KindHandle
}

// Null returns the null Any.
func Null() AnyValue { return AnyValue{kind: KindNull, typeTag: "Null"} }

// Kind reports which alternative is packed.
func (a AnyValue) Kind() Kind { return a.kind }

// IsNull reports whether the value is the null Any.
func (a AnyValue) IsNull() bool { return a.kind == KindNull }

// TypeName returns the descriptive type name recorded when the value was
// packed.
func (a AnyValue) TypeName() string { return a.typeTag }

func packScalar[T any](typeTag string, kind Kind, v T) (AnyValue, error) {
	var zero [inlineSize]byte
	size := sizeOf(v)
	if size > inlineSize {
		return AnyValue{}, ErrTooLarge
	}
	a := AnyValue{kind: kind, typeTag: typeTag, bytes: zero}
	writeLE(a.bytes[:], v)
	return a, nil
}

func sizeOf(v any) int {
	switch v.(type) {
	case bool, byte:
		return 1
	case int64, float64:
		return 8
	default:
		return inlineSize + 1 // force ErrTooLarge for unrecognized scalars
	}
}

// writeLE encodes a fixed-width scalar little-endian into dst. Supports the
// primitive kinds the Language defines; anything else is a programmer error
// caught by sizeOf above before we get here.
func writeLE(dst []byte, v any) {
	switch x := v.(type) {
	case bool:
		if x {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
	case byte:
		dst[0] = x
	case int64:
		u := uint64(x)
		for i := 0; i < 8; i++ {
			dst[i] = byte(u >> (8 * i))
		}
	case float64:
		u := math.Float64bits(x)
		for i := 0; i < 8; i++ {
			dst[i] = byte(u >> (8 * i))
		}
	}
}

// PackBool packs a Boolean.
func PackBool(v bool) AnyValue {
	a, _ := packScalar("Boolean", KindBool, v)
	return a
}

// PackInteger packs a 32-bit-semantic Integer (stored widened to int64).
func PackInteger(v int64) AnyValue {
	a, _ := packScalar("Integer", KindInteger, v)
	return a
}

// PackDoubleInteger packs a 64-bit DoubleInteger.
func PackDoubleInteger(v int64) AnyValue {
	a, _ := packScalar("DoubleInteger", KindDoubleInteger, v)
	return a
}

// PackReal packs a 32-bit-semantic Real (stored widened to float64).
func PackReal(v float64) AnyValue {
	a, _ := packScalar("Real", KindReal, v)
	return a
}

// PackDoubleReal packs a 64-bit DoubleReal.
func PackDoubleReal(v float64) AnyValue {
	a, _ := packScalar("DoubleReal", KindDoubleReal, v)
	return a
}

// PackString packs a String. Strings are reference-counted and compared
// structurally upstream (package handle's StringManager); AnyValue simply
// carries the Go string value, which is itself immutable.
func PackString(v string) AnyValue {
	return AnyValue{kind: KindString, typeTag: "String", str: v}
}

// PackVector packs a fixed-size vector of up to 4 float64 components into
// an out-of-line copy; anything wider is rejected with ErrTooLarge.
func PackVector(components []float64) (AnyValue, error) {
	if len(components) > 4 {
		return AnyValue{}, ErrTooLarge
	}
	cp := make([]float64, len(components))
	copy(cp, components)
	return AnyValue{kind: KindVector, typeTag: fmt.Sprintf("Real%d", len(components)), vec: cp}, nil
}

// PackHandle packs a Handle (any of the four manager flavors). The handle
// itself is fixed-size (spec section 6.3); it is kept out-of-line here only
// because Go structs-in-structs are simplest to reason about than manual
// byte packing, not because it exceeds the inline budget.
func PackHandle(typeName string, h handle.Handle) AnyValue {
	cp := h
	return AnyValue{kind: KindHandle, typeTag: typeName, hdl: &cp}
}

// PackDelegate packs a Delegate.
func PackDelegate(d Delegate) AnyValue {
	cp := d
	return AnyValue{kind: KindDelegate, typeTag: "Delegate", del: &cp}
}

// UnpackBool reads back a packed Boolean.
func (a AnyValue) UnpackBool() (bool, bool) {
	if a.kind != KindBool {
		return false, false
	}
	return a.bytes[0] != 0, true
}

// UnpackInteger reads back a packed Integer or DoubleInteger.
func (a AnyValue) UnpackInteger() (int64, bool) {
	if a.kind != KindInteger && a.kind != KindDoubleInteger {
		return 0, false
	}
	return readI64(a.bytes[:]), true
}

// UnpackReal reads back a packed Real or DoubleReal.
func (a AnyValue) UnpackReal() (float64, bool) {
	if a.kind != KindReal && a.kind != KindDoubleReal {
		return 0, false
	}
	return math.Float64frombits(readU64(a.bytes[:])), true
}

// UnpackString reads back a packed String.
func (a AnyValue) UnpackString() (string, bool) {
	if a.kind != KindString {
		return "", false
	}
	return a.str, true
}

// UnpackVector reads back a packed vector.
func (a AnyValue) UnpackVector() ([]float64, bool) {
	if a.kind != KindVector {
		return nil, false
	}
	return a.vec, true
}

// UnpackHandle reads back a packed Handle.
func (a AnyValue) UnpackHandle() (handle.Handle, bool) {
	if a.kind != KindHandle || a.hdl == nil {
		return handle.Handle{}, false
	}
	return *a.hdl, true
}

// UnpackDelegate reads back a packed Delegate.
func (a AnyValue) UnpackDelegate() (Delegate, bool) {
	if a.kind != KindDelegate || a.del == nil {
		return Delegate{}, false
	}
	return *a.del, true
}

func readU64(b []byte) uint64 {
	var u uint64
	for i := 0; i < 8; i++ {
		u |= uint64(b[i]) << (8 * i)
	}
	return u
}

func readI64(b []byte) int64 { return int64(readU64(b)) }

func (a AnyValue) String() string {
	switch a.kind {
	case KindNull:
		return "null"
	case KindBool:
		v, _ := a.UnpackBool()
		return fmt.Sprintf("%v", v)
	case KindInteger, KindDoubleInteger:
		v, _ := a.UnpackInteger()
		return fmt.Sprintf("%d", v)
	case KindReal, KindDoubleReal:
		v, _ := a.UnpackReal()
		return fmt.Sprintf("%g", v)
	case KindString:
		return a.str
	case KindVector:
		return fmt.Sprintf("%v", a.vec)
	case KindHandle:
		return fmt.Sprintf("handle<%s>", a.typeTag)
	case KindDelegate:
		return "delegate"
	default:
		return "<any>"
	}
}
