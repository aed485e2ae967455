package types

import "fmt"

// Type is implemented by every alternative the type system defines:
// PrimitiveType, VectorType, MatrixType, *BoundType, *DelegateType,
// *IndirectionType, AnyType.
type Type interface {
	// TypeName returns the type's fully-qualified display name (also what
	// package handle's TypeDescriptor interface requires of a stored type).
	TypeName() string

	// TypeKind reports the Kind this Type belongs to.
	TypeKind() Kind
}

// PrimitiveType covers every scalar kind that carries no further structure:
// Boolean, Byte, Integer, DoubleInteger, Real, DoubleReal, String, Void,
// Null, Error.
type PrimitiveType struct {
	Kind Kind
}

func (p PrimitiveType) TypeName() string { return p.Kind.String() }
func (p PrimitiveType) TypeKind() Kind   { return p.Kind }

var (
	Boolean       = PrimitiveType{Kind: KindBoolean}
	Byte          = PrimitiveType{Kind: KindByte}
	Integer       = PrimitiveType{Kind: KindInteger}
	DoubleInteger = PrimitiveType{Kind: KindDoubleInteger}
	Real          = PrimitiveType{Kind: KindReal}
	DoubleReal    = PrimitiveType{Kind: KindDoubleReal}
	String        = PrimitiveType{Kind: KindString}
	Void          = PrimitiveType{Kind: KindVoid}
	Null          = PrimitiveType{Kind: KindNull}
	Error         = PrimitiveType{Kind: KindError}
)

// VectorType is a fixed-width vector of a primitive element type, e.g.
// Real3, Integer4.
type VectorType struct {
	Rows    int
	Element PrimitiveType
}

func (v VectorType) TypeName() string {
	return fmt.Sprintf("%s%d", v.Element.Kind.String(), v.Rows)
}
func (v VectorType) TypeKind() Kind { return KindVector }

// MatrixType is a fixed Rows x Cols matrix of a primitive element type.
type MatrixType struct {
	Rows, Cols int
	Element    PrimitiveType
}

func (m MatrixType) TypeName() string {
	return fmt.Sprintf("%s%dx%d", m.Element.Kind.String(), m.Rows, m.Cols)
}
func (m MatrixType) TypeKind() Kind { return KindMatrix }

// DelegateType is a function signature: parameter types plus a return type.
// It is the Type that underlies every Function.Signature and every value of
// delegate kind (a bound method reference plus optional this-handle).
type DelegateType struct {
	Name       string
	Parameters []Type
	Return     Type
}

func (d *DelegateType) TypeName() string {
	if d.Name != "" {
		return d.Name
	}
	name := "("
	for i, p := range d.Parameters {
		if i > 0 {
			name += ", "
		}
		name += p.TypeName()
	}
	name += ") -> "
	if d.Return != nil {
		name += d.Return.TypeName()
	} else {
		name += "Void"
	}
	return name
}
func (d *DelegateType) TypeKind() Kind { return KindDelegate }

// IndirectionType wraps another Type as an indirect (by-reference, handle
// addressed) value, regardless of the wrapped type's own CopyMode -- used
// for `ref` parameters and out-params.
type IndirectionType struct {
	Inner Type
}

func (i *IndirectionType) TypeName() string { return "ref " + i.Inner.TypeName() }
func (i *IndirectionType) TypeKind() Kind   { return KindIndirection }

// AnyType is the singleton Type describing a value that may hold any other
// type, carried at runtime as an anyval.AnyValue.
type AnyType struct{}

func (AnyType) TypeName() string { return "Any" }
func (AnyType) TypeKind() Kind   { return KindAny }

// TheAnyType is the one instance of AnyType callers should reference.
var TheAnyType = AnyType{}
