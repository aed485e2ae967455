package types

import (
	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/opcode"
)

// CopyMode controls whether a BoundType's values are passed by value
// (copied field-for-field) or by reference (passed as a handle), per spec
// section 3.1.
type CopyMode byte

const (
	ByValue CopyMode = iota
	ByReference
)

func (m CopyMode) String() string {
	if m == ByReference {
		return "ByReference"
	}
	return "ByValue"
}

// Field is a plain data member of a BoundType: a name, type, and byte
// offset within the type's raw storage, assigned once at Finalize.
type Field struct {
	Name   string
	Type   Type
	Offset int
}

// Property is a computed (getter/setter-backed) member; Field values are
// exposed through an auto-generated Property by package reflectx, so the
// two share this shape.
type Property struct {
	Name     string
	Type     Type
	Getter   *Function
	Setter   *Function
	ReadOnly bool
}

// Constant is a closed sum type for attribute parameters and static literal
// initializers.
type Constant struct {
	Kind ConstantKind
	I    int64
	F    float64
	S    string
	B    bool
}

type ConstantKind byte

const (
	ConstantInt64 ConstantKind = iota
	ConstantFloat64
	ConstantString
	ConstantBool
)

func ConstInt(v int64) Constant     { return Constant{Kind: ConstantInt64, I: v} }
func ConstFloat(v float64) Constant { return Constant{Kind: ConstantFloat64, F: v} }
func ConstStr(v string) Constant    { return Constant{Kind: ConstantString, S: v} }
func ConstBool(v bool) Constant     { return Constant{Kind: ConstantBool, B: v} }

// Attribute is a named annotation (e.g. [Static], [Extension], shader stage
// attributes) carrying zero or more Constant parameters.
type Attribute struct {
	Name   string
	Params []Constant
}

// VTableSlot records one virtual dispatch slot: the declaring signature and
// the most-derived Function currently bound to it.
type VTableSlot struct {
	Name         string
	Signature    *DelegateType
	Implementation *Function
}

// Function is a compiled or native callable: a method, free function,
// constructor, destructor, or pre-constructor.
type Function struct {
	Name      string
	Signature *DelegateType
	Owner     *BoundType // nil for free functions

	Code        []opcode.Instruction
	Constants   *opcode.ConstantPool
	FrameSize   int
	ParamLayout []opcode.Operand
	DebugRanges []opcode.DebugRange

	// Native is non-nil for a host-bound function; when set, Code is empty
	// and the VM invokes Native directly instead of dispatching bytecode.
	Native opcode.NativeFunc

	IsVirtual bool
}

// IsNative reports whether this Function is backed by a host implementation
// rather than compiled bytecode.
func (f *Function) IsNative() bool { return f.Native != nil }

// BoundType is a class: the Language's only structural (as opposed to
// primitive) type, per spec section 3.1.
type BoundType struct {
	Name         string
	TemplateBase string // non-empty if this is a template instantiation
	TemplateArgs []Constant

	CopyMode CopyMode
	Parent   *BoundType

	Fields       []Field
	Properties   []Property
	Functions    map[string][]*Function // overload sets, keyed by name
	Constructors []*Function
	Destructor   *Function
	PreConstructor *Function

	SentEvents []string
	Attributes []Attribute

	HandleManagerID handle.ManagerID
	VTable          []VTableSlot

	rawSize  int
	finalized bool
}

// NewBoundType creates an empty, unfinalized BoundType ready for members to
// be collected onto it.
func NewBoundType(name string, copyMode CopyMode) *BoundType {
	return &BoundType{
		Name:      name,
		CopyMode:  copyMode,
		Functions: make(map[string][]*Function),
	}
}

func (b *BoundType) TypeName() string { return b.Name }
func (b *BoundType) TypeKind() Kind   { return KindBound }

// RawSize satisfies package handle's Sizer interface: the byte size of this
// type's instance payload, assigned at Finalize.
func (b *BoundType) RawSize() int { return b.rawSize }

// AddFunction registers a function under its overload set. Uniqueness
// across overloads is enforced by the semantic analyzer, not here -- a
// BoundType is purely a container for candidate lists (spec section 3.1:
// "overload resolution uniqueness is enforced in D, not here").
func (b *BoundType) AddFunction(fn *Function) {
	fn.Owner = b
	b.Functions[fn.Name] = append(b.Functions[fn.Name], fn)
}

// Finalize assigns field byte offsets by walking the Parent chain first
// (single inheritance; a derived type's layout begins with its parent's),
// then this type's own fields in declaration order. Finalize is idempotent.
func (b *BoundType) Finalize() {
	if b.finalized {
		return
	}
	offset := 0
	if b.Parent != nil {
		b.Parent.Finalize()
		offset = b.Parent.rawSize
	}
	for i := range b.Fields {
		b.Fields[i].Offset = offset
		offset += fieldSize(b.Fields[i].Type)
	}
	b.rawSize = offset
	b.finalized = true
}

// fieldSize returns the in-object byte footprint of a field of type t.
// Bound types are stored by handle (16 bytes, the handle width: manager tag folded into the
// handle's own encoding is out of scope here -- the object payload stores
// the handle.Handle value itself); everything else uses its natural width.
func fieldSize(t Type) int {
	switch tt := t.(type) {
	case PrimitiveType:
		switch tt.Kind {
		case KindBoolean, KindByte:
			return 1
		case KindInteger, KindReal:
			return 4
		case KindDoubleInteger, KindDoubleReal:
			return 8
		case KindString:
			return 16 // handle width
		default:
			return 8
		}
	case VectorType:
		return tt.Rows * 8
	case MatrixType:
		return tt.Rows * tt.Cols * 8
	case *BoundType:
		return 16 // handle width
	case *DelegateType:
		return 24 // handle + function pointer
	case *IndirectionType:
		return 16
	case AnyType:
		return 24
	default:
		return 16
	}
}

// FindFunction searches this type's overload set, then its parent chain,
// for any function with the given name (candidates only; resolution picks
// among them elsewhere).
func (b *BoundType) FindFunction(name string) []*Function {
	if fns, ok := b.Functions[name]; ok {
		return fns
	}
	if b.Parent != nil {
		return b.Parent.FindFunction(name)
	}
	return nil
}

// FindField searches this type's own fields, then its parent chain.
func (b *BoundType) FindField(name string) (Field, bool) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f, true
		}
	}
	if b.Parent != nil {
		return b.Parent.FindField(name)
	}
	return Field{}, false
}

// IsDerivedFrom reports whether b is base or a (transitive) descendant of
// base -- used by the compiler's Downcast opcode to validate storage
// compatibility.
func (b *BoundType) IsDerivedFrom(base *BoundType) bool {
	for cur := b; cur != nil; cur = cur.Parent {
		if cur == base {
			return true
		}
	}
	return false
}
