// Package spirvtype resolves a types.Type to a SPIR-V type id: a registry
// of factories keyed by Kind. Nested element and member types resolve
// first, matching the declaration order pkg/shader/depcollect demands.
// Template instantiations such as FixedArray[T,N] and RuntimeArray[T] have
// no factory.
package spirvtype

import (
	"fmt"

	"github.com/zilchlang/zilch/pkg/shader/spirvenc"
	"github.com/zilchlang/zilch/pkg/types"
)

// Resolver maps types.Type values to SPIR-V type ids within one Module.
type Resolver struct {
	mod *spirvenc.Module
	// factories is keyed by types.Kind so a host can register or override
	// the lowering for a given kind (e.g. a custom image/sampler kind a
	// later Kind value introduces) without touching Resolve's dispatch.
	factories map[types.Kind]func(*Resolver, types.Type) (uint32, error)
}

// NewResolver returns a Resolver with factories registered for Void,
// Boolean, the integer and real kinds, Vector, Matrix and Bound. Any other
// kind (String, Delegate, Any, ...) has no factory until one is registered.
func NewResolver(mod *spirvenc.Module) *Resolver {
	r := &Resolver{mod: mod, factories: make(map[types.Kind]func(*Resolver, types.Type) (uint32, error))}
	r.factories[types.KindVoid] = resolveVoid
	r.factories[types.KindBoolean] = resolveBool
	r.factories[types.KindInteger] = resolveIntWidth(32, true)
	r.factories[types.KindDoubleInteger] = resolveIntWidth(64, true)
	r.factories[types.KindByte] = resolveIntWidth(8, false)
	r.factories[types.KindReal] = resolveFloatWidth(32)
	r.factories[types.KindDoubleReal] = resolveFloatWidth(64)
	r.factories[types.KindVector] = resolveVector
	r.factories[types.KindMatrix] = resolveMatrix
	r.factories[types.KindBound] = resolveStruct
	return r
}

// Register installs or overrides the factory used for kind.
func (r *Resolver) Register(kind types.Kind, fn func(*Resolver, types.Type) (uint32, error)) {
	r.factories[kind] = fn
}

// Resolve returns t's SPIR-V type id, allocating and interning it on first
// use. Nested types (a struct's fields, a vector's element) resolve
// depth-first through the same Resolver so every referenced id exists
// before the type that references it is declared.
func (r *Resolver) Resolve(t types.Type) (uint32, error) {
	fn, ok := r.factories[t.TypeKind()]
	if !ok {
		return 0, fmt.Errorf("spirvtype: no factory registered for kind %v (type %q)", t.TypeKind(), t.TypeName())
	}
	return fn(r, t)
}

func resolveVoid(r *Resolver, t types.Type) (uint32, error) {
	return r.mod.InternType("void", func(id uint32) spirvenc.Instruction {
		return spirvenc.Instruction{Op: spirvenc.OpTypeVoid, Operands: []uint32{id}}
	}), nil
}

func resolveBool(r *Resolver, t types.Type) (uint32, error) {
	return r.mod.InternType("bool", func(id uint32) spirvenc.Instruction {
		return spirvenc.Instruction{Op: spirvenc.OpTypeBool, Operands: []uint32{id}}
	}), nil
}

func resolveIntWidth(width uint32, signed bool) func(*Resolver, types.Type) (uint32, error) {
	return func(r *Resolver, t types.Type) (uint32, error) {
		sign := uint32(0)
		if signed {
			sign = 1
		}
		key := fmt.Sprintf("int%d_%d", width, sign)
		return r.mod.InternType(key, func(id uint32) spirvenc.Instruction {
			return spirvenc.Instruction{Op: spirvenc.OpTypeInt, Operands: []uint32{id, width, sign}}
		}), nil
	}
}

func resolveFloatWidth(width uint32) func(*Resolver, types.Type) (uint32, error) {
	return func(r *Resolver, t types.Type) (uint32, error) {
		key := fmt.Sprintf("float%d", width)
		return r.mod.InternType(key, func(id uint32) spirvenc.Instruction {
			return spirvenc.Instruction{Op: spirvenc.OpTypeFloat, Operands: []uint32{id, width}}
		}), nil
	}
}

// resolveVector lowers a fixed-width vector, resolving its element type
// first so OpTypeVector's operand id is already declared.
func resolveVector(r *Resolver, t types.Type) (uint32, error) {
	v := t.(types.VectorType)
	elemID, err := r.Resolve(v.Element)
	if err != nil {
		return 0, err
	}
	key := fmt.Sprintf("vec%d_%d", v.Rows, elemID)
	return r.mod.InternType(key, func(id uint32) spirvenc.Instruction {
		return spirvenc.Instruction{Op: spirvenc.OpTypeVector, Operands: []uint32{id, elemID, uint32(v.Rows)}}
	}), nil
}

// resolveMatrix lowers an MxN matrix as an array of N column vectors,
// SPIR-V's column-major convention (spec section 5.6's "operand-order flip
// for matrix multiplies" exists precisely to keep this convention
// transparent to callers working in the Language's row-major surface
// syntax).
func resolveMatrix(r *Resolver, t types.Type) (uint32, error) {
	m := t.(types.MatrixType)
	col := types.VectorType{Rows: m.Rows, Element: m.Element}
	colID, err := r.Resolve(col)
	if err != nil {
		return 0, err
	}
	key := fmt.Sprintf("mat%dx%d_%d", m.Rows, m.Cols, colID)
	return r.mod.InternType(key, func(id uint32) spirvenc.Instruction {
		return spirvenc.Instruction{Op: spirvenc.OpTypeMatrix, Operands: []uint32{id, colID, uint32(m.Cols)}}
	}), nil
}

// resolveStruct lowers a BoundType's Fields, in declared field order, as a
// SPIR-V struct -- every struct a shader uses (uniform buffers, vertex
// input blocks) goes through this path, since spec section 5.6 routes
// member types through the same Resolver that handles the top-level type.
func resolveStruct(r *Resolver, t types.Type) (uint32, error) {
	bt, ok := t.(*types.BoundType)
	if !ok {
		return 0, fmt.Errorf("spirvtype: KindBound factory given non-*BoundType %T", t)
	}
	memberIDs := make([]uint32, 0, len(bt.Fields))
	for _, f := range bt.Fields {
		id, err := r.Resolve(f.Type)
		if err != nil {
			return 0, fmt.Errorf("spirvtype: field %q of %q: %w", f.Name, bt.Name, err)
		}
		memberIDs = append(memberIDs, id)
	}
	return r.mod.InternType("struct_"+bt.Name, func(id uint32) spirvenc.Instruction {
		return spirvenc.Instruction{Op: spirvenc.OpTypeStruct, Operands: append([]uint32{id}, memberIDs...)}
	}), nil
}
