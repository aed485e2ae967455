// Package reflectx implements the Language's reflection surface over
// pkg/types's Library/BoundType graph: reading and writing a Property
// through its generated accessor, interning Field as an auto-generated
// Property, and the static-field first-access initializer contract (spec
// section 4.7), grounded on original_source/ZeroLibraries/Zilch/Project/
// Zilch/Members.hpp's Property/Field split.
package reflectx

import (
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/zilchlang/zilch/pkg/anyval"
	"github.com/zilchlang/zilch/pkg/conv"
	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/types"
)

// Caller is the subset of ExecutableState the reflection layer needs to
// invoke a property's getter/setter or a static field's initializer,
// without package reflectx importing package vm (which already imports
// pkg/types -- avoiding the cycle vm -> reflectx -> vm would create).
type Caller interface {
	Call(fn *types.Function, receiver handle.Handle, args []any) (any, error)
}

// PropertyFor returns the BoundType's accessor Property for fieldOrProp by
// name, synthesizing one for a plain Field on the fly (Field is a
// generated Property per spec section 4.7: the struct never stores a
// separate Property entry for something that is just a Field with an
// implicit getter/setter).
func PropertyFor(bt *types.BoundType, name string) (types.Property, bool) {
	for _, p := range bt.Properties {
		if p.Name == name {
			return p, true
		}
	}
	if f, ok := bt.FindField(name); ok {
		return types.Property{Name: f.Name, Type: f.Type}, true
	}
	return types.Property{}, false
}

// GetValue reads prop off instance, packed as an AnyValue. A Property
// backed by a real Getter function is invoked through caller; a plain
// Field-derived Property (Getter == nil) reads directly out of the VM's
// field-storage side table via fields.
func GetValue(caller Caller, prop types.Property, instance handle.Handle, fields map[int]any, offset int) (anyval.AnyValue, error) {
	if prop.Getter != nil {
		result, err := caller.Call(prop.Getter, instance, nil)
		if err != nil {
			return anyval.AnyValue{}, err
		}
		return packRuntimeValue(result)
	}
	raw, ok := fields[offset]
	if !ok {
		return anyval.Null(), nil
	}
	return packRuntimeValue(raw)
}

// SetValue writes value into prop on instance, running the same
// implicit-conversion check the analyzer applies to a static assignment
// (spec section 4.7: "the same implicit-conversion check as D, via a
// shared conv.Convert helper"). ReadOnly properties reject the write; a
// Property with no Setter (a plain Field) is written straight into
// fields[offset].
func SetValue(caller Caller, prop types.Property, instance handle.Handle, fields map[int]any, offset int, value anyval.AnyValue) error {
	if prop.ReadOnly {
		return fmt.Errorf("reflectx: %q is read-only", prop.Name)
	}
	if !conv.ImplicitlyConvertible(valueType(value), prop.Type) && prop.Type != nil && prop.Type.TypeName() != value.TypeName() {
		return fmt.Errorf("reflectx: cannot assign %s to %s (type %s)", value.TypeName(), prop.Name, prop.Type.TypeName())
	}
	converted := value
	if prop.Type != nil {
		var err error
		converted, err = conv.Convert(value, prop.Type)
		if err != nil {
			return err
		}
	}
	if prop.Setter != nil {
		_, err := caller.Call(prop.Setter, instance, []any{unpackRuntimeValue(converted)})
		return err
	}
	fields[offset] = unpackRuntimeValue(converted)
	return nil
}

// packRuntimeValue boxes a VM-side raw value (bool/int64/float64/string/
// handle.Handle) into the AnyValue reflection callers expect.
func packRuntimeValue(v any) (anyval.AnyValue, error) {
	switch x := v.(type) {
	case nil:
		return anyval.Null(), nil
	case bool:
		return anyval.PackBool(x), nil
	case int64:
		return anyval.PackInteger(x), nil
	case float64:
		return anyval.PackReal(x), nil
	case string:
		return anyval.PackString(x), nil
	case handle.Handle:
		name := "?"
		if x.StoredType != nil {
			name = x.StoredType.TypeName()
		}
		return anyval.PackHandle(name, x), nil
	case anyval.AnyValue:
		return x, nil
	default:
		return anyval.AnyValue{}, fmt.Errorf("reflectx: cannot reflect over value of type %T", v)
	}
}

// unpackRuntimeValue is packRuntimeValue's inverse, used when a reflected
// write needs to land back in the VM's raw any-typed storage.
func unpackRuntimeValue(v anyval.AnyValue) any {
	switch v.Kind() {
	case anyval.KindBool:
		b, _ := v.UnpackBool()
		return b
	case anyval.KindInteger, anyval.KindDoubleInteger:
		i, _ := v.UnpackInteger()
		return i
	case anyval.KindReal, anyval.KindDoubleReal:
		f, _ := v.UnpackReal()
		return f
	case anyval.KindString:
		s, _ := v.UnpackString()
		return s
	case anyval.KindHandle:
		h, _ := v.UnpackHandle()
		return h
	default:
		return nil
	}
}

func valueType(v anyval.AnyValue) types.Type {
	switch v.Kind() {
	case anyval.KindBool:
		return types.Boolean
	case anyval.KindInteger:
		return types.Integer
	case anyval.KindDoubleInteger:
		return types.DoubleInteger
	case anyval.KindReal:
		return types.Real
	case anyval.KindDoubleReal:
		return types.DoubleReal
	case anyval.KindString:
		return types.String
	default:
		return types.TheAnyType
	}
}

// StaticFieldStore is the subset of ExecutableState.StaticFields reflectx
// needs: a plain get/put map keyed by types.StaticFieldID, identical to
// the swiss.Map package vm actually uses.
type StaticFieldStore interface {
	Get(id types.StaticFieldID) (any, bool)
	Put(id types.StaticFieldID, v any)
}

// StaticFieldAccess runs first-access initialization for a static field:
// the first caller to touch id runs init (via caller.Call) and every
// concurrent first-access call gets that same single run's result, via a
// singleflight.Group keyed by the field's identity. A throw from init
// propagates to every caller that was waiting on it, not just whichever
// goroutine happened to run it (spec section 4.7 / 5.7).
type StaticFieldAccess struct {
	group singleflight.Group
}

// Get returns id's current value, running init through caller exactly
// once across any concurrently-racing first accesses if the field has
// never been written.
func (s *StaticFieldAccess) Get(store StaticFieldStore, id types.StaticFieldID, init func() (any, error)) (any, error) {
	if v, ok := store.Get(id); ok {
		return v, nil
	}
	v, err, _ := s.group.Do(id.String(), func() (any, error) {
		if v, ok := store.Get(id); ok {
			return v, nil
		}
		result, err := init()
		if err != nil {
			return nil, err
		}
		store.Put(id, result)
		return result, nil
	})
	return v, err
}
