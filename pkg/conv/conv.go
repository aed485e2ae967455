// Package conv is the single implicit-conversion rule both the semantic
// analyzer (pass 6, inserting implicit casts at compile time) and the
// reflection model's Property.SetValue (checking a runtime value against
// a declared type) consult, so the two never drift apart on which
// conversions the Language allows implicitly (spec section 4.7).
package conv

import (
	"fmt"

	"github.com/zilchlang/zilch/pkg/anyval"
	"github.com/zilchlang/zilch/pkg/types"
)

// numericRank orders the primitive numeric kinds from narrowest to widest.
// A conversion is implicit only when it goes from a lower rank to a
// higher or equal one.
var numericRank = map[types.Kind]int{
	types.KindByte:          0,
	types.KindInteger:       1,
	types.KindDoubleInteger: 2,
	types.KindReal:          3,
	types.KindDoubleReal:    4,
}

// ImplicitlyConvertible reports whether a value statically typed as from
// may flow into a slot declared as to without an explicit cast: widening
// among the numeric kinds, or anything flowing into Any.
func ImplicitlyConvertible(from, to types.Type) bool {
	if from == nil || to == nil {
		return false
	}
	if _, ok := to.(types.AnyType); ok {
		return true
	}
	fp, fok := from.(types.PrimitiveType)
	tp, tok := to.(types.PrimitiveType)
	if !fok || !tok {
		return false
	}
	fr, fok2 := numericRank[fp.Kind]
	tr, tok2 := numericRank[tp.Kind]
	return fok2 && tok2 && tr >= fr
}

// Convert widens a runtime value already known to be of kind from into the
// representation kind to expects. It is the runtime counterpart of
// ImplicitlyConvertible -- reflectx.Property.SetValue calls both: the
// static check to decide whether the assignment is legal, then this to
// actually produce the stored value.
func Convert(v anyval.AnyValue, to types.Type) (anyval.AnyValue, error) {
	tp, ok := to.(types.PrimitiveType)
	if !ok {
		if _, isAny := to.(types.AnyType); isAny {
			return v, nil
		}
		return v, nil // non-primitive targets (Bound, Vector, ...) pass the value through unchanged
	}
	switch tp.Kind {
	case types.KindByte, types.KindInteger, types.KindDoubleInteger:
		if i, ok := v.UnpackInteger(); ok {
			return packInt(tp.Kind, i), nil
		}
		if f, ok := v.UnpackReal(); ok {
			return packInt(tp.Kind, int64(f)), nil
		}
	case types.KindReal, types.KindDoubleReal:
		if f, ok := v.UnpackReal(); ok {
			return packReal(tp.Kind, f), nil
		}
		if i, ok := v.UnpackInteger(); ok {
			return packReal(tp.Kind, float64(i)), nil
		}
	case types.KindBoolean:
		if b, ok := v.UnpackBool(); ok {
			return anyval.PackBool(b), nil
		}
	case types.KindString:
		if s, ok := v.UnpackString(); ok {
			return anyval.PackString(s), nil
		}
	}
	return anyval.AnyValue{}, fmt.Errorf("conv: cannot convert %s to %s", v.TypeName(), to.TypeName())
}

func packInt(kind types.Kind, v int64) anyval.AnyValue {
	if kind == types.KindDoubleInteger {
		return anyval.PackDoubleInteger(v)
	}
	return anyval.PackInteger(v)
}

func packReal(kind types.Kind, v float64) anyval.AnyValue {
	if kind == types.KindDoubleReal {
		return anyval.PackDoubleReal(v)
	}
	return anyval.PackReal(v)
}
