package vm

import (
	"fmt"

	"github.com/zilchlang/zilch/pkg/anyval"
	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/types"
)

// readOperand resolves an opcode.Operand to its runtime value within
// frame, per the addressing model package opcode defines: a Constant reads
// the function's constant pool, a Local reads the frame's slot array, a
// Field dereferences the handle held in the base local and looks the
// offset up in that instance's field-storage table, and a StaticField
// looks up the state-wide static storage table.
func (es *ExecutableState) readOperand(frame *PerFrameData, op opcode.Operand) (any, error) {
	switch op.Kind {
	case opcode.NotSet:
		return nil, nil
	case opcode.Constant:
		v, ok := frame.Fn.Constants.Get(op.ConstOrLocal)
		if !ok {
			return nil, fmt.Errorf("vm: constant %d not found", op.ConstOrLocal)
		}
		return v, nil
	case opcode.Local:
		if op.ConstOrLocal < 0 || op.ConstOrLocal >= len(frame.Locals) {
			return nil, fmt.Errorf("vm: local slot %d out of range", op.ConstOrLocal)
		}
		return frame.Locals[op.ConstOrLocal], nil
	case opcode.Field:
		base := frame.Locals[op.ConstOrLocal]
		h, ok := base.(handle.Handle)
		if !ok {
			return nil, fmt.Errorf("vm: field base is not a handle")
		}
		fields, err := es.fieldStorage(h)
		if err != nil {
			return nil, err
		}
		return fields[op.FieldOffset], nil
	case opcode.StaticField:
		if op.StaticFieldID == nil {
			return nil, fmt.Errorf("vm: static field operand missing its id")
		}
		id := types.StaticFieldID{Library: op.StaticFieldID.Library, Type: op.StaticFieldID.Type, Name: op.StaticFieldID.Name}
		v, _ := es.StaticFields.Get(id)
		return v, nil
	case opcode.Property:
		return nil, fmt.Errorf("vm: property operands are not directly readable; compile through a getter call")
	default:
		return nil, fmt.Errorf("vm: unknown operand kind %v", op.Kind)
	}
}

// writeOperand is readOperand's dual: Constant operands are never
// writable.
func (es *ExecutableState) writeOperand(frame *PerFrameData, op opcode.Operand, v any) error {
	switch op.Kind {
	case opcode.NotSet:
		return nil
	case opcode.Local:
		if op.ConstOrLocal < 0 || op.ConstOrLocal >= len(frame.Locals) {
			return fmt.Errorf("vm: local slot %d out of range", op.ConstOrLocal)
		}
		frame.Locals[op.ConstOrLocal] = v
		return nil
	case opcode.Field:
		base := frame.Locals[op.ConstOrLocal]
		h, ok := base.(handle.Handle)
		if !ok {
			return fmt.Errorf("vm: field base is not a handle")
		}
		fields, err := es.fieldStorage(h)
		if err != nil {
			return err
		}
		fields[op.FieldOffset] = v
		return nil
	case opcode.StaticField:
		if op.StaticFieldID == nil {
			return fmt.Errorf("vm: static field operand missing its id")
		}
		id := types.StaticFieldID{Library: op.StaticFieldID.Library, Type: op.StaticFieldID.Type, Name: op.StaticFieldID.Name}
		es.StaticFields.Put(id, v)
		return nil
	default:
		return fmt.Errorf("vm: operand kind %v is not writable", op.Kind)
	}
}

// applyBinary implements the arithmetic/comparison/logical RValue family
// over the Go-native runtime representation (int64, float64, bool, string)
// package compiler's constant/Copy emission already produces.
func applyBinary(op opcode.Opcode, left, right any) (any, error) {
	switch op {
	case opcode.OpLogicalAnd:
		lb, _ := left.(bool)
		rb, _ := right.(bool)
		return lb && rb, nil
	case opcode.OpLogicalOr:
		lb, _ := left.(bool)
		rb, _ := right.(bool)
		return lb || rb, nil
	case opcode.OpEqual:
		return equalValues(left, right), nil
	case opcode.OpNotEqual:
		return !equalValues(left, right), nil
	}

	if ls, ok := left.(string); ok {
		rs, _ := right.(string)
		switch op {
		case opcode.OpAdd:
			return ls + rs, nil
		case opcode.OpLess:
			return ls < rs, nil
		case opcode.OpGreater:
			return ls > rs, nil
		case opcode.OpLessEq:
			return ls <= rs, nil
		case opcode.OpGreaterEq:
			return ls >= rs, nil
		default:
			return nil, fmt.Errorf("vm: operator %s is not defined for String", op)
		}
	}

	lf, lIsFloat := asFloat(left)
	rf, rIsFloat := asFloat(right)
	if lIsFloat && rIsFloat {
		switch op {
		case opcode.OpAdd:
			return lf + rf, nil
		case opcode.OpSub:
			return lf - rf, nil
		case opcode.OpMul:
			return lf * rf, nil
		case opcode.OpDiv:
			if rf == 0 {
				return nil, fmt.Errorf("vm: division by zero")
			}
			return lf / rf, nil
		case opcode.OpMod:
			return nil, fmt.Errorf("vm: %% is not defined for Real")
		case opcode.OpLess:
			return lf < rf, nil
		case opcode.OpGreater:
			return lf > rf, nil
		case opcode.OpLessEq:
			return lf <= rf, nil
		case opcode.OpGreaterEq:
			return lf >= rf, nil
		}
	}

	li, lIsInt := asInt(left)
	ri, rIsInt := asInt(right)
	if lIsInt && rIsInt {
		switch op {
		case opcode.OpAdd:
			return li + ri, nil
		case opcode.OpSub:
			return li - ri, nil
		case opcode.OpMul:
			return li * ri, nil
		case opcode.OpDiv:
			if ri == 0 {
				return nil, fmt.Errorf("vm: division by zero")
			}
			return li / ri, nil
		case opcode.OpMod:
			if ri == 0 {
				return nil, fmt.Errorf("vm: modulo by zero")
			}
			return li % ri, nil
		case opcode.OpLess:
			return li < ri, nil
		case opcode.OpGreater:
			return li > ri, nil
		case opcode.OpLessEq:
			return li <= ri, nil
		case opcode.OpGreaterEq:
			return li >= ri, nil
		}
	}

	return nil, fmt.Errorf("vm: operator %s is not defined for %T and %T", op, left, right)
}

func equalValues(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
	}
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			return ai == bi
		}
	}
	return a == b
}

func asInt(v any) (int64, bool) {
	i, ok := v.(int64)
	return i, ok
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), false // an int64 must not silently become float-comparable
	}
	return 0, false
}

func compoundBase(op opcode.Opcode) opcode.Opcode {
	switch op {
	case opcode.OpAddAssign:
		return opcode.OpAdd
	case opcode.OpSubAssign:
		return opcode.OpSub
	case opcode.OpMulAssign:
		return opcode.OpMul
	case opcode.OpDivAssign:
		return opcode.OpDiv
	default:
		return op
	}
}

func applyNegate(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return -x, nil
	case float64:
		return -x, nil
	default:
		return nil, fmt.Errorf("vm: cannot negate %T", v)
	}
}

// castPrimitive coerces a runtime value to the width size names (per
// opSize's own convention: 1=>Boolean/Byte, 4=>Integer/Real, 8=>
// DoubleInteger/DoubleReal). Go's own int64/float64 already carry the full
// 8-byte range, so a narrowing cast here is a best-effort truncation
// rather than a hardware-width reinterpretation -- the Language's value
// semantics, not its storage layout, are what the VM needs to preserve.
func castPrimitive(v any, size int) any {
	switch x := v.(type) {
	case int64:
		if size <= 1 {
			if x != 0 {
				return true
			}
			return false
		}
		return x
	case float64:
		return x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}

// packAny wraps a runtime value into an anyval.AnyValue, the Any type's
// own inline-tagged representation.
func packAny(v any) (anyval.AnyValue, error) {
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
		return anyval.AnyValue{}, fmt.Errorf("vm: cannot convert %T to Any", v)
	}
}
