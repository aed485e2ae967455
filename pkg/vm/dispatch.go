package vm

import (
	"fmt"
	"unsafe"

	"github.com/zilchlang/zilch/pkg/anyval"
	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/types"
)

// ctrl reports how one frame's execute_next loop ended, threading the
// Result-like signal spec section 9's Design Notes call for instead of a
// native setjmp/longjmp unwind.
type ctrl int

const (
	ctrlReturn ctrl = iota
	ctrlException
)

// runFrame is execute_next's outer loop: it dispatches frame.Fn.Code one
// instruction at a time until OpReturn or an exception/timeout aborts it.
func (es *ExecutableState) runFrame(frame *PerFrameData) (ctrl, error) {
	code := frame.Fn.Code
	for frame.IP < len(code) {
		inst := code[frame.IP]
		es.Debug.OpcodePreStep(frame, inst)

		if err := es.chargeDispatch(); err != nil {
			return ctrlException, es.throwValue(frame, err.Error())
		}

		next, _, err := es.step(frame, inst)
		if err != nil {
			switch err.(type) {
			case *StackOverflowError, *FatalError:
				_ = es.throwValue(frame, err.Error())
				return ctrlException, err
			}
			return ctrlException, es.throwValue(frame, err.Error())
		}
		es.Debug.OpcodePostStep(frame, inst)
		if inst.Op == opcode.OpReturn {
			return ctrlReturn, nil
		}
		frame.IP = next
	}
	return ctrlReturn, nil
}

// throwValue installs value into the return slot (so invoke's
// ctrlException branch can read it back off the frame) and unwinds the
// current frame's scopes.
func (es *ExecutableState) throwValue(frame *PerFrameData, value any) error {
	for len(frame.Scopes) > 0 {
		frame.popScope(es.Managers)
	}
	if len(frame.Locals) > 0 {
		frame.Locals[0] = value
	}
	return nil
}

// step executes one instruction and returns the next IP (absolute
// instruction index) plus a ctrl signal, which is ctrlReturn on every
// path: runFrame recognises OpReturn from the instruction itself, and
// exceptions are reported as a non-nil error instead.
func (es *ExecutableState) step(frame *PerFrameData, inst opcode.Instruction) (int, ctrl, error) {
	switch inst.Op {
	case opcode.OpNop, opcode.OpBreakpoint:
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpCopy:
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		if err := es.writeOperand(frame, inst.Dst, v); err != nil {
			return 0, 0, err
		}
		// CopyInitialize is how a freshly-constructed or returned handle
		// first lands in a local -- that local's scope now owns a
		// reference and must release it on scope exit (spec section 4.2).
		// Plain assignment (CopyAssignment) never takes ownership here;
		// the source scope that initialized the handle still owns it.
		if inst.Mode == opcode.CopyInitialize && inst.Dst.Kind == opcode.Local {
			if h, ok := v.(handle.Handle); ok {
				frame.currentScope().track(h)
			}
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpAdd, opcode.OpSub, opcode.OpMul, opcode.OpDiv, opcode.OpMod,
		opcode.OpLess, opcode.OpGreater, opcode.OpLessEq, opcode.OpGreaterEq,
		opcode.OpEqual, opcode.OpNotEqual, opcode.OpLogicalAnd, opcode.OpLogicalOr:
		left, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		right, err := es.readOperand(frame, inst.B)
		if err != nil {
			return 0, 0, err
		}
		result, err := applyBinary(inst.Op, left, right)
		if err != nil {
			return 0, 0, err
		}
		if err := es.writeOperand(frame, inst.Dst, result); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpAddAssign, opcode.OpSubAssign, opcode.OpMulAssign, opcode.OpDivAssign:
		cur, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		rhs, err := es.readOperand(frame, inst.B)
		if err != nil {
			return 0, 0, err
		}
		result, err := applyBinary(compoundBase(inst.Op), cur, rhs)
		if err != nil {
			return 0, 0, err
		}
		if err := es.writeOperand(frame, inst.A, result); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpNegate:
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		result, err := applyNegate(v)
		if err != nil {
			return 0, 0, err
		}
		if err := es.writeOperand(frame, inst.Dst, result); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpLogicalNot:
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		b, _ := v.(bool)
		if err := es.writeOperand(frame, inst.Dst, !b); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpTypeCast:
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		if err := es.writeOperand(frame, inst.Dst, castPrimitive(v, inst.Size)); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpAnyConversion:
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		packed, err := packAny(v)
		if err != nil {
			return 0, 0, err
		}
		if err := es.writeOperand(frame, inst.Dst, packed); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpDowncast:
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		h, ok := v.(handle.Handle)
		if !ok {
			return 0, 0, fmt.Errorf("vm: downcast source is not a handle")
		}
		targetName, _ := frame.Fn.Constants.Get(inst.Offset)
		name, _ := targetName.(string)
		bt, err := es.runtimeType(h)
		if err != nil {
			return 0, 0, err
		}
		target, ok := es.Module.FindType(name)
		if !ok || !bt.IsDerivedFrom(target) {
			return 0, 0, fmt.Errorf("vm: invalid downcast to %q", name)
		}
		if err := es.writeOperand(frame, inst.Dst, h); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpJump:
		return frame.IP + inst.Offset, ctrlReturn, nil

	case opcode.OpIf:
		cond, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		truthy, _ := cond.(bool)
		if !truthy {
			return frame.IP + inst.Offset, ctrlReturn, nil
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpPrepForFunctionCall:
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		frame.pendingArgs = append(frame.pendingArgs, v)
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpFunctionCall:
		result, err := es.dispatchCall(frame, inst)
		if err != nil {
			return 0, 0, err
		}
		if err := es.writeOperand(frame, inst.Dst, result); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpCreateType, opcode.OpCreateLocalType:
		nameVal, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		name, _ := nameVal.(string)
		bt, ok := es.Module.FindType(name)
		if !ok {
			return 0, 0, fmt.Errorf("vm: unknown type %q", name)
		}
		site := allocationSite(frame, inst)
		h, err := es.createInstance(bt, site)
		if err != nil {
			return 0, 0, err
		}
		if err := es.writeOperand(frame, inst.Dst, h); err != nil {
			return 0, 0, err
		}
		if inst.Dst.Kind == opcode.Local {
			frame.currentScope().track(h)
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpDeleteObject:
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		h, ok := v.(handle.Handle)
		if !ok || h.IsNull() {
			return frame.IP + 1, ctrlReturn, nil
		}
		if err := es.deleteInstance(h); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpThrowException:
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		return 0, 0, fmt.Errorf("%v", v)

	case opcode.OpToHandle:
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		if err := es.writeOperand(frame, inst.Dst, v); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpCreateStaticDelegate, opcode.OpCreateInstanceDelegate:
		targetVal, _ := frame.Fn.Constants.Get(inst.Offset)
		fn, _ := targetVal.(*types.Function)
		var recv handle.Handle
		if inst.Op == opcode.OpCreateInstanceDelegate {
			v, err := es.readOperand(frame, inst.A)
			if err != nil {
				return 0, 0, err
			}
			recv, _ = v.(handle.Handle)
		}
		del := anyval.Delegate{This: recv}
		if fn != nil {
			del.FuncID = functionID(fn)
		}
		if err := es.writeOperand(frame, inst.Dst, del); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpTypeId:
		nameVal, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		name, _ := nameVal.(string)
		if err := es.writeOperand(frame, inst.Dst, name); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpMemberId:
		nameVal, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		if err := es.writeOperand(frame, inst.Dst, nameVal); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpBeginStringBuilder:
		if err := es.writeOperand(frame, inst.Dst, &stringBuilderState{}); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpAddToStringBuilder:
		bv, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		sb, ok := bv.(*stringBuilderState)
		if !ok {
			return 0, 0, fmt.Errorf("vm: string builder operand is not a builder")
		}
		part, err := es.readOperand(frame, inst.B)
		if err != nil {
			return 0, 0, err
		}
		sb.parts = append(sb.parts, fmt.Sprintf("%v", part))
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpEndStringBuilder:
		bv, err := es.readOperand(frame, inst.A)
		if err != nil {
			return 0, 0, err
		}
		sb, ok := bv.(*stringBuilderState)
		if !ok {
			return 0, 0, fmt.Errorf("vm: string builder operand is not a builder")
		}
		joined := ""
		for _, p := range sb.parts {
			joined += p
		}
		if err := es.writeOperand(frame, inst.Dst, joined); err != nil {
			return 0, 0, err
		}
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpBeginScope:
		frame.pushScope(es.nextScopeUID())
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpEndScope:
		frame.popScope(es.Managers)
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpTimeout:
		seconds, _ := es.readOperand(frame, inst.A)
		secs, _ := seconds.(int64)
		es.PushTimeout(secs)
		return frame.IP + 1, ctrlReturn, nil

	case opcode.OpReturn:
		for len(frame.Scopes) > 0 {
			frame.popScope(es.Managers)
		}
		return frame.IP, ctrlReturn, nil

	default:
		return 0, 0, fmt.Errorf("vm: unimplemented opcode %s", inst.Op)
	}
}

// stringBuilderState is the runtime value OpBeginStringBuilder's Dst
// operand holds between BeginStringBuilder and EndStringBuilder.
type stringBuilderState struct {
	parts []string
}

// dispatchCall consumes the pending-argument queue OpPrepForFunctionCall
// staged, resolves the call target from the constant pool, and invokes it
// -- directly if Size indexes a *types.Function, dynamically (by selector
// name against the receiver's runtime type) if it indexes a string.
func (es *ExecutableState) dispatchCall(frame *PerFrameData, inst opcode.Instruction) (any, error) {
	argc := inst.Offset
	if argc > len(frame.pendingArgs) {
		return nil, fmt.Errorf("vm: function call expected %d staged argument(s), have %d", argc, len(frame.pendingArgs))
	}
	args := frame.pendingArgs[len(frame.pendingArgs)-argc:]
	frame.pendingArgs = frame.pendingArgs[:len(frame.pendingArgs)-argc]

	argsCopy := append([]any(nil), args...)

	var receiver handle.Handle
	hasReceiver := inst.A.Kind != opcode.NotSet
	if hasReceiver {
		v, err := es.readOperand(frame, inst.A)
		if err != nil {
			return nil, err
		}
		receiver, _ = v.(handle.Handle)
	}

	target, ok := frame.Fn.Constants.Get(inst.Size)
	if !ok {
		return nil, fmt.Errorf("vm: call target constant %d not found", inst.Size)
	}
	switch t := target.(type) {
	case *types.Function:
		fn := es.Patched.ResolveFunction(t)
		return es.invoke(fn, receiver, argsCopy, fn.Name)
	case string:
		if !hasReceiver {
			return nil, fmt.Errorf("vm: dynamic call to %q has no receiver to dispatch on", t)
		}
		return es.dispatchDynamic(receiver, t, argsCopy)
	default:
		return nil, fmt.Errorf("vm: call target constant has unexpected type %T", target)
	}
}

// functionID derives a Delegate's opaque FuncID from a Function's own
// pointer identity, mirroring the identity-keying package handle's
// PointerManager already uses for native objects.
func functionID(fn *types.Function) uintptr {
	return uintptr(unsafe.Pointer(fn))
}

// allocationSite formats the source location an OpCreateType/
// OpCreateLocalType instruction allocates from, for HeapManager's leak
// reporting (spec section 3.4 "surviving heap objects are reported with
// their allocation code location").
func allocationSite(frame *PerFrameData, inst opcode.Instruction) string {
	name := "<unknown function>"
	if frame != nil && frame.Fn != nil {
		name = frame.Fn.Name
	}
	return fmt.Sprintf("%s:%d:%d", name, inst.Line, inst.Column)
}
