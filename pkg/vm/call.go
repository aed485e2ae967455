package vm

import (
	"fmt"

	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/types"
)

// Call is the entry point a host (the REPL, a native function wanting to
// invoke back into the Language, a test) uses to run one Function to
// completion. It owns the receiver/argument staging the teacher's
// Call.SetParam/SetThis/Invoke enforced as a debug-only ordering
// contract; here the ordering is simply the Go parameter list, since
// package vm's callers are Go code, not bytecode building its own call
// frame by hand.
func Call(es *ExecutableState, fn *types.Function, receiver handle.Handle, args []any) (any, error) {
	fn = es.Patched.ResolveFunction(fn)
	return es.invoke(fn, receiver, args, fn.Name)
}

// invoke runs fn (native or compiled) with receiver/args, pushing a frame,
// honoring the stack-overflow budget, and firing EnterFunction/
// ExitFunction debug events around the call.
func (es *ExecutableState) invoke(fn *types.Function, receiver handle.Handle, args []any, selector string) (any, error) {
	if fn.IsNative() {
		nativeArgs := args
		if fn.Owner != nil {
			nativeArgs = append([]any{receiver}, args...)
		}
		return fn.Native(es, nativeArgs)
	}

	if len(es.frames) >= es.FrameLimit+overflowReserveFrames {
		return nil, &FatalError{Reason: "stack overflow while already unwinding a stack overflow"}
	}
	if !es.hitOverflow && len(es.frames) >= es.FrameLimit {
		es.hitOverflow = true
		return nil, &StackOverflowError{Depth: len(es.frames)}
	}

	frame := newFrame(fn, selector, es.nextScopeUID())
	frame.This = receiver

	for i, p := range fn.ParamLayout {
		if i < len(args) {
			frame.Locals[p.ConstOrLocal] = args[i]
		}
	}
	if fn.Owner != nil {
		// "this" occupies the slot immediately after the last parameter,
		// per the compiler's frame layout (compileFunction reserves it
		// right after parameters).
		thisSlot := len(fn.ParamLayout) + 1
		if thisSlot < len(frame.Locals) {
			frame.Locals[thisSlot] = receiver
		}
	}

	es.frames = append(es.frames, frame)
	es.Debug.EnterFunction(frame)
	defer func() {
		es.Debug.ExitFunction(frame)
		es.frames = es.frames[:len(es.frames)-1]
		if len(es.frames) == 0 {
			es.hitOverflow = false
		}
	}()

	ctrl, retErr := es.runFrame(frame)
	if retErr != nil {
		return nil, retErr
	}
	switch ctrl {
	case ctrlException:
		return nil, newRuntimeError(frame.Locals[0], es.frames)
	default:
		return frame.Locals[0], nil
	}
}

// dispatchDynamic resolves selector against the receiver's runtime type
// (the rewriteIndexers/vector-intrinsic fallback path compileMessageSend
// documents) and invokes the first candidate whose declared arity matches
// -- the analyzer has already type-checked every call site statically, so
// at this point arity alone disambiguates (spec section 4.4 resolves
// overloads once, at compile time; a send left unresolved here was never
// ambiguous, only untyped at the indexer-rewrite stage).
func (es *ExecutableState) dispatchDynamic(receiver handle.Handle, selector string, args []any) (any, error) {
	bt, err := es.runtimeType(receiver)
	if err != nil {
		return nil, err
	}
	candidates := bt.FindFunction(selector)
	for _, fn := range candidates {
		if fn.Signature != nil && len(fn.Signature.Parameters) != len(args) {
			continue
		}
		fn = es.Patched.ResolveFunction(fn)
		return es.invoke(fn, receiver, args, selector)
	}
	return nil, fmt.Errorf("vm: no method %q on %s matching %d argument(s)", selector, bt.Name, len(args))
}

// runtimeType resolves the BoundType a handle's StoredType names, through
// the loaded module (so dynamic dispatch always lands on the finalized,
// possibly-patched type, not a stale TypeDescriptor captured at compile
// time).
func (es *ExecutableState) runtimeType(h handle.Handle) (*types.BoundType, error) {
	if h.IsNull() || h.StoredType == nil {
		return nil, fmt.Errorf("vm: cannot dispatch on a null receiver")
	}
	bt, ok := es.Module.FindType(h.StoredType.TypeName())
	if !ok {
		return nil, fmt.Errorf("vm: unknown runtime type %q", h.StoredType.TypeName())
	}
	return es.Patched.ResolveType(bt), nil
}

// createInstance allocates a fresh, zero-valued instance of bt through the
// heap manager and registers its field-storage side table. site identifies
// the allocating source location ("Function:line:col") for leak reporting
// at state shutdown (spec section 3.4); callers with no location to report
// may pass an empty string.
func (es *ExecutableState) createInstance(bt *types.BoundType, site string) (handle.Handle, error) {
	bt = es.Patched.ResolveType(bt)
	mgr, ok := es.Managers.Get(handle.ManagerHeap)
	if !ok {
		return handle.Handle{}, fmt.Errorf("vm: no heap manager registered")
	}
	h, objAny, err := mgr.Allocate(bt, handle.AllocFlags{})
	if err != nil {
		return handle.Handle{}, err
	}
	if obj, ok := objAny.(*handle.HeapObject); ok {
		fields := make(map[int]any)
		for cur := bt; cur != nil; cur = cur.Parent {
			for _, f := range cur.Fields {
				switch f.Type {
				case types.Integer, types.DoubleInteger, types.Byte:
					fields[f.Offset] = int64(0)
				case types.Real, types.DoubleReal:
					fields[f.Offset] = float64(0)
				case types.Boolean:
					fields[f.Offset] = false
				case types.String:
					fields[f.Offset] = ""
				}
			}
		}
		es.instanceFields[obj] = fields
		if heapMgr, ok := mgr.(*handle.HeapManager); ok && site != "" {
			heapMgr.RecordAllocationSite(obj, site)
		}
	}
	return h, nil
}

// fieldStorage returns the field-value map for the instance a handle
// addresses.
func (es *ExecutableState) fieldStorage(h handle.Handle) (map[int]any, error) {
	obj, err := es.Managers.Dereference(h)
	if err != nil {
		return nil, err
	}
	ho, ok := obj.(*handle.HeapObject)
	if !ok {
		return nil, fmt.Errorf("vm: handle does not address a heap instance")
	}
	fields, ok := es.instanceFields[ho]
	if !ok {
		fields = make(map[int]any)
		es.instanceFields[ho] = fields
	}
	return fields, nil
}

// deleteInstance runs `delete`: drops the field-storage side table entry
// and asks the heap manager to reclaim the object.
func (es *ExecutableState) deleteInstance(h handle.Handle) error {
	obj, err := es.Managers.Dereference(h)
	if err == nil {
		if ho, ok := obj.(*handle.HeapObject); ok {
			delete(es.instanceFields, ho)
		}
	}
	mgr, ok := es.Managers.Get(h.Manager)
	if !ok {
		return fmt.Errorf("vm: no manager registered for %v", h.Manager)
	}
	if !mgr.CanDelete(h) {
		return fmt.Errorf("vm: delete is not legal for this handle")
	}
	return mgr.Delete(h)
}
