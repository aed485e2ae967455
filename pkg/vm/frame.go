package vm

import (
	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/types"
)

// PerScopeData is the cleanup bookkeeping for one lexical scope: a
// monotonic uid (so a StackManager handle addressing one of this scope's
// slots dereferences to null once the scope has exited, per spec section
// 4.2) plus the handles that must be released, in reverse declaration
// order, when the scope unwinds normally or under exception.
type PerScopeData struct {
	uid     uint64
	release []handle.Handle
}

// ScopeUID satisfies handle.ScopeRef.
func (s *PerScopeData) ScopeUID() uint64 { return s.uid }

func (s *PerScopeData) track(h handle.Handle) {
	if !h.IsNull() {
		s.release = append(s.release, h)
	}
}

// PerFrameData is one call's activation record: the function being run (nil
// while still inside a native call, which never steps through
// execute_next), its locals addressed by the compiler's frame-slot
// indices, the instruction pointer, and the scope stack live within this
// call. The compiler does not currently emit nested OpBeginScope/OpEndScope
// pairs (every function body is one implicit scope), so Scopes holds
// exactly one entry for a bytecode frame today; the stack shape is kept so
// a future compiler pass can start emitting them without a PerFrameData
// change.
type PerFrameData struct {
	Fn       *types.Function
	Locals   []any
	This     handle.Handle
	IP       int
	Scopes   []*PerScopeData
	Selector string // message selector this frame was invoked through

	pendingArgs []any // staged by OpPrepForFunctionCall, consumed by OpFunctionCall
}

func newFrame(fn *types.Function, selector string, scopeUID uint64) *PerFrameData {
	return &PerFrameData{
		Fn:       fn,
		Locals:   make([]any, fn.FrameSize),
		Scopes:   []*PerScopeData{{uid: scopeUID}},
		Selector: selector,
	}
}

func (f *PerFrameData) currentScope() *PerScopeData {
	return f.Scopes[len(f.Scopes)-1]
}

func (f *PerFrameData) pushScope(uid uint64) {
	f.Scopes = append(f.Scopes, &PerScopeData{uid: uid})
}

// popScope releases every handle the exiting scope tracked (reverse
// insertion order, per spec section 4.2 cleanup-list semantics) and
// removes it from the stack.
func (f *PerFrameData) popScope(ms *handle.ManagerSet) {
	scope := f.currentScope()
	for i := len(scope.release) - 1; i >= 0; i-- {
		releaseHandle(ms, scope.release[i])
	}
	f.Scopes = f.Scopes[:len(f.Scopes)-1]
}

func releaseHandle(ms *handle.ManagerSet, h handle.Handle) {
	if h.IsNull() {
		return
	}
	mgr, ok := ms.Get(h.Manager)
	if !ok {
		return
	}
	shouldDelete, err := mgr.ReleaseReference(h)
	if err == nil && shouldDelete && mgr.CanDelete(h) {
		_ = mgr.Delete(h)
	}
}
