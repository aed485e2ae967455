package vm

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/google/uuid"

	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/types"
)

// defaultFrameLimit and overflowReserveFrames are the Go-native stand-in
// for spec section 4.3's byte-sized Stack/OverflowReserve buffers: since a
// compiled function here is a Go slice of opcode.Instruction rather than a
// raw byte program, "remaining stack space" is naturally measured in call
// depth, not bytes. overflowReserveFrames is the extra budget execute_next
// is still allowed to use once HitStackOverflow is set, enough to unwind
// cleanly and throw; a second overflow while doing that is fatal.
const (
	defaultFrameLimit    = 4096
	overflowReserveFrames = 64
)

// TimeoutEntry is one active `timeout(seconds) { ... }` scope: the dispatch
// budget remaining and the frame that owns it. Only the topmost entry on
// the stack accumulates charges (spec section 4.3, "exclusive: only the
// topmost accumulates"); an inner timeout expiring throws and pops itself,
// letting an outer timeout resume accounting.
type TimeoutEntry struct {
	Remaining int64
	Seconds   int64
	Owner     *PerFrameData
}

// dispatchChargeInterval is how many dispatched instructions charge one
// unit against the topmost TimeoutEntry.
const dispatchChargeInterval = 64

// ExecutableState is one independent instance of a loaded Module: its own
// heap/stack managers, static-field storage, patch table, and call stack.
// Two ExecutableStates never share mutable state except through managers
// explicitly registered as shared (handle.ThreadSafeManager), per spec
// section 5's state-isolation model.
type ExecutableState struct {
	// ID uniquely identifies this state for the lifetime of the process,
	// so a host running many states concurrently (spec section 5's
	// isolation model) can correlate debugwire events, leak reports, and
	// log lines back to the state that produced them without relying on
	// Go pointer identity.
	ID uuid.UUID

	Module  types.Module
	Managers *handle.ManagerSet

	StaticFields *swiss.Map[types.StaticFieldID, any]
	Patched      *PatchTable

	Debug DebugSink

	frames      []*PerFrameData
	scopeUIDSeq uint64
	dispatchCnt int64
	timeouts    []*TimeoutEntry

	// instanceFields stores the typed field values of every live class
	// instance, keyed by the *handle.HeapObject the instance was allocated
	// as and then by byte offset (the same offsets package types.BoundType.
	// Finalize assigns). Go's GC-managed values -- strings, interfaces,
	// handle.Handle itself -- can't be memcpy'd into HeapObject's raw byte
	// Payload the way a fixed-width C++ field can, so the byte offset only
	// serves as a stable lookup key here; HeapObject's own refcount/uid/
	// leak-tracking machinery is still used in full for allocation and
	// shutdown reclamation.
	instanceFields map[*handle.HeapObject]map[int]any

	FrameLimit int

	hitOverflow bool
}

// NewExecutableState creates a fresh state over module with its own
// per-state heap and stack managers. shared, if non-nil, installs
// additional manager flavors the host wants pooled across states (a
// ThreadSafeManager); it may be nil.
func NewExecutableState(module types.Module, shared map[handle.ManagerID]handle.ThreadSafeManager) *ExecutableState {
	es := &ExecutableState{
		ID:             uuid.New(),
		Module:         module,
		Managers:       handle.NewManagerSet(),
		StaticFields:   swiss.NewMap[types.StaticFieldID, any](32),
		Patched:        NewPatchTable(),
		Debug:          NoopSink{},
		instanceFields: make(map[*handle.HeapObject]map[int]any),
		FrameLimit:     defaultFrameLimit,
	}
	for id, mgr := range shared {
		es.Managers.Register(mgr)
		_ = id
	}
	if sm, ok := es.Managers.Get(handle.ManagerStack); ok {
		if stackMgr, ok := sm.(*handle.StackManager); ok {
			stackMgr.Bind(es.resolveStackSlot)
		}
	}
	return es
}

// resolveStackSlot is the StackManager resolver: it finds the innermost
// live frame with any scope carrying scopeUID and returns its local at
// offset.
func (es *ExecutableState) resolveStackSlot(scopeUID uint64, offset int) (any, bool) {
	for i := len(es.frames) - 1; i >= 0; i-- {
		f := es.frames[i]
		for _, sc := range f.Scopes {
			if sc.uid == scopeUID {
				if offset < 0 || offset >= len(f.Locals) {
					return nil, false
				}
				return f.Locals[offset], true
			}
		}
	}
	return nil, false
}

// nextScopeUID hands out a fresh, state-wide-unique scope identity.
func (es *ExecutableState) nextScopeUID() uint64 {
	es.scopeUIDSeq++
	return es.scopeUIDSeq
}

// ActiveFrames reports how many calls are currently executing, the gate
// PatchFunction/PatchType require to be zero.
func (es *ExecutableState) ActiveFrames() int { return len(es.frames) }

// PushTimeout installs a new timeout scope, owned by the currently
// executing frame.
func (es *ExecutableState) PushTimeout(seconds int64) {
	var owner *PerFrameData
	if n := len(es.frames); n > 0 {
		owner = es.frames[n-1]
	}
	es.timeouts = append(es.timeouts, &TimeoutEntry{Remaining: seconds * dispatchChargeInterval, Seconds: seconds, Owner: owner})
}

// PopTimeout removes the topmost timeout scope (called when a
// `timeout(...) { ... }` block exits normally).
func (es *ExecutableState) PopTimeout() {
	if len(es.timeouts) > 0 {
		es.timeouts = es.timeouts[:len(es.timeouts)-1]
	}
}

// chargeDispatch charges one dispatch against the topmost timeout; it
// returns an error once that timeout is exhausted.
func (es *ExecutableState) chargeDispatch() error {
	es.dispatchCnt++
	if es.dispatchCnt%dispatchChargeInterval != 0 || len(es.timeouts) == 0 {
		return nil
	}
	top := es.timeouts[len(es.timeouts)-1]
	top.Remaining--
	if top.Remaining <= 0 {
		es.timeouts = es.timeouts[:len(es.timeouts)-1]
		unit := "second"
		if top.Seconds != 1 {
			unit = "seconds"
		}
		return fmt.Errorf("vm: timeout exceeded: scope configured for %d %s", top.Seconds, unit)
	}
	return nil
}

// Shutdown runs reclamation across every manager, reporting any object
// still live as a leak through sink (spec section 3.4).
func (es *ExecutableState) Shutdown(sink handle.LeakSink) {
	es.Managers.DeleteAll(sink)
}
