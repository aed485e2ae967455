// Package handle implements the four handle-manager flavors described in
// spec section 4.2: heap, stack, pointer, and string. A Handle is a 3-word
// value addressing an object through one of these managers; dereferencing
// a handle whose referent has been deleted or has gone out of scope
// returns null rather than undefined behavior (spec section 3.4).
//
// The manager interface is uniform across all four flavors, replacing the
// usual ad-hoc "smart pointer" zoo with a single dispatch point keyed by
// the handle's ManagerID, per the design note in spec section 9.
package handle

import "fmt"

// TypeDescriptor is the minimal shape a handle's stored-type needs to
// satisfy. Package types' *BoundType (and the other Type implementations)
// satisfy this trivially; handle itself never needs more than the name, so
// it does not import package types (which in turn imports handle for
// Function/Property signatures, so an import cycle must be avoided here).
type TypeDescriptor interface {
	TypeName() string
}

// ManagerID distinguishes the four handle flavors. The flavor is carried on
// the handle, not inferred from the stored type, per spec section 3.4.
type ManagerID uint16

const (
	ManagerNone ManagerID = iota
	ManagerHeap
	ManagerStack
	ManagerPointer
	ManagerString
)

func (m ManagerID) String() string {
	switch m {
	case ManagerHeap:
		return "heap"
	case ManagerStack:
		return "stack"
	case ManagerPointer:
		return "pointer"
	case ManagerString:
		return "string"
	default:
		return "none"
	}
}

// Handle is the Language's tagged reference ABI: manager id, stored type,
// and 16 bytes of manager-private data (spec section 6.3).
type Handle struct {
	Manager     ManagerID
	StoredType  TypeDescriptor
	data        [16]byte
}

// Null is the zero-value handle: ManagerNone, always dereferences to nil.
var Null = Handle{}

// IsNull reports whether the handle carries no manager (the Null value).
func (h Handle) IsNull() bool { return h.Manager == ManagerNone }

func (h Handle) String() string {
	if h.IsNull() {
		return "null"
	}
	name := "?"
	if h.StoredType != nil {
		name = h.StoredType.TypeName()
	}
	return fmt.Sprintf("%s-handle<%s>", h.Manager, name)
}

// Manager is the uniform interface every handle-manager flavor implements,
// field for field per spec section 4.2.
type Manager interface {
	// ID returns this manager's ManagerID, used to route dispatch.
	ID() ManagerID

	// ObjectToHandle initializes a handle that will later dereference back
	// to objPtr, without allocating new storage.
	ObjectToHandle(objPtr any, t TypeDescriptor) (Handle, error)

	// HandleToObject returns the live object the handle addresses, or nil
	// if the handle has been invalidated (dangling-safe).
	HandleToObject(h Handle) (any, error)

	// Allocate allocates managed storage and returns a handle to it.
	Allocate(t TypeDescriptor, flags AllocFlags) (Handle, any, error)

	// AddReference/ReleaseReference implement optional reference
	// counting; ReleaseReference reports whether the core should now
	// invoke Delete.
	AddReference(h Handle) error
	ReleaseReference(h Handle) (shouldDelete bool, err error)

	// Delete performs language-level `delete`.
	Delete(h Handle) error

	// CanDelete reports whether Delete is legal for this handle.
	CanDelete(h Handle) bool

	// Hash and IsEqual support containers and comparisons.
	Hash(h Handle) uint64
	IsEqual(a, b Handle) bool

	// DeleteAll is called at state shutdown; it reports any still-live
	// objects as leaks via the supplied sink.
	DeleteAll(sink LeakSink)
}

// AllocFlags modifies Allocate's behavior.
type AllocFlags struct {
	NonReferenceCounted bool
}

// LeakSink receives one report per object still alive at shutdown (spec
// section 3.4 "Reclamation at state shutdown reports surviving heap
// objects as leaks").
type LeakSink interface {
	ReportLeak(typeName string, allocationSite string)
}

// ThreadSafeManager is the contract a Manager shared across multiple
// ExecutableStates must additionally satisfy: every method must be safe
// for concurrent use, and the manager must never hold a lock across a
// callback back into the VM (spec section 5, "Locking discipline").
type ThreadSafeManager interface {
	Manager
	SharedAcrossStates() bool
}

// ManagerSet collects the handle managers available to one ExecutableState:
// per-state heap/stack managers plus any shared managers declared by the
// host.
type ManagerSet struct {
	byID map[ManagerID]Manager
}

// NewManagerSet builds the standard four-manager set, with fresh per-state
// heap and stack managers.
func NewManagerSet() *ManagerSet {
	ms := &ManagerSet{byID: make(map[ManagerID]Manager, 4)}
	ms.Register(NewHeapManager())
	ms.Register(NewStackManager())
	ms.Register(NewPointerManager())
	ms.Register(NewStringManager())
	return ms
}

// Register installs (or replaces) a manager by its ID, allowing a host to
// supply a shared manager for a given flavor.
func (ms *ManagerSet) Register(m Manager) {
	ms.byID[m.ID()] = m
}

// Get dispatches to the manager for a handle's ManagerID.
func (ms *ManagerSet) Get(id ManagerID) (Manager, bool) {
	m, ok := ms.byID[id]
	return m, ok
}

// Dereference is the single indexed dispatch point every other component
// uses to turn a Handle into a live object pointer, or nil if dangling.
func (ms *ManagerSet) Dereference(h Handle) (any, error) {
	if h.IsNull() {
		return nil, nil
	}
	m, ok := ms.Get(h.Manager)
	if !ok {
		return nil, fmt.Errorf("handle: no manager registered for id %v", h.Manager)
	}
	return m.HandleToObject(h)
}

// DeleteAll runs shutdown reclamation across every registered manager.
func (ms *ManagerSet) DeleteAll(sink LeakSink) {
	for _, m := range ms.byID {
		m.DeleteAll(sink)
	}
}
