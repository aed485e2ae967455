package handle

import (
	"encoding/binary"
	"fmt"
)

// ScopeRef is the minimal shape a stack handle needs from the scope that
// owns it: a uid that advances when the scope exits. package vm's
// PerScopeData satisfies this; handle does not import package vm to avoid
// a cycle (vm imports handle for the manager dispatch).
type ScopeRef interface {
	ScopeUID() uint64
}

// StackManager implements Manager for stack-allocated objects. It never
// allocates managed storage itself (stack slots are allocated by the VM's
// frame layout); its handles simply encode a live scope uid plus a stack
// offset, and dereference to null once the owning scope's uid has advanced
// past the value recorded at handle-creation time (spec section 4.2,
// "Stack manager allocates nothing").
type StackManager struct {
	// resolve looks up the live stack slot for a (scope, offset) pair.
	// The VM installs this once it constructs the manager, since only the
	// VM knows how to map a live scope back to its frame's memory.
	resolve func(scopeUID uint64, offset int) (any, bool)
}

// NewStackManager creates a StackManager with no resolver installed; the
// VM must call Bind before the manager is usable.
func NewStackManager() *StackManager {
	return &StackManager{}
}

// Bind installs the VM's scope/offset resolver.
func (s *StackManager) Bind(resolve func(scopeUID uint64, offset int) (any, bool)) {
	s.resolve = resolve
}

func (s *StackManager) ID() ManagerID { return ManagerStack }

func encodeStackData(scopeUID uint64, offset int) [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], scopeUID)
	binary.LittleEndian.PutUint64(b[8:16], uint64(int64(offset)))
	return b
}

func decodeStackData(h Handle) (scopeUID uint64, offset int) {
	scopeUID = binary.LittleEndian.Uint64(h.data[0:8])
	offset = int(int64(binary.LittleEndian.Uint64(h.data[8:16])))
	return
}

// NewHandle builds a stack handle for a live scope and stack slot offset.
func (s *StackManager) NewHandle(t TypeDescriptor, scope ScopeRef, offset int) Handle {
	return Handle{Manager: ManagerStack, StoredType: t, data: encodeStackData(scope.ScopeUID(), offset)}
}

func (s *StackManager) ObjectToHandle(objPtr any, t TypeDescriptor) (Handle, error) {
	return Handle{}, fmt.Errorf("stack: handles can only be created via NewHandle, not ObjectToHandle")
}

func (s *StackManager) HandleToObject(h Handle) (any, error) {
	if s.resolve == nil {
		return nil, nil
	}
	scopeUID, offset := decodeStackData(h)
	v, ok := s.resolve(scopeUID, offset)
	if !ok {
		return nil, nil // scope has exited: dangling, treated as null
	}
	return v, nil
}

func (s *StackManager) Allocate(t TypeDescriptor, flags AllocFlags) (Handle, any, error) {
	return Handle{}, nil, fmt.Errorf("stack: storage is allocated by the VM's frame layout, not Allocate")
}

func (s *StackManager) AddReference(h Handle) error { return nil }

func (s *StackManager) ReleaseReference(h Handle) (bool, error) { return false, nil }

func (s *StackManager) Delete(h Handle) error {
	return fmt.Errorf("stack: objects are reclaimed when their scope exits, not via delete")
}

func (s *StackManager) CanDelete(h Handle) bool { return false }

func (s *StackManager) Hash(h Handle) uint64 {
	scopeUID, offset := decodeStackData(h)
	return scopeUID*31 + uint64(offset)
}

func (s *StackManager) IsEqual(a, b Handle) bool {
	return a.Manager == ManagerStack && b.Manager == ManagerStack && a.data == b.data
}

func (s *StackManager) DeleteAll(sink LeakSink) {
	// Stack objects are never leaked: they die with their scope/frame.
}
