package handle

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"
)

// patchReserveBytes is extra tail padding reserved on every heap allocation
// so a later patch can add fields to a BoundType without moving already-
// allocated objects of that type (spec section 4.3 Patching; design note in
// spec section 9, option (a)).
const patchReserveBytes = 64

// Sizer is implemented by a TypeDescriptor that knows its raw payload size.
// package types' *BoundType implements this via its RawSize field.
type Sizer interface {
	RawSize() int
}

// heapHeader mirrors spec section 3.4's 16-byte object header:
// (type, uid, refcount, flags). UID is per-state monotonic; a handle
// dereferences successfully only if the header's uid still matches the
// handle's stored uid.
type heapHeader struct {
	Type     TypeDescriptor
	UID      uint64
	RefCount int32
	Flags    uint8
}

const flagNonReferenceCounted uint8 = 1 << 0

// HeapObject is the payload a HeapManager allocation hands back: a header
// plus a raw byte buffer (sized RawSize()+patchReserveBytes) that the
// compiler's field-offset layout indexes into.
type HeapObject struct {
	header  *heapHeader
	Payload []byte
}

// Header exposes read-only header fields for diagnostics (leak reports,
// debugger object inspection).
func (o *HeapObject) Header() (t TypeDescriptor, uid uint64, refcount int32) {
	return o.header.Type, o.header.UID, o.header.RefCount
}

// HeapManager implements Manager for heap-allocated, reference-counted
// objects (spec section 4.2, "Heap manager additionally...").
type HeapManager struct {
	mu       sync.Mutex
	nextUID  uint64
	live     map[*HeapObject]struct{}
	allocLoc map[*HeapObject]string // allocation site, for leak reports
}

// NewHeapManager creates an empty per-state heap manager.
func NewHeapManager() *HeapManager {
	return &HeapManager{
		nextUID:  1,
		live:     make(map[*HeapObject]struct{}),
		allocLoc: make(map[*HeapObject]string),
	}
}

func (h *HeapManager) ID() ManagerID { return ManagerHeap }

// encodeHeapData packs the header pointer's identity and the allocation's
// uid into the handle's 16-byte manager-private payload (spec section 6.3:
// "Heap data: (header_ptr: ptr, uid: u64)"). The pointer value is used only
// for identity, never dereferenced from the encoded form directly —
// HandleToObject always re-resolves by searching the live set for an object
// whose header still carries that uid.
func encodeHeapData(obj *HeapObject, uid uint64) [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], uint64(uintptr(unsafe.Pointer(obj))))
	binary.LittleEndian.PutUint64(b[8:16], uid)
	return b
}

// AllocateWithSize allocates a heap object whose payload is sized bytes
// plus the patch tail reserve.
func (h *HeapManager) AllocateWithSize(t TypeDescriptor, size int, flags AllocFlags) (Handle, *HeapObject, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	uid := h.nextUID
	h.nextUID++

	obj := &HeapObject{
		header:  &heapHeader{Type: t, UID: uid},
		Payload: make([]byte, size+patchReserveBytes),
	}
	if flags.NonReferenceCounted {
		obj.header.Flags |= flagNonReferenceCounted
	} else {
		obj.header.RefCount = 1
	}
	h.live[obj] = struct{}{}

	hdl := Handle{Manager: ManagerHeap, StoredType: t, data: encodeHeapData(obj, uid)}
	return hdl, obj, nil
}

func (h *HeapManager) Allocate(t TypeDescriptor, flags AllocFlags) (Handle, any, error) {
	size := 0
	if s, ok := t.(Sizer); ok {
		size = s.RawSize()
	}
	hdl, obj, err := h.AllocateWithSize(t, size, flags)
	return hdl, obj, err
}

// ObjectToHandle initializes a handle for an already-allocated HeapObject
// (e.g. one obtained from native code holding a raw *HeapObject), matching
// a handle to the same uid recorded when it was allocated.
func (h *HeapManager) ObjectToHandle(objPtr any, t TypeDescriptor) (Handle, error) {
	obj, ok := objPtr.(*HeapObject)
	if !ok {
		return Handle{}, fmt.Errorf("heap: ObjectToHandle expects *HeapObject, got %T", objPtr)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.live[obj]; !live {
		return Handle{}, fmt.Errorf("heap: object is not a live allocation of this state")
	}
	return Handle{Manager: ManagerHeap, StoredType: t, data: encodeHeapData(obj, obj.header.UID)}, nil
}

func decodeHeapUID(h Handle) uint64 {
	return binary.LittleEndian.Uint64(h.data[8:16])
}

// HandleToObject returns the live *HeapObject, or nil if the stored uid no
// longer matches the header's uid (the object was deleted).
func (h *HeapManager) HandleToObject(hdl Handle) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	wantUID := decodeHeapUID(hdl)
	for obj := range h.live {
		if obj.header.UID == wantUID {
			return obj, nil
		}
	}
	return nil, nil // dangling: treated as null, not an error
}

func (h *HeapManager) AddReference(hdl Handle) error {
	obj, err := h.lookupLocked(hdl)
	if err != nil || obj == nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if obj.header.Flags&flagNonReferenceCounted == 0 {
		obj.header.RefCount++
	}
	return nil
}

func (h *HeapManager) ReleaseReference(hdl Handle) (bool, error) {
	obj, err := h.lookupLocked(hdl)
	if err != nil || obj == nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if obj.header.Flags&flagNonReferenceCounted != 0 {
		return false, nil
	}
	obj.header.RefCount--
	return obj.header.RefCount <= 0, nil
}

func (h *HeapManager) lookupLocked(hdl Handle) (*HeapObject, error) {
	o, err := h.HandleToObject(hdl)
	if err != nil || o == nil {
		return nil, err
	}
	return o.(*HeapObject), nil
}

// Delete runs the destructor contract: sets the header's uid to 0 so every
// other handle aliasing this object now dereferences to null, then frees
// the payload and removes it from the live set (spec section 3.4
// Lifecycle).
func (h *HeapManager) Delete(hdl Handle) error {
	obj, err := h.lookupLocked(hdl)
	if err != nil {
		return err
	}
	if obj == nil {
		return nil // already deleted; delete is idempotent
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	obj.header.UID = 0 // no live handle will ever carry uid 0 (nextUID starts at 1)
	obj.Payload = nil
	delete(h.live, obj)
	delete(h.allocLoc, obj)
	return nil
}

func (h *HeapManager) CanDelete(hdl Handle) bool {
	obj, err := h.lookupLocked(hdl)
	return err == nil && obj != nil
}

func (h *HeapManager) Hash(hdl Handle) uint64 {
	return decodeHeapUID(hdl)
}

func (h *HeapManager) IsEqual(a, b Handle) bool {
	return a.Manager == ManagerHeap && b.Manager == ManagerHeap && decodeHeapUID(a) == decodeHeapUID(b)
}

// DeleteAll reports every still-live object as a leak, per spec section 3.4
// "Reclamation at state shutdown reports surviving heap objects as leaks."
func (h *HeapManager) DeleteAll(sink LeakSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for obj := range h.live {
		name := "<unknown>"
		if obj.header.Type != nil {
			name = obj.header.Type.TypeName()
		}
		site := h.allocLoc[obj]
		if site == "" {
			site = "<unknown allocation site>"
		}
		sink.ReportLeak(name, site)
		delete(h.allocLoc, obj)
		delete(h.live, obj)
	}
}

// RecordAllocationSite lets the compiler/VM attach a source location to an
// allocation for later leak reporting, without widening the Allocate
// signature that every Manager implementation must share.
func (h *HeapManager) RecordAllocationSite(obj *HeapObject, site string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.allocLoc[obj] = site
}
