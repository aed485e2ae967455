package handle

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// PointerManager implements Manager for raw, globally-lived native objects.
// These handles are never deletable and never reference-counted: the
// native side owns the object's lifetime entirely (spec section 4.2,
// "Pointer handle -- raw pointer; used for globally-lived native objects;
// never deletable").
type PointerManager struct {
	live map[uint64]any
}

// NewPointerManager creates an empty pointer manager.
func NewPointerManager() *PointerManager {
	return &PointerManager{live: make(map[uint64]any)}
}

func (p *PointerManager) ID() ManagerID { return ManagerPointer }

func encodePointerData(key uint64) [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], key)
	return b
}

func decodePointerKey(h Handle) uint64 {
	return binary.LittleEndian.Uint64(h.data[0:8])
}

// ObjectToHandle registers a raw native pointer under a stable key (the
// pointer's own identity) so later HandleToObject calls return the same
// value.
func (p *PointerManager) ObjectToHandle(objPtr any, t TypeDescriptor) (Handle, error) {
	if objPtr == nil {
		return Handle{}, fmt.Errorf("pointer: cannot create a handle to a nil object")
	}
	key := identityKey(objPtr)
	p.live[key] = objPtr
	return Handle{Manager: ManagerPointer, StoredType: t, data: encodePointerData(key)}, nil
}

// identityKey derives a stable lookup key from an arbitrary pointer-shaped
// value (pointer, map, chan, func, or slice) using reflect.Value.Pointer;
// pointer handles are meant to address process-global native objects, so
// identity (not content) is what matters here.
func identityKey(v any) uint64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return uint64(rv.Pointer())
	case reflect.Slice:
		return uint64(rv.Pointer())
	default:
		// Not pointer-shaped: fall back to a content hash of its string
		// form, which keeps ObjectToHandle total instead of panicking.
		h := fnv64a(fmt.Sprintf("%v", v))
		return h
	}
}

func fnv64a(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

func (p *PointerManager) HandleToObject(h Handle) (any, error) {
	v, ok := p.live[decodePointerKey(h)]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (p *PointerManager) Allocate(t TypeDescriptor, flags AllocFlags) (Handle, any, error) {
	return Handle{}, nil, fmt.Errorf("pointer: globally-lived native objects are registered via ObjectToHandle, not Allocate")
}

func (p *PointerManager) AddReference(h Handle) error { return nil }

func (p *PointerManager) ReleaseReference(h Handle) (bool, error) { return false, nil }

func (p *PointerManager) Delete(h Handle) error { return nil } // never deletable

func (p *PointerManager) CanDelete(h Handle) bool { return false }

func (p *PointerManager) Hash(h Handle) uint64 { return decodePointerKey(h) }

func (p *PointerManager) IsEqual(a, b Handle) bool {
	return a.Manager == ManagerPointer && b.Manager == ManagerPointer && decodePointerKey(a) == decodePointerKey(b)
}

func (p *PointerManager) DeleteAll(sink LeakSink) {
	// Never leaked: pointer handles never own the object's lifetime.
}
