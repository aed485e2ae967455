package handle

import (
	"encoding/binary"
	"sync"
)

// stringData is the reference-counted immutable byte sequence a string
// handle addresses. Equality and hashing are structural, not by identity
// (spec section 4.2, "String manager hashes by content and uses intrinsic
// equality on inline data").
type stringData struct {
	mu       sync.Mutex
	refCount int32
	bytes    string
}

// StringManager implements Manager for the Language's String type.
type StringManager struct {
	mu      sync.Mutex
	nextUID uint64
	live    map[uint64]*stringData
}

// NewStringManager creates an empty string manager.
func NewStringManager() *StringManager {
	return &StringManager{nextUID: 1, live: make(map[uint64]*stringData)}
}

func (s *StringManager) ID() ManagerID { return ManagerString }

func encodeStringKey(key uint64) [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], key)
	return b
}

func decodeStringKey(h Handle) uint64 {
	return binary.LittleEndian.Uint64(h.data[0:8])
}

// NewHandle allocates a fresh, refcount-1 string handle for the given
// content.
func (s *StringManager) NewHandle(content string, t TypeDescriptor) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.nextUID
	s.nextUID++
	s.live[key] = &stringData{refCount: 1, bytes: content}
	return Handle{Manager: ManagerString, StoredType: t, data: encodeStringKey(key)}
}

func (s *StringManager) ObjectToHandle(objPtr any, t TypeDescriptor) (Handle, error) {
	content, _ := objPtr.(string)
	return s.NewHandle(content, t), nil
}

func (s *StringManager) HandleToObject(h Handle) (any, error) {
	s.mu.Lock()
	sd, ok := s.live[decodeStringKey(h)]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return sd.bytes, nil
}

func (s *StringManager) Allocate(t TypeDescriptor, flags AllocFlags) (Handle, any, error) {
	return s.NewHandle("", t), "", nil
}

func (s *StringManager) AddReference(h Handle) error {
	s.mu.Lock()
	sd, ok := s.live[decodeStringKey(h)]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	sd.mu.Lock()
	sd.refCount++
	sd.mu.Unlock()
	return nil
}

func (s *StringManager) ReleaseReference(h Handle) (bool, error) {
	s.mu.Lock()
	sd, ok := s.live[decodeStringKey(h)]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	sd.mu.Lock()
	sd.refCount--
	shouldDelete := sd.refCount <= 0
	sd.mu.Unlock()
	return shouldDelete, nil
}

func (s *StringManager) Delete(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, decodeStringKey(h))
	return nil
}

func (s *StringManager) CanDelete(h Handle) bool {
	s.mu.Lock()
	_, ok := s.live[decodeStringKey(h)]
	s.mu.Unlock()
	return ok
}

// Hash hashes by content, per spec section 4.2.
func (s *StringManager) Hash(h Handle) uint64 {
	v, _ := s.HandleToObject(h)
	str, _ := v.(string)
	return fnv64a(str)
}

// IsEqual compares by content (structural equality), per spec section 3.4
// "String handle -- ... equality is structural."
func (s *StringManager) IsEqual(a, b Handle) bool {
	av, _ := s.HandleToObject(a)
	bv, _ := s.HandleToObject(b)
	as, aok := av.(string)
	bs, bok := bv.(string)
	return aok && bok && as == bs
}

func (s *StringManager) DeleteAll(sink LeakSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.live {
		delete(s.live, k)
	}
}
