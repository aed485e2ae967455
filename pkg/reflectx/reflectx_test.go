package reflectx

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilchlang/zilch/pkg/anyval"
	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/types"
)

type noopCaller struct{}

func (noopCaller) Call(fn *types.Function, receiver handle.Handle, args []any) (any, error) {
	return nil, nil
}

func TestPropertyForSynthesizesFieldAccessor(t *testing.T) {
	bt := types.NewBoundType("Point", types.ByValue)
	bt.Fields = []types.Field{{Name: "x", Type: types.Real}}
	bt.Finalize()

	prop, ok := PropertyFor(bt, "x")
	require.True(t, ok)
	assert.Equal(t, "x", prop.Name)
	assert.Nil(t, prop.Getter)
}

func TestGetSetValueRoundTripsThroughFieldStorage(t *testing.T) {
	bt := types.NewBoundType("Point", types.ByValue)
	bt.Fields = []types.Field{{Name: "x", Type: types.Real}}
	bt.Finalize()
	prop, ok := PropertyFor(bt, "x")
	require.True(t, ok)

	fields := map[int]any{}
	err := SetValue(noopCaller{}, prop, handle.Handle{}, fields, 0, anyval.PackReal(3.5))
	require.NoError(t, err)

	got, err := GetValue(noopCaller{}, prop, handle.Handle{}, fields, 0)
	require.NoError(t, err)
	v, ok := got.UnpackReal()
	require.True(t, ok)
	assert.Equal(t, 3.5, v)
}

func TestSetValueWidensIntegerToReal(t *testing.T) {
	prop := types.Property{Name: "scale", Type: types.Real}
	fields := map[int]any{}
	err := SetValue(noopCaller{}, prop, handle.Handle{}, fields, 0, anyval.PackInteger(4))
	require.NoError(t, err)
	f, ok := fields[0].(float64)
	require.True(t, ok)
	assert.Equal(t, 4.0, f)
}

func TestSetValueRejectsReadOnly(t *testing.T) {
	prop := types.Property{Name: "id", Type: types.Integer, ReadOnly: true}
	err := SetValue(noopCaller{}, prop, handle.Handle{}, map[int]any{}, 0, anyval.PackInteger(1))
	assert.Error(t, err)
}

type fakeStore struct {
	mu sync.Mutex
	m  map[types.StaticFieldID]any
}

func (s *fakeStore) Get(id types.StaticFieldID) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[id]
	return v, ok
}

func (s *fakeStore) Put(id types.StaticFieldID, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = v
}

func TestStaticFieldAccessRunsInitializerOnce(t *testing.T) {
	store := &fakeStore{m: make(map[types.StaticFieldID]any)}
	access := &StaticFieldAccess{}
	id := types.StaticFieldID{Library: "L", Type: "T", Name: "counter"}

	var calls int
	var mu sync.Mutex
	init := func() (any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return int64(42), nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := access.Get(store, id, init)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	for _, r := range results {
		assert.Equal(t, int64(42), r)
	}
}

func TestStaticFieldAccessPropagatesInitError(t *testing.T) {
	store := &fakeStore{m: make(map[types.StaticFieldID]any)}
	access := &StaticFieldAccess{}
	id := types.StaticFieldID{Library: "L", Type: "T", Name: "broken"}

	_, err := access.Get(store, id, func() (any, error) {
		return nil, fmt.Errorf("init failed")
	})
	assert.Error(t, err)
}
