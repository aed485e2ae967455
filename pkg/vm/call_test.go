package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilchlang/zilch/pkg/handle"
	"github.com/zilchlang/zilch/pkg/opcode"
	"github.com/zilchlang/zilch/pkg/types"
)

// counterType builds a tiny BoundType with one Integer field and a
// "Bump" method that increments it and returns the new value -- enough
// surface to exercise createInstance, field read/write, and dynamic
// dispatch by selector without going through the compiler.
func counterType(t *testing.T) *types.BoundType {
	t.Helper()
	bt := types.NewBoundType("Counter", types.ByReference)
	bt.Fields = []types.Field{{Name: "value", Type: types.PrimitiveType{Kind: types.KindInteger}}}
	bt.Finalize()

	// Bump(self) { self.value = self.value + 1; return self.value }
	// slot 0: return, slot 1: this
	bump := &types.Function{
		Name:      "Bump",
		FrameSize: 2,
		Code: []opcode.Instruction{
			{Op: opcode.OpAdd,
				A:   opcode.Operand{Kind: opcode.Field, ConstOrLocal: 1, FieldOffset: 0},
				B:   opcode.Operand{Kind: opcode.Constant, ConstOrLocal: 0},
				Dst: opcode.Operand{Kind: opcode.Field, ConstOrLocal: 1, FieldOffset: 0}},
			{Op: opcode.OpCopy,
				A:   opcode.Operand{Kind: opcode.Field, ConstOrLocal: 1, FieldOffset: 0},
				Dst: opcode.Operand{Kind: opcode.Local, ConstOrLocal: 0}},
			{Op: opcode.OpReturn},
		},
		Constants: &opcode.ConstantPool{Values: []any{int64(1)}},
	}
	bt.AddFunction(bump)
	return bt
}

func libraryWith(t *testing.T, bt *types.BoundType) types.Module {
	t.Helper()
	lib := types.NewLibrary("Test")
	require.NoError(t, lib.AddType(bt))
	mod, err := types.BuildModule(lib)
	require.NoError(t, err)
	return mod
}

func TestCreateInstanceAndFieldRoundTrip(t *testing.T) {
	bt := counterType(t)
	es := NewExecutableState(libraryWith(t, bt), nil)

	h, err := es.createInstance(bt, "")
	require.NoError(t, err)
	assert.False(t, h.IsNull())

	fields, err := es.fieldStorage(h)
	require.NoError(t, err)
	fields[0] = int64(41)

	result, err := Call(es, bt.Functions["Bump"][0], h, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), result)
}

func TestDynamicDispatchResolvesBySelectorAndArity(t *testing.T) {
	bt := counterType(t)
	es := NewExecutableState(libraryWith(t, bt), nil)

	h, err := es.createInstance(bt, "")
	require.NoError(t, err)

	result, err := es.dispatchDynamic(h, "Bump", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result)

	result, err = es.dispatchDynamic(h, "Bump", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result)
}

func TestDeletedInstanceDereferencesToNull(t *testing.T) {
	bt := counterType(t)
	es := NewExecutableState(libraryWith(t, bt), nil)

	h, err := es.createInstance(bt, "")
	require.NoError(t, err)

	require.NoError(t, es.deleteInstance(h))

	obj, err := es.Managers.Dereference(h)
	require.NoError(t, err)
	assert.Nil(t, obj)
}

// recordingLeakSink collects every ReportLeak call for assertion.
type recordingLeakSink struct {
	typeNames []string
	sites     []string
}

func (s *recordingLeakSink) ReportLeak(typeName string, allocationSite string) {
	s.typeNames = append(s.typeNames, typeName)
	s.sites = append(s.sites, allocationSite)
}

// TestShutdownReportsUnreleasedInstanceAsLeak exercises spec section 3.4's
// state-shutdown leak report (end-to-end scenario 6): allocate an instance,
// never release its handle, and confirm Shutdown reports exactly one leak
// carrying the type name and the allocation site createInstance recorded.
func TestShutdownReportsUnreleasedInstanceAsLeak(t *testing.T) {
	bt := counterType(t)
	es := NewExecutableState(libraryWith(t, bt), nil)

	_, err := es.createInstance(bt, "Main:12:5")
	require.NoError(t, err)

	sink := &recordingLeakSink{}
	es.Shutdown(sink)

	require.Len(t, sink.typeNames, 1)
	assert.Equal(t, "Counter", sink.typeNames[0])
	assert.Equal(t, "Main:12:5", sink.sites[0])
}

// TestShutdownReportsLeakEvenWithoutRecordedSite guards against
// HeapManager.DeleteAll silently dropping live objects whose allocation
// site was never recorded (the bug: iterating allocLoc instead of live).
func TestShutdownReportsLeakEvenWithoutRecordedSite(t *testing.T) {
	bt := counterType(t)
	es := NewExecutableState(libraryWith(t, bt), nil)

	_, err := es.createInstance(bt, "")
	require.NoError(t, err)

	sink := &recordingLeakSink{}
	es.Shutdown(sink)

	require.Len(t, sink.typeNames, 1)
	assert.Equal(t, "Counter", sink.typeNames[0])
	assert.NotEmpty(t, sink.sites[0])
}

func TestPatchFunctionRejectedWhileFramesActive(t *testing.T) {
	bt := counterType(t)
	es := NewExecutableState(libraryWith(t, bt), nil)
	es.frames = append(es.frames, &PerFrameData{})
	err := es.PatchFunction(bt.Functions["Bump"][0], &types.Function{})
	assert.Error(t, err)
}

func TestNativeFunctionInvokedWithReceiverPrepended(t *testing.T) {
	bt := types.NewBoundType("Echo", types.ByReference)
	var gotArgs []any
	bt.AddFunction(&types.Function{
		Name: "Shout",
		Native: func(_ any, args []any) (any, error) {
			gotArgs = args
			return "ok", nil
		},
	})
	es := NewExecutableState(libraryWith(t, bt), nil)
	h, err := es.createInstance(bt, "")
	require.NoError(t, err)

	result, err := Call(es, bt.Functions["Shout"][0], h, []any{"hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	require.Len(t, gotArgs, 2)
	assert.Equal(t, h, gotArgs[0])
	assert.Equal(t, "hi", gotArgs[1])
}
