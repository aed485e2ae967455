package vm

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutableStateAssignsUniqueID(t *testing.T) {
	a := newTestState(t)
	b := newTestState(t)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

// TestChargeDispatchThrowsMessageMentioningConfiguredSeconds exercises
// end-to-end scenario 3: a timeout(1) { ... } scope that never yields
// throws an exception whose message mentions "1 second", not a generic
// "timeout exceeded".
func TestChargeDispatchThrowsMessageMentioningConfiguredSeconds(t *testing.T) {
	es := newTestState(t)
	es.PushTimeout(1)

	var err error
	// Remaining starts at 1*dispatchChargeInterval and decrements by one
	// every dispatchChargeInterval dispatches, so exhausting it takes
	// dispatchChargeInterval^2 total dispatches.
	for i := 0; i < dispatchChargeInterval*dispatchChargeInterval; i++ {
		if err = es.chargeDispatch(); err != nil {
			break
		}
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 second")
}

func TestChargeDispatchPluralizesMultipleSeconds(t *testing.T) {
	es := newTestState(t)
	es.PushTimeout(3)

	var err error
	for i := 0; i < 3*dispatchChargeInterval*dispatchChargeInterval; i++ {
		if err = es.chargeDispatch(); err != nil {
			break
		}
	}
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "3 seconds"))
}
