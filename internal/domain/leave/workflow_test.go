package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitManagerApprove(t *testing.T) {
	tr, err := Transit(StatusPendingManager, EventManagerApprove, WorkflowManagerThenHR)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingHR, tr.To)
	assert.Equal(t, EffectNone, tr.Effect)

	tr, err = Transit(StatusPendingManager, EventManagerApprove, WorkflowManagerOnly)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, tr.To)
	assert.Equal(t, EffectConsume, tr.Effect)

	tr, err = Transit(StatusPendingManager, EventManagerApprove, WorkflowManagerOrHR)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, tr.To)
}

func TestTransitManagerApproveInvalid(t *testing.T) {
	_, err := Transit(StatusPendingHR, EventManagerApprove, WorkflowManagerThenHR)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = Transit(StatusPendingManager, EventManagerApprove, WorkflowHROnly)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = Transit(StatusApproved, EventManagerApprove, WorkflowManagerOnly)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTransitHRApprove(t *testing.T) {
	for _, from := range []Status{StatusPendingManager, StatusPendingHR} {
		tr, err := Transit(from, EventHRApprove, WorkflowManagerThenHR)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, tr.To)
		assert.Equal(t, EffectConsume, tr.Effect)
	}

	_, err := Transit(StatusRejected, EventHRApprove, WorkflowManagerThenHR)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTransitReject(t *testing.T) {
	tr, err := Transit(StatusPendingHR, EventReject, WorkflowManagerThenHR)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, tr.To)
	assert.Equal(t, EffectRelease, tr.Effect)

	_, err = Transit(StatusCancelled, EventReject, WorkflowManagerThenHR)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTransitCancel(t *testing.T) {
	tr, err := Transit(StatusPendingManager, EventCancel, WorkflowManagerThenHR)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, tr.To)
	assert.Equal(t, EffectRelease, tr.Effect)

	tr, err = Transit(StatusApproved, EventCancel, WorkflowManagerThenHR)
	require.NoError(t, err)
	assert.Equal(t, EffectRestore, tr.Effect)

	_, err = Transit(StatusRejected, EventCancel, WorkflowManagerThenHR)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCanCancel(t *testing.T) {
	today := date(2025, time.June, 10)

	r := Request{Status: StatusPendingManager}
	assert.True(t, r.CanCancel(today))

	r = Request{Status: StatusApproved, StartDate: date(2025, time.June, 11)}
	assert.True(t, r.CanCancel(today))

	// Leave that already started stays on the books.
	r = Request{Status: StatusApproved, StartDate: today}
	assert.False(t, r.CanCancel(today))

	r = Request{Status: StatusRejected}
	assert.False(t, r.CanCancel(today))
}

func TestWorkflowInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPendingHR, WorkflowHROnly.InitialStatus())
	assert.Equal(t, StatusPendingManager, WorkflowManagerThenHR.InitialStatus())
	assert.Equal(t, StatusPendingManager, WorkflowManagerOrHR.InitialStatus())
}
