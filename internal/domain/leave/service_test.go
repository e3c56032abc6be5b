package leave

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fakeStore) GetType(_ context.Context, _ string, typeID string) (LeaveType, error) {
	for _, lt := range f.types {
		if lt.ID == typeID {
			return lt, nil
		}
	}
	return LeaveType{}, pgx.ErrNoRows
}

func (f *fakeStore) GetEmployeeInfo(_ context.Context, _ string, userID string) (EmployeeInfo, error) {
	info, ok := f.details[userID]
	if !ok {
		return EmployeeInfo{}, pgx.ErrNoRows
	}
	return info, nil
}

func (f *fakeStore) GetRequest(_ context.Context, _ string, requestID string) (Request, error) {
	r, ok := f.requests[requestID]
	if !ok {
		return Request{}, pgx.ErrNoRows
	}
	return *r, nil
}

func (f *fakeStore) OverlappingRequests(_ context.Context, employeeID string, start, end time.Time) ([]Request, error) {
	var out []Request
	for _, r := range f.requests {
		if r.EmployeeID != employeeID {
			continue
		}
		if r.Status != StatusPendingManager && r.Status != StatusPendingHR && r.Status != StatusApproved {
			continue
		}
		if !r.StartDate.After(end) && !r.EndDate.Before(start) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListBlockedPeriods(context.Context, string) ([]BlockedPeriod, error) {
	return f.blocked, nil
}

func (f *fakeStore) ListAutoApprovalRules(context.Context, string) ([]AutoApprovalRule, error) {
	return f.rules, nil
}

func (f *fakeStore) HRUserIDs(context.Context, string) ([]string, error) {
	return f.hrIDs, nil
}

func (f *fakeStore) CreateRequestTx(_ context.Context, _ pgx.Tx, r Request) (string, error) {
	f.nextID++
	r.ID = fmt.Sprintf("req-%d", f.nextID)
	f.requests[r.ID] = &r
	return r.ID, nil
}

func (f *fakeStore) UpdateRequestStatusTx(_ context.Context, _ pgx.Tx, requestID string, from, to Status, stamp DecisionStamp) (bool, error) {
	r, ok := f.requests[requestID]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.RejectionReason = stamp.RejectionReason
	if stamp.ManagerID != "" {
		r.ManagerID = stamp.ManagerID
	}
	if stamp.HRID != "" {
		r.HRID = stamp.HRID
	}
	return true, nil
}

func seedCurrentBalance(f *fakeStore, typeID, initial string) *Balance {
	key := balanceKey("u-1", typeID, 2025)
	f.balances[key] = &Balance{
		ID: key, UserID: "u-1", LeaveTypeID: typeID, Year: 2025,
		InitialBalance: d(initial),
	}
	return f.balances[key]
}

// Three business days, filed two weeks ahead of a June reference date.
func fileThreeDays(t *testing.T, f *fakeStore) CreateRequestResult {
	t.Helper()
	result, err := fileRequest(context.Background(), f, "co-1", CreateRequestInput{
		EmployeeID:  "u-1",
		LeaveTypeID: "lt-cp",
		StartDate:   date(2025, time.June, 16),
		EndDate:     date(2025, time.June, 18),
	}, date(2025, time.June, 2))
	require.NoError(t, err)
	return result
}

func TestRequestLifecycleManagerThenHR(t *testing.T) {
	f := newFakeStore()
	seedCurrentBalance(f, "lt-cp", "20")
	now := date(2025, time.June, 2)

	created := fileThreeDays(t, f)
	assert.Equal(t, StatusPendingManager, created.Status)
	assert.True(t, created.Days.Equal(d("3")))
	assert.Equal(t, "mgr-1", created.ManagerUserID)

	// Filing reserves the days without consuming them.
	b, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, b.Pending.Equal(d("3")), "got pending %s", b.Pending)
	assert.True(t, b.Used.IsZero())
	assert.True(t, b.Available(now).Equal(d("17")))

	// Manager sign-off forwards to HR and leaves the ledger alone.
	mgr, err := applyTransition(context.Background(), f, "co-1", created.ID, EventManagerApprove, Actor{UserID: "mgr-1", RoleName: "manager"}, "", now)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingHR, mgr.Status)
	assert.Equal(t, StatusPendingManager, mgr.PreviousStatus)
	assert.Equal(t, []string{"hr-1"}, mgr.HRUserIDs)

	b, _ = f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, b.Pending.Equal(d("3")))
	assert.True(t, b.Used.IsZero())

	// HR approval converts the reservation into consumption.
	hr, err := applyTransition(context.Background(), f, "co-1", created.ID, EventHRApprove, Actor{UserID: "hr-1", RoleName: "hr"}, "", now)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, hr.Status)

	b, _ = f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, b.Pending.IsZero(), "got pending %s", b.Pending)
	assert.True(t, b.Used.Equal(d("3")), "got used %s", b.Used)
	assert.True(t, b.Available(now).Equal(d("17")))

	// A second approval finds the request already moved on.
	_, err = applyTransition(context.Background(), f, "co-1", created.ID, EventHRApprove, Actor{UserID: "hr-1", RoleName: "hr"}, "", now)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRejectReleasesReservationWithoutReason(t *testing.T) {
	f := newFakeStore()
	seedCurrentBalance(f, "lt-cp", "20")
	now := date(2025, time.June, 2)

	created := fileThreeDays(t, f)

	// A reason is optional on rejection.
	result, err := applyTransition(context.Background(), f, "co-1", created.ID, EventReject, Actor{UserID: "mgr-1", RoleName: "manager"}, "", now)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, result.Status)

	b, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, b.Pending.IsZero())
	assert.True(t, b.Used.IsZero())
	assert.True(t, b.Available(now).Equal(d("20")))

	req, _ := f.GetRequest(context.Background(), "co-1", created.ID)
	assert.Empty(t, req.RejectionReason)
}

func TestCancelApprovedRestoresBalance(t *testing.T) {
	f := newFakeStore()
	f.settings.ApprovalWorkflow = WorkflowManagerOnly
	seedCurrentBalance(f, "lt-cp", "20")
	now := date(2025, time.June, 2)

	created := fileThreeDays(t, f)
	_, err := applyTransition(context.Background(), f, "co-1", created.ID, EventManagerApprove, Actor{UserID: "mgr-1", RoleName: "manager"}, "", now)
	require.NoError(t, err)

	b, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, b.Used.Equal(d("3")))

	result, err := applyTransition(context.Background(), f, "co-1", created.ID, EventCancel, Actor{UserID: "u-1"}, "", now)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, result.Status)

	b, _ = f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, b.Used.IsZero())
	assert.True(t, b.Pending.IsZero())
	assert.True(t, b.Available(now).Equal(d("20")))
}

func TestFileRequestInsufficientBalance(t *testing.T) {
	f := newFakeStore()
	seedCurrentBalance(f, "lt-cp", "1")

	_, err := fileRequest(context.Background(), f, "co-1", CreateRequestInput{
		EmployeeID:  "u-1",
		LeaveTypeID: "lt-cp",
		StartDate:   date(2025, time.June, 16),
		EndDate:     date(2025, time.June, 18),
	}, date(2025, time.June, 2))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Nothing was reserved and no request row exists.
	b, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, b.Pending.IsZero())
	assert.Empty(t, f.requests)
}

func TestFileRequestAutoApprovedConsumesImmediately(t *testing.T) {
	f := newFakeStore()
	seedCurrentBalance(f, "lt-cp", "20")
	maxDays := d("5")
	f.rules = []AutoApprovalRule{
		{ID: "rule-1", Name: "Short CP", LeaveTypeID: "lt-cp", MaxDays: &maxDays, IsActive: true},
	}

	created := fileThreeDays(t, f)
	assert.True(t, created.AutoApproved)
	assert.Equal(t, StatusApproved, created.Status)

	b, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, b.Pending.IsZero())
	assert.True(t, b.Used.Equal(d("3")))
}
