package leave

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.DB.Begin(ctx)
}

func (s *Store) CreateRequestTx(ctx context.Context, tx pgx.Tx, r Request) (string, error) {
	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type_id, start_date, end_date, start_half_day, end_half_day, days, reason, status, auto_approved)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, r.EmployeeID, r.LeaveTypeID, r.StartDate, r.EndDate, r.StartHalfDay, r.EndHalfDay, r.Days, r.Reason, r.Status, r.AutoApproved).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// DecisionStamp carries the actor metadata written alongside a status
// change.
type DecisionStamp struct {
	ManagerID       string
	HRID            string
	RejectionReason string
	At              time.Time
}

// UpdateRequestStatusTx moves the request from one status to another
// only if it is still in the expected status. Returns false when a
// concurrent transition got there first.
func (s *Store) UpdateRequestStatusTx(ctx context.Context, tx pgx.Tx, requestID string, from, to Status, stamp DecisionStamp) (bool, error) {
	tag, err := tx.Exec(ctx, `
    UPDATE leave_requests
    SET status = $3,
        manager_id = COALESCE(NULLIF($4,'')::uuid, manager_id),
        manager_decision_date = CASE WHEN $4 <> '' THEN $6 ELSE manager_decision_date END,
        hr_id = COALESCE(NULLIF($5,'')::uuid, hr_id),
        hr_decision_date = CASE WHEN $5 <> '' THEN $6 ELSE hr_decision_date END,
        rejection_reason = NULLIF($7,''),
        updated_at = now()
    WHERE id = $1 AND status = $2
  `, requestID, from, to, stamp.ManagerID, stamp.HRID, stamp.At, stamp.RejectionReason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) GetRequestTx(ctx context.Context, tx pgx.Tx, requestID string) (Request, error) {
	return scanRequest(tx.QueryRow(ctx,
		"SELECT"+requestColumns+" FROM leave_requests r WHERE r.id = $1 FOR UPDATE", requestID))
}
