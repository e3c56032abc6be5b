package leave

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccrualEmployee is the slice of the employee record the accrual and
// rollover batches iterate over.
type AccrualEmployee struct {
	UserID         string
	ContractTypeID string
	HireDate       *time.Time
}

func (s *Store) ListAccrualEmployees(ctx context.Context, companyID string) ([]AccrualEmployee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(contract_type_id::text, ''), hire_date
    FROM users
    WHERE company_id = $1 AND is_active
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []AccrualEmployee
	for rows.Next() {
		var e AccrualEmployee
		if err := rows.Scan(&e.UserID, &e.ContractTypeID, &e.HireDate); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, nil
}

func (s *Store) ContractTypesByID(ctx context.Context, companyID string) (map[string]ContractType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, name, code, COALESCE(description, ''), cp_acquisition_rate, cp_annual_allowance, has_rtt, rtt_annual_allowance, has_exam_leave, exam_leave_days, is_paid_leave, is_active, created_at
    FROM contract_types
    WHERE company_id = $1
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]ContractType{}
	for rows.Next() {
		var ct ContractType
		if err := rows.Scan(&ct.ID, &ct.CompanyID, &ct.Name, &ct.Code, &ct.Description, &ct.CPAcquisitionRate, &ct.CPAnnualAllowance, &ct.HasRTT, &ct.RTTAnnualAllowance, &ct.HasExamLeave, &ct.ExamLeaveDays, &ct.IsPaidLeave, &ct.IsActive, &ct.CreatedAt); err != nil {
			return nil, err
		}
		out[ct.ID] = ct
	}
	return out, nil
}

func (s *Store) GetTypeByCode(ctx context.Context, companyID, code string) (LeaveType, error) {
	var t LeaveType
	if err := s.DB.QueryRow(ctx, `
    SELECT id, company_id, name, code, COALESCE(description, ''), color, default_days, is_paid, requires_justification, max_consecutive_days, is_active, created_at
    FROM leave_types
    WHERE company_id = $1 AND code = $2
  `, companyID, code).Scan(&t.ID, &t.CompanyID, &t.Name, &t.Code, &t.Description, &t.Color, &t.DefaultDays, &t.IsPaid, &t.RequiresJustification, &t.MaxConsecutiveDays, &t.IsActive, &t.CreatedAt); err != nil {
		return LeaveType{}, err
	}
	return t, nil
}

// MarkRolloverTx claims the (user, type, fromYear) rollover. Returns
// false when a previous run already processed the pair, which makes
// re-running the batch safe.
func (s *Store) MarkRolloverTx(ctx context.Context, tx pgx.Tx, userID, leaveTypeID string, fromYear int, carried, lost decimal.Decimal) (bool, error) {
	tag, err := tx.Exec(ctx, `
    INSERT INTO leave_rollover_runs (user_id, leave_type_id, from_year, carried_days, lost_days)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (user_id, leave_type_id, from_year) DO NOTHING
  `, userID, leaveTypeID, fromYear, carried, lost)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
