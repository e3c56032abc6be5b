package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func (s *Store) ListTypes(ctx context.Context, companyID string, includeInactive bool) ([]LeaveType, error) {
	query := `
    SELECT id, company_id, name, code, description, color, default_days, is_paid, requires_justification, max_consecutive_days, is_active, created_at
    FROM leave_types
    WHERE company_id = $1
  `
	if !includeInactive {
		query += " AND is_active"
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Name, &t.Code, &t.Description, &t.Color, &t.DefaultDays, &t.IsPaid, &t.RequiresJustification, &t.MaxConsecutiveDays, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func (s *Store) GetType(ctx context.Context, companyID, typeID string) (LeaveType, error) {
	var t LeaveType
	if err := s.DB.QueryRow(ctx, `
    SELECT id, company_id, name, code, description, color, default_days, is_paid, requires_justification, max_consecutive_days, is_active, created_at
    FROM leave_types
    WHERE company_id = $1 AND id = $2
  `, companyID, typeID).Scan(&t.ID, &t.CompanyID, &t.Name, &t.Code, &t.Description, &t.Color, &t.DefaultDays, &t.IsPaid, &t.RequiresJustification, &t.MaxConsecutiveDays, &t.IsActive, &t.CreatedAt); err != nil {
		return LeaveType{}, err
	}
	return t, nil
}

func (s *Store) CreateType(ctx context.Context, companyID string, payload LeaveType) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (company_id, name, code, description, color, default_days, is_paid, requires_justification, max_consecutive_days, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, companyID, payload.Name, payload.Code, payload.Description, payload.Color, payload.DefaultDays, payload.IsPaid, payload.RequiresJustification, payload.MaxConsecutiveDays, payload.IsActive).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateType(ctx context.Context, companyID string, payload LeaveType) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE leave_types
    SET name = $3, description = $4, color = $5, default_days = $6, is_paid = $7, requires_justification = $8, max_consecutive_days = $9, is_active = $10
    WHERE company_id = $1 AND id = $2
  `, companyID, payload.ID, payload.Name, payload.Description, payload.Color, payload.DefaultDays, payload.IsPaid, payload.RequiresJustification, payload.MaxConsecutiveDays, payload.IsActive)
	return err
}

const settingsColumns = `
    id, company_id, period_type, custom_period_start_day, custom_period_start_month,
    cp_carryover_enabled, cp_carryover_max_days, cp_carryover_deadline_months,
    rtt_carryover_enabled, rtt_carryover_max_days, rtt_carryover_deadline_months,
    allow_negative_balance, max_negative_days, monthly_accrual_rate,
    alert_days_before_expiry, alert_low_balance_threshold, approval_workflow,
    created_at, updated_at`

func scanSettings(row interface{ Scan(...any) error }) (Settings, error) {
	var st Settings
	err := row.Scan(
		&st.ID, &st.CompanyID, &st.PeriodType, &st.CustomPeriodStartDay, &st.CustomPeriodStartMon,
		&st.CPCarryoverEnabled, &st.CPCarryoverMaxDays, &st.CPCarryoverDeadlineMonths,
		&st.RTTCarryoverEnabled, &st.RTTCarryoverMaxDays, &st.RTTCarryoverDeadlineMonths,
		&st.AllowNegativeBalance, &st.MaxNegativeDays, &st.MonthlyAccrualRate,
		&st.AlertDaysBeforeExpiry, &st.AlertLowBalanceThreshold, &st.ApprovalWorkflow,
		&st.CreatedAt, &st.UpdatedAt,
	)
	return st, err
}

func (s *Store) GetSettings(ctx context.Context, companyID string) (Settings, error) {
	return scanSettings(s.DB.QueryRow(ctx,
		"SELECT"+settingsColumns+" FROM company_leave_settings WHERE company_id = $1",
		companyID))
}

// EnsureSettings inserts the default policy for a company if none
// exists. Called at company provisioning, idempotent.
func (s *Store) EnsureSettings(ctx context.Context, st Settings) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO company_leave_settings (
      company_id, period_type, custom_period_start_day, custom_period_start_month,
      cp_carryover_enabled, cp_carryover_max_days, cp_carryover_deadline_months,
      rtt_carryover_enabled, rtt_carryover_max_days, rtt_carryover_deadline_months,
      allow_negative_balance, max_negative_days, monthly_accrual_rate,
      alert_days_before_expiry, alert_low_balance_threshold, approval_workflow
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
    ON CONFLICT (company_id) DO NOTHING
  `, st.CompanyID, st.PeriodType, st.CustomPeriodStartDay, st.CustomPeriodStartMon,
		st.CPCarryoverEnabled, st.CPCarryoverMaxDays, st.CPCarryoverDeadlineMonths,
		st.RTTCarryoverEnabled, st.RTTCarryoverMaxDays, st.RTTCarryoverDeadlineMonths,
		st.AllowNegativeBalance, st.MaxNegativeDays, st.MonthlyAccrualRate,
		st.AlertDaysBeforeExpiry, st.AlertLowBalanceThreshold, st.ApprovalWorkflow)
	return err
}

func (s *Store) UpdateSettings(ctx context.Context, st Settings) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE company_leave_settings
    SET period_type = $2, custom_period_start_day = $3, custom_period_start_month = $4,
        cp_carryover_enabled = $5, cp_carryover_max_days = $6, cp_carryover_deadline_months = $7,
        rtt_carryover_enabled = $8, rtt_carryover_max_days = $9, rtt_carryover_deadline_months = $10,
        allow_negative_balance = $11, max_negative_days = $12, monthly_accrual_rate = $13,
        alert_days_before_expiry = $14, alert_low_balance_threshold = $15, approval_workflow = $16,
        updated_at = now()
    WHERE company_id = $1
  `, st.CompanyID, st.PeriodType, st.CustomPeriodStartDay, st.CustomPeriodStartMon,
		st.CPCarryoverEnabled, st.CPCarryoverMaxDays, st.CPCarryoverDeadlineMonths,
		st.RTTCarryoverEnabled, st.RTTCarryoverMaxDays, st.RTTCarryoverDeadlineMonths,
		st.AllowNegativeBalance, st.MaxNegativeDays, st.MonthlyAccrualRate,
		st.AlertDaysBeforeExpiry, st.AlertLowBalanceThreshold, st.ApprovalWorkflow)
	return err
}

const requestColumns = `
    id, employee_id, leave_type_id, start_date, end_date, start_half_day, end_half_day,
    days, reason, status, rejection_reason, manager_id, manager_decision_date,
    hr_id, hr_decision_date, auto_approved, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (Request, error) {
	var r Request
	var reason, rejection, managerID, hrID *string
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.LeaveTypeID, &r.StartDate, &r.EndDate, &r.StartHalfDay, &r.EndHalfDay,
		&r.Days, &reason, &r.Status, &rejection, &managerID, &r.ManagerDecisionDate,
		&hrID, &r.HRDecisionDate, &r.AutoApproved, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return Request{}, err
	}
	if reason != nil {
		r.Reason = *reason
	}
	if rejection != nil {
		r.RejectionReason = *rejection
	}
	if managerID != nil {
		r.ManagerID = *managerID
	}
	if hrID != nil {
		r.HRID = *hrID
	}
	return r, nil
}

type RequestFilter struct {
	EmployeeID string
	ManagerID  string // restrict to direct reports of this user
	Status     Status
	Limit      int
	Offset     int
}

type RequestListResult struct {
	Requests []Request
	Total    int
}

func (s *Store) ListRequests(ctx context.Context, companyID string, f RequestFilter) (RequestListResult, error) {
	where := " WHERE r.employee_id IN (SELECT id FROM users WHERE company_id = $1)"
	args := []any{companyID}

	if f.EmployeeID != "" {
		args = append(args, f.EmployeeID)
		where += fmt.Sprintf(" AND r.employee_id = $%d", len(args))
	}
	if f.ManagerID != "" {
		args = append(args, f.ManagerID)
		where += fmt.Sprintf(" AND r.employee_id IN (SELECT id FROM users WHERE company_id = $1 AND manager_id = $%d)", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND r.status = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests r"+where, args...).Scan(&total); err != nil {
		return RequestListResult{}, err
	}

	query := "SELECT" + requestColumns + " FROM leave_requests r" + where + " ORDER BY r.created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return RequestListResult{}, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return RequestListResult{}, err
		}
		requests = append(requests, r)
	}
	return RequestListResult{Requests: requests, Total: total}, nil
}

func (s *Store) GetRequest(ctx context.Context, companyID, requestID string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `
    SELECT`+requestColumns+`
    FROM leave_requests r
    WHERE r.id = $2 AND r.employee_id IN (SELECT id FROM users WHERE company_id = $1)
  `, companyID, requestID))
}

// EmployeeInfo is the slice of the employee record the engine needs for
// request decisions.
type EmployeeInfo struct {
	ID             string
	CompanyID      string
	TeamID         string
	RoleID         string
	ManagerID      string
	ContractTypeID string
	HireDate       *time.Time
	IsActive       bool
}

func (s *Store) GetEmployeeInfo(ctx context.Context, companyID, userID string) (EmployeeInfo, error) {
	var e EmployeeInfo
	var teamID, managerID, contractTypeID *string
	if err := s.DB.QueryRow(ctx, `
    SELECT id, company_id, team_id, role_id, manager_id, contract_type_id, hire_date, is_active
    FROM users
    WHERE company_id = $1 AND id = $2
  `, companyID, userID).Scan(&e.ID, &e.CompanyID, &teamID, &e.RoleID, &managerID, &contractTypeID, &e.HireDate, &e.IsActive); err != nil {
		return EmployeeInfo{}, err
	}
	if teamID != nil {
		e.TeamID = *teamID
	}
	if managerID != nil {
		e.ManagerID = *managerID
	}
	if contractTypeID != nil {
		e.ContractTypeID = *contractTypeID
	}
	return e, nil
}

func (s *Store) HRUserIDs(ctx context.Context, companyID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.company_id = $1 AND r.name IN ('hr', 'admin') AND u.is_active
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// OverlappingRequests returns the employee's pending or approved
// requests intersecting the given range, for double-booking checks.
func (s *Store) OverlappingRequests(ctx context.Context, employeeID string, start, end time.Time) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+requestColumns+`
    FROM leave_requests r
    WHERE r.employee_id = $1
      AND r.status IN ($2,$3,$4)
      AND r.start_date <= $6 AND r.end_date >= $5
  `, employeeID, StatusPendingManager, StatusPendingHR, StatusApproved, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

type CalendarEntry struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName"`
	TeamID        string          `json:"teamId,omitempty"`
	LeaveTypeID   string          `json:"leaveTypeId"`
	LeaveTypeName string          `json:"leaveTypeName"`
	Color         string          `json:"color"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	Status        Status          `json:"status"`
	Days          decimal.Decimal `json:"days"`
}

func (s *Store) CalendarEntries(ctx context.Context, companyID string, from, to time.Time, teamID string) ([]CalendarEntry, error) {
	query := `
    SELECT r.id, r.employee_id, u.first_name || ' ' || u.last_name, COALESCE(u.team_id::text, ''), r.leave_type_id, lt.name, lt.color, r.start_date, r.end_date, r.status, r.days
    FROM leave_requests r
    JOIN users u ON r.employee_id = u.id
    JOIN leave_types lt ON r.leave_type_id = lt.id
    WHERE u.company_id = $1
      AND r.status IN ($2,$3,$4)
      AND r.start_date <= $6 AND r.end_date >= $5
  `
	args := []any{companyID, StatusPendingManager, StatusPendingHR, StatusApproved, from, to}
	if teamID != "" {
		args = append(args, teamID)
		query += fmt.Sprintf(" AND u.team_id = $%d", len(args))
	}
	query += " ORDER BY r.start_date"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalendarEntry
	for rows.Next() {
		var e CalendarEntry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.EmployeeName, &e.TeamID, &e.LeaveTypeID, &e.LeaveTypeName, &e.Color, &e.StartDate, &e.EndDate, &e.Status, &e.Days); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
