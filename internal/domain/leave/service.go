package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Recorder receives audit events for ledger-affecting operations.
// Satisfied by audit.Service; nil disables auditing.
type Recorder interface {
	Record(ctx context.Context, companyID, actorID, action, entity, entityID string, details map[string]any)
}

type Service struct {
	Store *Store
	Audit Recorder
}

func NewService(store *Store, rec Recorder) *Service {
	return &Service{Store: store, Audit: rec}
}

func (s *Service) record(ctx context.Context, companyID, actorID, action, entity, entityID string, details map[string]any) {
	if s.Audit != nil {
		s.Audit.Record(ctx, companyID, actorID, action, entity, entityID, details)
	}
}

// Actor is whoever drives a workflow transition.
type Actor struct {
	UserID   string
	RoleName string
}

type CreateRequestInput struct {
	EmployeeID   string
	LeaveTypeID  string
	StartDate    time.Time
	EndDate      time.Time
	StartHalfDay bool
	EndHalfDay   bool
	Reason       string
}

type CreateRequestResult struct {
	ID            string          `json:"id"`
	Status        Status          `json:"status"`
	Days          decimal.Decimal `json:"days"`
	AutoApproved  bool            `json:"autoApproved"`
	Warnings      []string        `json:"warnings,omitempty"`
	ManagerUserID string          `json:"-"`
	HRUserIDs     []string        `json:"-"`
	LeaveTypeName string          `json:"-"`
}

// CreateRequest validates and files a leave request, reserving the days
// on the employee's balance. When an auto-approval rule matches, the
// request is approved in the same transaction.
func (s *Service) CreateRequest(ctx context.Context, companyID string, in CreateRequestInput, now time.Time) (CreateRequestResult, error) {
	result, err := fileRequest(ctx, s.Store, companyID, in, now)
	if err != nil {
		return result, err
	}
	s.record(ctx, companyID, in.EmployeeID, "leave_request.create", "leave_request", result.ID, map[string]any{
		"days": result.Days.String(), "status": string(result.Status), "autoApproved": result.AutoApproved,
	})
	return result, nil
}

func fileRequest(ctx context.Context, store WorkflowStore, companyID string, in CreateRequestInput, now time.Time) (CreateRequestResult, error) {
	var result CreateRequestResult
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if in.EndDate.Before(in.StartDate) {
		return result, ErrInvalidDateRange
	}
	if in.StartDate.Before(today) {
		return result, ErrStartDateInPast
	}

	settings, err := store.GetSettings(ctx, companyID)
	if err != nil {
		return result, fmt.Errorf("load settings: %w", err)
	}
	lt, err := store.GetType(ctx, companyID, in.LeaveTypeID)
	if err != nil {
		return result, fmt.Errorf("load leave type: %w", err)
	}
	emp, err := store.GetEmployeeInfo(ctx, companyID, in.EmployeeID)
	if err != nil {
		return result, fmt.Errorf("load employee: %w", err)
	}

	days := CountRequestDays(in.StartDate, in.EndDate, in.StartHalfDay, in.EndHalfDay)
	if !days.IsPositive() {
		return result, ErrInvalidDateRange
	}
	result.Days = days

	if lt.RequiresJustification && in.Reason == "" {
		return result, ErrJustificationNeeded
	}
	if lt.MaxConsecutiveDays > 0 && days.GreaterThan(decimal.NewFromInt(int64(lt.MaxConsecutiveDays))) {
		return result, ErrMaxConsecutiveDays
	}

	overlapping, err := store.OverlappingRequests(ctx, in.EmployeeID, in.StartDate, in.EndDate)
	if err != nil {
		return result, err
	}
	if len(overlapping) > 0 {
		return result, fmt.Errorf("overlaps an existing request: %w", ErrInvalidDateRange)
	}

	blocked, err := store.ListBlockedPeriods(ctx, companyID)
	if err != nil {
		return result, err
	}
	chk := CheckBlockedPeriods(blocked, in.StartDate, in.EndDate, emp.TeamID, in.LeaveTypeID)
	if chk.Blocked {
		return result, fmt.Errorf("%s: %w", chk.Matched.Name, ErrBlockedPeriod)
	}
	result.Warnings = chk.Warnings

	year := settings.CurrentPeriodYear(in.StartDate)

	status := settings.ApprovalWorkflow.InitialStatus()
	autoApproved := false
	rules, err := store.ListAutoApprovalRules(ctx, companyID)
	if err != nil {
		return result, err
	}
	if rule := MatchAutoApproval(rules, RuleSubject{
		LeaveTypeID: in.LeaveTypeID,
		Days:        days,
		StartDate:   in.StartDate,
		RoleID:      emp.RoleID,
		TeamID:      emp.TeamID,
	}, today); rule != nil {
		status = StatusApproved
		autoApproved = true
	}

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return result, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balance Balance
	if lt.TracksBalance() {
		if err := store.EnsureBalanceTx(ctx, tx, in.EmployeeID, in.LeaveTypeID, year); err != nil {
			return result, err
		}
		balance, err = store.GetBalanceForUpdateTx(ctx, tx, in.EmployeeID, in.LeaveTypeID, year)
		if err != nil {
			return result, err
		}

		floor := decimal.Zero
		if settings.AllowNegativeBalance {
			floor = settings.MaxNegativeDays.Neg()
		}
		if balance.Available(today).Sub(days).LessThan(floor) {
			return result, ErrInsufficientBalance
		}

		if autoApproved {
			balance.UseDays(days, today)
		} else {
			balance.Pending = balance.Pending.Add(days)
		}
		if err := store.SaveBalanceTx(ctx, tx, balance); err != nil {
			return result, err
		}
	}

	id, err := store.CreateRequestTx(ctx, tx, Request{
		EmployeeID:   in.EmployeeID,
		LeaveTypeID:  in.LeaveTypeID,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		StartHalfDay: in.StartHalfDay,
		EndHalfDay:   in.EndHalfDay,
		Days:         days,
		Reason:       in.Reason,
		Status:       status,
		AutoApproved: autoApproved,
	})
	if err != nil {
		return result, err
	}
	if err := tx.Commit(ctx); err != nil {
		return result, err
	}

	result.ID = id
	result.Status = status
	result.AutoApproved = autoApproved
	result.LeaveTypeName = lt.Name
	result.ManagerUserID = emp.ManagerID
	if settings.ApprovalWorkflow == WorkflowHROnly || settings.ApprovalWorkflow == WorkflowManagerOrHR {
		if ids, err := store.HRUserIDs(ctx, companyID); err == nil {
			result.HRUserIDs = ids
		}
	}

	return result, nil
}

// TransitionResult is what a status change hands back for notification
// dispatch.
type TransitionResult struct {
	RequestID      string   `json:"requestId"`
	Status         Status   `json:"status"`
	PreviousStatus Status   `json:"-"`
	EmployeeID     string   `json:"-"`
	ManagerUserID  string   `json:"-"`
	HRUserIDs      []string `json:"-"`
	LeaveTypeName  string   `json:"-"`
}

// Approve applies a manager or HR approval, picked from the actor's
// role.
func (s *Service) Approve(ctx context.Context, companyID, requestID string, actor Actor, now time.Time) (TransitionResult, error) {
	event := EventManagerApprove
	if actor.RoleName == "hr" || actor.RoleName == "admin" {
		event = EventHRApprove
	}
	return s.transition(ctx, companyID, requestID, event, actor, "", now)
}

func (s *Service) Reject(ctx context.Context, companyID, requestID string, actor Actor, reason string, now time.Time) (TransitionResult, error) {
	return s.transition(ctx, companyID, requestID, EventReject, actor, reason, now)
}

// Cancel withdraws the employee's own request. Approved leave can only
// be cancelled before its start date.
func (s *Service) Cancel(ctx context.Context, companyID, requestID, actorUserID string, now time.Time) (TransitionResult, error) {
	req, err := s.Store.GetRequest(ctx, companyID, requestID)
	if err != nil {
		return TransitionResult{}, err
	}
	if req.EmployeeID != actorUserID {
		return TransitionResult{}, ErrForbidden
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.Status == StatusApproved && !req.CanCancel(today) {
		return TransitionResult{}, ErrCancelWindowClosed
	}
	return s.transition(ctx, companyID, requestID, EventCancel, Actor{UserID: actorUserID}, "", now)
}

func (s *Service) transition(ctx context.Context, companyID, requestID string, event Event, actor Actor, reason string, now time.Time) (TransitionResult, error) {
	result, err := applyTransition(ctx, s.Store, companyID, requestID, event, actor, reason, now)
	if err != nil {
		return result, err
	}
	s.record(ctx, companyID, actor.UserID, "leave_request."+string(event), "leave_request", requestID, map[string]any{
		"from": string(result.PreviousStatus), "to": string(result.Status),
	})
	return result, nil
}

// applyTransition runs the full locked sequence: read the request,
// decide the move, lock the balance row, flip the status with a
// compare-and-swap, apply the ledger effect, commit. Two concurrent
// approvers serialize on the balance lock; the loser's conditional
// update matches zero rows and surfaces ErrInvalidState.
func applyTransition(ctx context.Context, store WorkflowStore, companyID, requestID string, event Event, actor Actor, reason string, now time.Time) (TransitionResult, error) {
	var result TransitionResult

	settings, err := store.GetSettings(ctx, companyID)
	if err != nil {
		return result, err
	}
	req, err := store.GetRequest(ctx, companyID, requestID)
	if err != nil {
		return result, err
	}
	lt, err := store.GetType(ctx, companyID, req.LeaveTypeID)
	if err != nil {
		return result, err
	}
	emp, err := store.GetEmployeeInfo(ctx, companyID, req.EmployeeID)
	if err != nil {
		return result, err
	}

	if event == EventManagerApprove || event == EventReject {
		if actor.RoleName == "manager" && emp.ManagerID != actor.UserID {
			return result, ErrForbidden
		}
	}

	tr, err := Transit(req.Status, event, settings.ApprovalWorkflow)
	if err != nil {
		return result, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	year := settings.CurrentPeriodYear(req.StartDate)

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return result, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if lt.TracksBalance() && tr.Effect != EffectNone {
		if err := store.EnsureBalanceTx(ctx, tx, req.EmployeeID, req.LeaveTypeID, year); err != nil {
			return result, err
		}
		balance, err := store.GetBalanceForUpdateTx(ctx, tx, req.EmployeeID, req.LeaveTypeID, year)
		if err != nil {
			return result, err
		}

		switch tr.Effect {
		case EffectConsume:
			balance.Pending = balance.Pending.Sub(req.Days)
			balance.UseDays(req.Days, today)
		case EffectRelease:
			balance.Pending = balance.Pending.Sub(req.Days)
		case EffectRestore:
			balance.Restore(req.Days)
		}
		if balance.Pending.IsNegative() {
			balance.Pending = decimal.Zero
		}
		if err := store.SaveBalanceTx(ctx, tx, balance); err != nil {
			return result, err
		}
	}

	stamp := DecisionStamp{At: now, RejectionReason: reason}
	switch event {
	case EventManagerApprove:
		stamp.ManagerID = actor.UserID
	case EventHRApprove:
		stamp.HRID = actor.UserID
	case EventReject:
		if actor.RoleName == "hr" || actor.RoleName == "admin" {
			stamp.HRID = actor.UserID
		} else {
			stamp.ManagerID = actor.UserID
		}
	}

	ok, err := store.UpdateRequestStatusTx(ctx, tx, requestID, req.Status, tr.To, stamp)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, fmt.Errorf("request %s changed concurrently: %w", requestID, ErrInvalidState)
	}
	if err := tx.Commit(ctx); err != nil {
		return result, err
	}

	result.RequestID = requestID
	result.Status = tr.To
	result.PreviousStatus = req.Status
	result.EmployeeID = req.EmployeeID
	result.ManagerUserID = emp.ManagerID
	result.LeaveTypeName = lt.Name
	if tr.To == StatusPendingHR {
		if ids, err := store.HRUserIDs(ctx, companyID); err == nil {
			result.HRUserIDs = ids
		}
	}

	return result, nil
}

// AdjustBalance applies a signed HR correction to the adjusted column.
func (s *Service) AdjustBalance(ctx context.Context, companyID, userID, leaveTypeID string, year int, amount decimal.Decimal, reason, adjustedBy string) (Balance, error) {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return Balance{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.Store.EnsureBalanceTx(ctx, tx, userID, leaveTypeID, year); err != nil {
		return Balance{}, err
	}
	b, err := s.Store.GetBalanceForUpdateTx(ctx, tx, userID, leaveTypeID, year)
	if err != nil {
		return Balance{}, err
	}
	if err := s.Store.AdjustBalanceTx(ctx, tx, b.ID, amount, reason, adjustedBy); err != nil {
		return Balance{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Balance{}, err
	}
	b.Adjusted = b.Adjusted.Add(amount)

	s.record(ctx, companyID, adjustedBy, "leave_balance.adjust", "leave_balance", b.ID, map[string]any{
		"amount": amount.String(), "reason": reason,
	})
	return b, nil
}

// BalanceView is a ledger row with its derived availability, for
// dashboards and exports.
type BalanceView struct {
	Balance          Balance         `json:"balance"`
	LeaveTypeName    string          `json:"leaveTypeName"`
	LeaveTypeCode    string          `json:"leaveTypeCode"`
	Available        decimal.Decimal `json:"available"`
	AvailableCurrent decimal.Decimal `json:"availableCurrentYear"`
	CarryoverLive    decimal.Decimal `json:"carryoverAvailable"`
	ExpiringSoon     decimal.Decimal `json:"expiringSoon"`
}

func (s *Service) BalanceViews(ctx context.Context, companyID, userID string, now time.Time) ([]BalanceView, error) {
	settings, err := s.Store.GetSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	year := settings.CurrentPeriodYear(today)

	balances, err := s.Store.ListBalances(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	types, err := s.Store.ListTypes(ctx, companyID, true)
	if err != nil {
		return nil, err
	}
	byID := map[string]LeaveType{}
	for _, t := range types {
		byID[t.ID] = t
	}

	views := make([]BalanceView, 0, len(balances))
	for _, b := range balances {
		lt := byID[b.LeaveTypeID]
		views = append(views, BalanceView{
			Balance:          b,
			LeaveTypeName:    lt.Name,
			LeaveTypeCode:    lt.Code,
			Available:        b.Available(today),
			AvailableCurrent: b.AvailableCurrentYear(),
			CarryoverLive:    b.CarriedOverAvailable(today),
			ExpiringSoon:     b.DaysExpiringSoon(today, settings.AlertDaysBeforeExpiry),
		})
	}
	return views, nil
}

// DeactivateType refuses to touch statutory types.
func (s *Service) DeactivateType(ctx context.Context, companyID, typeID string) error {
	lt, err := s.Store.GetType(ctx, companyID, typeID)
	if err != nil {
		return err
	}
	if lt.Protected() {
		return ErrProtectedLeaveType
	}
	lt.IsActive = false
	return s.Store.UpdateType(ctx, companyID, lt)
}

func (s *Service) RunAccruals(ctx context.Context, companyID string, now time.Time) (AccrualSummary, error) {
	summary, err := ApplyAccruals(ctx, s.Store, companyID, now)
	if err == nil {
		s.record(ctx, companyID, "", "leave_accrual.run", "company", companyID, map[string]any{
			"credited": summary.Credited, "skipped": summary.Skipped,
		})
	}
	return summary, err
}

func (s *Service) RunRollovers(ctx context.Context, companyID string, now time.Time) (RolloverSummary, error) {
	summary, err := ProcessRollovers(ctx, s.Store, companyID, now)
	if err == nil {
		s.record(ctx, companyID, "", "leave_rollover.run", "company", companyID, map[string]any{
			"processed": summary.Processed, "skipped": summary.Skipped, "daysLost": summary.DaysLost.String(),
		})
	}
	return summary, err
}

func (s *Service) CheckExpiringBalances(ctx context.Context, companyID string, now time.Time) ([]ExpiringBalance, error) {
	settings, err := s.Store.GetSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.Store.ExpiringBalances(ctx, companyID, today, settings.AlertDaysBeforeExpiry)
}

func (s *Service) InitializeEmployeeBalances(ctx context.Context, companyID, userID string, now time.Time) error {
	emp, err := s.Store.GetEmployeeInfo(ctx, companyID, userID)
	if err != nil {
		return err
	}
	return InitializeBalances(ctx, s.Store, companyID, userID, emp.HireDate, now)
}

// InitializeYearBalances creates missing current-period balances for
// every active employee. Existing rows are left untouched, so running
// it at a period boundary only fills the gaps.
func (s *Service) InitializeYearBalances(ctx context.Context, companyID string, now time.Time) (int, error) {
	employees, err := s.Store.ListAccrualEmployees(ctx, companyID)
	if err != nil {
		return 0, err
	}
	initialized := 0
	for _, emp := range employees {
		if err := InitializeBalances(ctx, s.Store, companyID, emp.UserID, emp.HireDate, now); err != nil {
			return initialized, fmt.Errorf("initialize balances for %s: %w", emp.UserID, err)
		}
		initialized++
	}
	s.record(ctx, companyID, "", "leave_balances.init_year", "company", companyID, map[string]any{
		"employees": initialized,
	})
	return initialized, nil
}

// GetRequestScoped fetches a request, enforcing visibility: employees
// see their own, managers their reports', HR and admins everything.
func (s *Service) GetRequestScoped(ctx context.Context, companyID, requestID string, actor Actor) (Request, error) {
	req, err := s.Store.GetRequest(ctx, companyID, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, fmt.Errorf("request %s: %w", requestID, err)
		}
		return Request{}, err
	}
	switch actor.RoleName {
	case "hr", "admin":
		return req, nil
	case "manager":
		if req.EmployeeID == actor.UserID {
			return req, nil
		}
		emp, err := s.Store.GetEmployeeInfo(ctx, companyID, req.EmployeeID)
		if err != nil {
			return Request{}, err
		}
		if emp.ManagerID != actor.UserID {
			return Request{}, ErrForbidden
		}
		return req, nil
	default:
		if req.EmployeeID != actor.UserID {
			return Request{}, ErrForbidden
		}
		return req, nil
	}
}
