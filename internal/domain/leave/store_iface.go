package leave

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WorkflowStore is what the request lifecycle needs from persistence:
// the validation reads, then the locked reserve/transition sequence.
// *Store satisfies it; tests use a fake.
type WorkflowStore interface {
	GetSettings(ctx context.Context, companyID string) (Settings, error)
	GetType(ctx context.Context, companyID, typeID string) (LeaveType, error)
	GetEmployeeInfo(ctx context.Context, companyID, userID string) (EmployeeInfo, error)
	GetRequest(ctx context.Context, companyID, requestID string) (Request, error)
	OverlappingRequests(ctx context.Context, employeeID string, start, end time.Time) ([]Request, error)
	ListBlockedPeriods(ctx context.Context, companyID string) ([]BlockedPeriod, error)
	ListAutoApprovalRules(ctx context.Context, companyID string) ([]AutoApprovalRule, error)
	HRUserIDs(ctx context.Context, companyID string) ([]string, error)
	BeginTx(ctx context.Context) (pgx.Tx, error)
	EnsureBalanceTx(ctx context.Context, tx pgx.Tx, userID, leaveTypeID string, year int) error
	GetBalanceForUpdateTx(ctx context.Context, tx pgx.Tx, userID, leaveTypeID string, year int) (Balance, error)
	SaveBalanceTx(ctx context.Context, tx pgx.Tx, b Balance) error
	CreateRequestTx(ctx context.Context, tx pgx.Tx, r Request) (string, error)
	UpdateRequestStatusTx(ctx context.Context, tx pgx.Tx, requestID string, from, to Status, stamp DecisionStamp) (bool, error)
}

// AccrualStore is what the monthly accrual batch needs from
// persistence. *Store satisfies it; tests use a fake.
type AccrualStore interface {
	GetSettings(ctx context.Context, companyID string) (Settings, error)
	ListAccrualEmployees(ctx context.Context, companyID string) ([]AccrualEmployee, error)
	ContractTypesByID(ctx context.Context, companyID string) (map[string]ContractType, error)
	GetTypeByCode(ctx context.Context, companyID, code string) (LeaveType, error)
	ListTypes(ctx context.Context, companyID string, includeInactive bool) ([]LeaveType, error)
	BeginTx(ctx context.Context) (pgx.Tx, error)
	EnsureBalanceTx(ctx context.Context, tx pgx.Tx, userID, leaveTypeID string, year int) error
	GetBalanceForUpdateTx(ctx context.Context, tx pgx.Tx, userID, leaveTypeID string, year int) (Balance, error)
	SaveBalanceTx(ctx context.Context, tx pgx.Tx, b Balance) error
}

// RolloverStore is what the period rollover batch needs.
type RolloverStore interface {
	GetSettings(ctx context.Context, companyID string) (Settings, error)
	ListAccrualEmployees(ctx context.Context, companyID string) ([]AccrualEmployee, error)
	ListTypes(ctx context.Context, companyID string, includeInactive bool) ([]LeaveType, error)
	GetBalance(ctx context.Context, userID, leaveTypeID string, year int) (Balance, error)
	BeginTx(ctx context.Context) (pgx.Tx, error)
	EnsureBalanceTx(ctx context.Context, tx pgx.Tx, userID, leaveTypeID string, year int) error
	GetBalanceForUpdateTx(ctx context.Context, tx pgx.Tx, userID, leaveTypeID string, year int) (Balance, error)
	SaveBalanceTx(ctx context.Context, tx pgx.Tx, b Balance) error
	MarkRolloverTx(ctx context.Context, tx pgx.Tx, userID, leaveTypeID string, fromYear int, carried, lost decimal.Decimal) (bool, error)
}
