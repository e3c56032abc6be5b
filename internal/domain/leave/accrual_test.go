package leave

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx satisfies pgx.Tx for the in-memory store; only Commit and
// Rollback are ever called.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

type fakeStore struct {
	settings  Settings
	employees []AccrualEmployee
	contracts map[string]ContractType
	types     map[string]LeaveType // by code
	balances  map[string]*Balance
	rollovers map[string]bool

	details  map[string]EmployeeInfo
	requests map[string]*Request
	rules    []AutoApprovalRule
	blocked  []BlockedPeriod
	hrIDs    []string
	nextID   int
}

func balanceKey(userID, typeID string, year int) string {
	return fmt.Sprintf("%s|%s|%d", userID, typeID, year)
}

func (f *fakeStore) GetSettings(context.Context, string) (Settings, error) {
	return f.settings, nil
}

func (f *fakeStore) ListAccrualEmployees(context.Context, string) ([]AccrualEmployee, error) {
	return f.employees, nil
}

func (f *fakeStore) ContractTypesByID(context.Context, string) (map[string]ContractType, error) {
	return f.contracts, nil
}

func (f *fakeStore) GetTypeByCode(_ context.Context, _ string, code string) (LeaveType, error) {
	lt, ok := f.types[code]
	if !ok {
		return LeaveType{}, pgx.ErrNoRows
	}
	return lt, nil
}

func (f *fakeStore) ListTypes(context.Context, string, bool) ([]LeaveType, error) {
	var out []LeaveType
	for _, lt := range f.types {
		if lt.IsActive {
			out = append(out, lt)
		}
	}
	return out, nil
}

func (f *fakeStore) BeginTx(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (f *fakeStore) EnsureBalanceTx(_ context.Context, _ pgx.Tx, userID, typeID string, year int) error {
	key := balanceKey(userID, typeID, year)
	if _, ok := f.balances[key]; !ok {
		f.balances[key] = &Balance{ID: key, UserID: userID, LeaveTypeID: typeID, Year: year}
	}
	return nil
}

func (f *fakeStore) GetBalanceForUpdateTx(_ context.Context, _ pgx.Tx, userID, typeID string, year int) (Balance, error) {
	b, ok := f.balances[balanceKey(userID, typeID, year)]
	if !ok {
		return Balance{}, ErrBalanceNotFound
	}
	return *b, nil
}

func (f *fakeStore) GetBalance(_ context.Context, userID, typeID string, year int) (Balance, error) {
	b, ok := f.balances[balanceKey(userID, typeID, year)]
	if !ok {
		return Balance{}, ErrBalanceNotFound
	}
	return *b, nil
}

func (f *fakeStore) SaveBalanceTx(_ context.Context, _ pgx.Tx, b Balance) error {
	f.balances[b.ID] = &b
	return nil
}

func (f *fakeStore) MarkRolloverTx(_ context.Context, _ pgx.Tx, userID, typeID string, fromYear int, _, _ decimal.Decimal) (bool, error) {
	key := balanceKey(userID, typeID, fromYear)
	if f.rollovers[key] {
		return false, nil
	}
	f.rollovers[key] = true
	return true, nil
}

func newFakeStore() *fakeStore {
	cdi := ContractType{
		ID:                 "ct-cdi",
		Code:               "CDI",
		CPAcquisitionRate:  d("2.08"),
		CPAnnualAllowance:  d("25"),
		HasRTT:             true,
		RTTAnnualAllowance: d("12"),
	}
	return &fakeStore{
		settings: legalSettings(),
		employees: []AccrualEmployee{
			{UserID: "u-1", ContractTypeID: "ct-cdi"},
		},
		contracts: map[string]ContractType{"ct-cdi": cdi},
		types: map[string]LeaveType{
			CodeCP:  {ID: "lt-cp", Code: CodeCP, Name: "Congés payés", DefaultDays: d("25"), IsPaid: true, IsActive: true},
			CodeRTT: {ID: "lt-rtt", Code: CodeRTT, Name: "RTT", DefaultDays: d("10"), IsPaid: true, IsActive: true},
		},
		balances:  map[string]*Balance{},
		rollovers: map[string]bool{},
		details: map[string]EmployeeInfo{
			"u-1": {ID: "u-1", CompanyID: "co-1", TeamID: "team-1", RoleID: "role-emp", ManagerID: "mgr-1", ContractTypeID: "ct-cdi", IsActive: true},
		},
		requests: map[string]*Request{},
		hrIDs:    []string{"hr-1"},
	}
}

func TestApplyAccrualsCreditsMonthlyRate(t *testing.T) {
	f := newFakeStore()
	now := date(2025, time.July, 15)

	summary, err := ApplyAccruals(context.Background(), f, "co-1", now)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Credited)
	assert.Equal(t, 0, summary.Skipped)

	cp, err := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	require.NoError(t, err)
	assert.True(t, cp.Accrued.Equal(d("2.08")), "got %s", cp.Accrued)
	assert.True(t, cp.InitialBalance.Equal(d("2.08")))
	require.NotNil(t, cp.LastAccrualDate)
	assert.Equal(t, date(2025, time.July, 1), *cp.LastAccrualDate)

	// RTT accrues one twelfth of the annual allowance.
	rtt, err := f.GetBalance(context.Background(), "u-1", "lt-rtt", 2025)
	require.NoError(t, err)
	assert.True(t, rtt.Accrued.Equal(d("1")), "got %s", rtt.Accrued)
}

func TestApplyAccrualsIdempotentWithinMonth(t *testing.T) {
	f := newFakeStore()
	now := date(2025, time.July, 15)

	_, err := ApplyAccruals(context.Background(), f, "co-1", now)
	require.NoError(t, err)

	summary, err := ApplyAccruals(context.Background(), f, "co-1", now.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Credited)
	assert.Equal(t, 2, summary.Skipped)

	cp, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, cp.Accrued.Equal(d("2.08")))

	// Next month credits again.
	summary, err = ApplyAccruals(context.Background(), f, "co-1", date(2025, time.August, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Credited)

	cp, _ = f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, cp.Accrued.Equal(d("4.16")))
}

func TestApplyAccrualsCapsAtAllowance(t *testing.T) {
	f := newFakeStore()
	key := balanceKey("u-1", "lt-cp", 2025)
	f.balances[key] = &Balance{ID: key, UserID: "u-1", LeaveTypeID: "lt-cp", Year: 2025, Accrued: d("24.5")}

	_, err := ApplyAccruals(context.Background(), f, "co-1", date(2025, time.July, 15))
	require.NoError(t, err)

	cp, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, cp.Accrued.Equal(d("25")), "got %s", cp.Accrued)
	assert.True(t, cp.InitialBalance.Equal(d("25")))
}

func TestApplyAccrualsSkipsBalanceAtCap(t *testing.T) {
	f := newFakeStore()
	june := date(2025, time.June, 1)
	key := balanceKey("u-1", "lt-cp", 2025)
	f.balances[key] = &Balance{
		ID: key, UserID: "u-1", LeaveTypeID: "lt-cp", Year: 2025,
		Accrued: d("25"), InitialBalance: d("25"), LastAccrualDate: &june,
		MonthsWorked: d("12"),
	}

	summary, err := ApplyAccruals(context.Background(), f, "co-1", date(2025, time.July, 15))
	require.NoError(t, err)

	// CP has no headroom left; only RTT credits. The capped balance
	// keeps its month stamp and months_worked.
	assert.Equal(t, 1, summary.Credited)
	assert.Equal(t, 1, summary.Skipped)

	cp, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.Equal(t, june, *cp.LastAccrualDate)
	assert.True(t, cp.MonthsWorked.Equal(d("12")), "got %s", cp.MonthsWorked)
}

func TestApplyAccrualsSkipsMissingContract(t *testing.T) {
	f := newFakeStore()
	f.employees = append(f.employees, AccrualEmployee{UserID: "u-2"})

	summary, err := ApplyAccruals(context.Background(), f, "co-1", date(2025, time.July, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MissingContract)
	assert.Equal(t, 2, summary.Credited)
}

func TestApplyAccrualsSkipsFutureHire(t *testing.T) {
	f := newFakeStore()
	hire := date(2025, time.September, 1)
	f.employees[0].HireDate = &hire

	summary, err := ApplyAccruals(context.Background(), f, "co-1", date(2025, time.July, 15))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Credited)
}

func TestInitializeBalancesProrates(t *testing.T) {
	f := newFakeStore()
	hire := date(2025, time.December, 1)
	f.employees[0].HireDate = &hire

	// Legal period 2025 runs Jun 2025 - May 2026; Dec..May = 6 months.
	err := InitializeBalances(context.Background(), f, "co-1", "u-1", &hire, date(2025, time.December, 3))
	require.NoError(t, err)

	cp, err := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	require.NoError(t, err)
	assert.True(t, cp.InitialBalance.Equal(d("12.5")), "got %s", cp.InitialBalance)

	rtt, err := f.GetBalance(context.Background(), "u-1", "lt-rtt", 2025)
	require.NoError(t, err)
	assert.True(t, rtt.InitialBalance.Equal(d("6")), "got %s", rtt.InitialBalance)
}
