package leave

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const balanceColumns = `
    id, user_id, leave_type_id, year, initial_balance, adjusted, used, pending,
    carried_over, carried_over_used, carried_over_expires_at,
    accrued, last_accrual_date, acquisition_start_date, months_worked,
    created_at, updated_at`

func scanBalance(row interface{ Scan(...any) error }) (Balance, error) {
	var b Balance
	err := row.Scan(
		&b.ID, &b.UserID, &b.LeaveTypeID, &b.Year, &b.InitialBalance, &b.Adjusted, &b.Used, &b.Pending,
		&b.CarriedOver, &b.CarriedOverUsed, &b.CarriedOverExpiresAt,
		&b.Accrued, &b.LastAccrualDate, &b.AcquisitionStartDate, &b.MonthsWorked,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (s *Store) ListBalances(ctx context.Context, userID string, year int) ([]Balance, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT"+balanceColumns+" FROM leave_balances WHERE user_id = $1 AND year = $2",
		userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, nil
}

func (s *Store) GetBalance(ctx context.Context, userID, leaveTypeID string, year int) (Balance, error) {
	b, err := scanBalance(s.DB.QueryRow(ctx,
		"SELECT"+balanceColumns+" FROM leave_balances WHERE user_id = $1 AND leave_type_id = $2 AND year = $3",
		userID, leaveTypeID, year))
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, ErrBalanceNotFound
	}
	return b, err
}

// GetBalanceForUpdateTx reads the balance row under a FOR UPDATE lock.
// Every transition that touches the ledger goes through this inside its
// transaction, serializing concurrent approvals on the same row.
func (s *Store) GetBalanceForUpdateTx(ctx context.Context, tx pgx.Tx, userID, leaveTypeID string, year int) (Balance, error) {
	b, err := scanBalance(tx.QueryRow(ctx,
		"SELECT"+balanceColumns+" FROM leave_balances WHERE user_id = $1 AND leave_type_id = $2 AND year = $3 FOR UPDATE",
		userID, leaveTypeID, year))
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, ErrBalanceNotFound
	}
	return b, err
}

// EnsureBalanceTx creates an empty balance row if the (user, type, year)
// key is missing. Safe to call before GetBalanceForUpdateTx.
func (s *Store) EnsureBalanceTx(ctx context.Context, tx pgx.Tx, userID, leaveTypeID string, year int) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO leave_balances (user_id, leave_type_id, year)
    VALUES ($1,$2,$3)
    ON CONFLICT (user_id, leave_type_id, year) DO NOTHING
  `, userID, leaveTypeID, year)
	return err
}

// SaveBalanceTx writes back every ledger field of a previously locked
// row.
func (s *Store) SaveBalanceTx(ctx context.Context, tx pgx.Tx, b Balance) error {
	_, err := tx.Exec(ctx, `
    UPDATE leave_balances
    SET initial_balance = $2, adjusted = $3, used = $4, pending = $5,
        carried_over = $6, carried_over_used = $7, carried_over_expires_at = $8,
        accrued = $9, last_accrual_date = $10, acquisition_start_date = $11, months_worked = $12,
        updated_at = now()
    WHERE id = $1
  `, b.ID, b.InitialBalance, b.Adjusted, b.Used, b.Pending,
		b.CarriedOver, b.CarriedOverUsed, b.CarriedOverExpiresAt,
		b.Accrued, b.LastAccrualDate, b.AcquisitionStartDate, b.MonthsWorked)
	return err
}

// AdjustBalanceTx applies a signed HR correction to the adjusted column
// and records the adjustment row, inside the caller's transaction.
func (s *Store) AdjustBalanceTx(ctx context.Context, tx pgx.Tx, balanceID string, amount decimal.Decimal, reason, adjustedBy string) error {
	tag, err := tx.Exec(ctx, `
    UPDATE leave_balances SET adjusted = adjusted + $2, updated_at = now() WHERE id = $1
  `, balanceID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBalanceNotFound
	}

	_, err = tx.Exec(ctx, `
    INSERT INTO leave_balance_adjustments (balance_id, amount, reason, created_by)
    VALUES ($1,$2,$3,$4)
  `, balanceID, amount, reason, adjustedBy)
	return err
}

// ExpiringBalance is a balance row whose carryover dies within the
// alert window, joined with the data a notification needs.
type ExpiringBalance struct {
	Balance       Balance
	UserID        string
	EmployeeName  string
	LeaveTypeName string
	ExpiresAt     time.Time
	DaysAtRisk    decimal.Decimal
}

func (s *Store) ExpiringBalances(ctx context.Context, companyID string, today time.Time, daysAhead int) ([]ExpiringBalance, error) {
	limit := today.AddDate(0, 0, daysAhead)
	rows, err := s.DB.Query(ctx, `
    SELECT b.id, b.user_id, b.leave_type_id, b.year, b.initial_balance, b.adjusted, b.used, b.pending,
           b.carried_over, b.carried_over_used, b.carried_over_expires_at,
           b.accrued, b.last_accrual_date, b.acquisition_start_date, b.months_worked,
           b.created_at, b.updated_at,
           u.first_name || ' ' || u.last_name, lt.name
    FROM leave_balances b
    JOIN users u ON b.user_id = u.id
    JOIN leave_types lt ON b.leave_type_id = lt.id
    WHERE u.company_id = $1 AND u.is_active
      AND b.carried_over_expires_at IS NOT NULL
      AND b.carried_over_expires_at >= $2
      AND b.carried_over_expires_at <= $3
      AND b.carried_over > b.carried_over_used
  `, companyID, today, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExpiringBalance
	for rows.Next() {
		var e ExpiringBalance
		if err := rows.Scan(
			&e.Balance.ID, &e.Balance.UserID, &e.Balance.LeaveTypeID, &e.Balance.Year,
			&e.Balance.InitialBalance, &e.Balance.Adjusted, &e.Balance.Used, &e.Balance.Pending,
			&e.Balance.CarriedOver, &e.Balance.CarriedOverUsed, &e.Balance.CarriedOverExpiresAt,
			&e.Balance.Accrued, &e.Balance.LastAccrualDate, &e.Balance.AcquisitionStartDate, &e.Balance.MonthsWorked,
			&e.Balance.CreatedAt, &e.Balance.UpdatedAt,
			&e.EmployeeName, &e.LeaveTypeName,
		); err != nil {
			return nil, err
		}
		e.UserID = e.Balance.UserID
		e.ExpiresAt = *e.Balance.CarriedOverExpiresAt
		e.DaysAtRisk = e.Balance.CarriedOverAvailable(today)
		out = append(out, e)
	}
	return out, nil
}
