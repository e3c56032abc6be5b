package leave

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

type AccrualSummary struct {
	Credited        int `json:"credited"`
	Skipped         int `json:"skipped"`
	MissingContract int `json:"missingContract"`
}

// familyParams resolves the accrual rate and annual cap for a leave
// family from the employee's contract type.
func familyParams(ct ContractType, code string) (rate, allowance decimal.Decimal, ok bool) {
	switch code {
	case CodeCP:
		if ct.CPAcquisitionRate.IsZero() {
			return decimal.Zero, decimal.Zero, false
		}
		return ct.CPAcquisitionRate, ct.CPAnnualAllowance, true
	case CodeRTT:
		if !ct.HasRTT || ct.RTTAnnualAllowance.IsZero() {
			return decimal.Zero, decimal.Zero, false
		}
		return ct.RTTAnnualAllowance.Div(twelve).Round(2), ct.RTTAnnualAllowance, true
	}
	return decimal.Zero, decimal.Zero, false
}

// ApplyAccruals credits the monthly CP and RTT acquisition for every
// active employee of the company. A balance already credited for the
// current month is left alone, so the batch can run any number of
// times. Each employee commits in its own transaction; a crash mid-run
// never double-credits on retry.
func ApplyAccruals(ctx context.Context, store AccrualStore, companyID string, now time.Time) (AccrualSummary, error) {
	var summary AccrualSummary

	settings, err := store.GetSettings(ctx, companyID)
	if err != nil {
		return summary, err
	}
	year := settings.CurrentPeriodYear(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	contracts, err := store.ContractTypesByID(ctx, companyID)
	if err != nil {
		return summary, err
	}

	families := map[string]LeaveType{}
	for _, code := range []string{CodeCP, CodeRTT} {
		lt, err := store.GetTypeByCode(ctx, companyID, code)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return summary, err
		}
		if lt.IsActive {
			families[code] = lt
		}
	}

	employees, err := store.ListAccrualEmployees(ctx, companyID)
	if err != nil {
		return summary, err
	}

	for _, emp := range employees {
		ct, hasContract := contracts[emp.ContractTypeID]
		if !hasContract {
			summary.MissingContract++
			continue
		}

		tx, err := store.BeginTx(ctx)
		if err != nil {
			return summary, err
		}

		credited, skipped, err := accrueEmployee(ctx, store, tx, settings, emp, ct, families, year, monthStart)
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Warn("accrual rollback failed", "user", emp.UserID, "err", rbErr)
			}
			return summary, err
		}
		if err := tx.Commit(ctx); err != nil {
			return summary, err
		}
		summary.Credited += credited
		summary.Skipped += skipped
	}
	return summary, nil
}

func accrueEmployee(ctx context.Context, store AccrualStore, tx pgx.Tx, settings Settings, emp AccrualEmployee, ct ContractType, families map[string]LeaveType, year int, monthStart time.Time) (credited, skipped int, err error) {
	for code, lt := range families {
		rate, allowance, ok := familyParams(ct, code)
		if !ok {
			continue
		}
		if emp.HireDate != nil && emp.HireDate.After(monthStart.AddDate(0, 1, -1)) {
			// Hired after this month: nothing acquired yet.
			continue
		}

		if err := store.EnsureBalanceTx(ctx, tx, emp.UserID, lt.ID, year); err != nil {
			return credited, skipped, err
		}
		b, err := store.GetBalanceForUpdateTx(ctx, tx, emp.UserID, lt.ID, year)
		if err != nil {
			return credited, skipped, err
		}

		if b.LastAccrualDate != nil && !b.LastAccrualDate.Before(monthStart) {
			skipped++
			continue
		}

		// A balance already at its annual cap has nothing left to
		// acquire; writing the month stamp anyway would inflate
		// months_worked and over-report the credit count.
		if allowance.IsPositive() && !b.Accrued.LessThan(allowance) {
			skipped++
			continue
		}

		accrued := b.Accrued.Add(rate)
		if allowance.IsPositive() && accrued.GreaterThan(allowance) {
			accrued = allowance
		}
		b.Accrued = accrued
		b.InitialBalance = accrued
		b.LastAccrualDate = &monthStart
		b.MonthsWorked = b.MonthsWorked.Add(decimal.NewFromInt(1))
		if b.AcquisitionStartDate == nil {
			start := settings.PeriodStart(year)
			if emp.HireDate != nil && emp.HireDate.After(start) {
				start = *emp.HireDate
			}
			b.AcquisitionStartDate = &start
		}

		if err := store.SaveBalanceTx(ctx, tx, b); err != nil {
			return credited, skipped, err
		}
		credited++
	}
	return credited, skipped, nil
}

// InitializeBalances creates the current-period balances for one
// employee, prorating CP and RTT by the months left in the period.
// Existing rows are kept as-is.
func InitializeBalances(ctx context.Context, store AccrualStore, companyID, userID string, hireDate *time.Time, now time.Time) error {
	settings, err := store.GetSettings(ctx, companyID)
	if err != nil {
		return err
	}
	year := settings.CurrentPeriodYear(now)
	periodStart := settings.PeriodStart(year)
	periodEnd := settings.PeriodEnd(year)

	contracts, err := store.ContractTypesByID(ctx, companyID)
	if err != nil {
		return err
	}
	employees, err := store.ListAccrualEmployees(ctx, companyID)
	if err != nil {
		return err
	}
	var emp *AccrualEmployee
	for i := range employees {
		if employees[i].UserID == userID {
			emp = &employees[i]
			break
		}
	}
	if emp == nil {
		return errors.New("employee not found or inactive")
	}
	ct, hasContract := contracts[emp.ContractTypeID]
	if !hasContract {
		return nil
	}

	from := periodStart
	if hireDate != nil && hireDate.After(from) {
		from = *hireDate
	}
	monthsLeft := monthsBetween(from, periodEnd)

	types, err := store.ListTypes(ctx, companyID, false)
	if err != nil {
		return err
	}

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}
	for _, lt := range types {
		if !lt.TracksBalance() {
			continue
		}

		// CP and RTT prorate by remaining months; exceptional types
		// (marriage, birth...) grant their full default right away.
		initial := lt.DefaultDays
		if lt.Protected() {
			_, allowance, ok := familyParams(ct, lt.Code)
			if !ok {
				continue
			}
			initial = allowance.Mul(decimal.NewFromInt(int64(monthsLeft))).Div(twelve).Round(2)
		}

		if err := store.EnsureBalanceTx(ctx, tx, userID, lt.ID, year); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		b, err := store.GetBalanceForUpdateTx(ctx, tx, userID, lt.ID, year)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if !b.InitialBalance.IsZero() || b.LastAccrualDate != nil {
			continue
		}

		b.InitialBalance = initial
		b.AcquisitionStartDate = &from
		b.MonthsWorked = decimal.Zero
		if err := store.SaveBalanceTx(ctx, tx, b); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	return tx.Commit(ctx)
}

// monthsBetween counts whole or partial months from a to b inclusive,
// capped to 12.
func monthsBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month()) + 1
	if months > 12 {
		months = 12
	}
	return months
}
