package leave

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type RolloverSummary struct {
	Processed int             `json:"processed"`
	Skipped   int             `json:"skipped"`
	DaysLost  decimal.Decimal `json:"daysLost"`
}

// ProcessRollovers carries the unused entitlement of the previous
// period into the current one, per (employee, leave type), capped by
// the family's carryover rule. Pending days are deliberately NOT
// subtracted from the remainder: a request still awaiting approval at
// period end does not shrink what rolls over.
//
// Each pair is claimed with a marker row before the carryover is
// written, so re-running the batch skips already-processed pairs
// instead of overwriting them.
func ProcessRollovers(ctx context.Context, store RolloverStore, companyID string, now time.Time) (RolloverSummary, error) {
	summary := RolloverSummary{DaysLost: decimal.Zero}

	settings, err := store.GetSettings(ctx, companyID)
	if err != nil {
		return summary, err
	}
	fromYear := settings.CurrentPeriodYear(now) - 1
	toYear := fromYear + 1

	types, err := store.ListTypes(ctx, companyID, false)
	if err != nil {
		return summary, err
	}
	employees, err := store.ListAccrualEmployees(ctx, companyID)
	if err != nil {
		return summary, err
	}

	for _, emp := range employees {
		for _, lt := range types {
			prior, err := store.GetBalance(ctx, emp.UserID, lt.ID, fromYear)
			if err != nil {
				if errors.Is(err, ErrBalanceNotFound) {
					continue
				}
				return summary, err
			}

			remaining := prior.InitialBalance.Add(prior.Adjusted).Sub(prior.Used)
			if !remaining.IsPositive() {
				continue
			}

			cap := settings.MaxCarryover(lt.Code)
			carry := decimal.Min(remaining, cap)
			lost := remaining.Sub(carry)

			tx, err := store.BeginTx(ctx)
			if err != nil {
				return summary, err
			}

			claimed, err := store.MarkRolloverTx(ctx, tx, emp.UserID, lt.ID, fromYear, carry, lost)
			if err != nil {
				rollback(ctx, tx, emp.UserID)
				return summary, err
			}
			if !claimed {
				rollback(ctx, tx, emp.UserID)
				summary.Skipped++
				continue
			}

			if err := store.EnsureBalanceTx(ctx, tx, emp.UserID, lt.ID, toYear); err != nil {
				rollback(ctx, tx, emp.UserID)
				return summary, err
			}
			b, err := store.GetBalanceForUpdateTx(ctx, tx, emp.UserID, lt.ID, toYear)
			if err != nil {
				rollback(ctx, tx, emp.UserID)
				return summary, err
			}

			b.CarriedOver = carry
			b.CarriedOverUsed = decimal.Zero
			b.CarriedOverExpiresAt = nil
			if carry.IsPositive() {
				exp := settings.CarryoverExpiryDate(fromYear, lt.Code)
				b.CarriedOverExpiresAt = &exp
			}
			if err := store.SaveBalanceTx(ctx, tx, b); err != nil {
				rollback(ctx, tx, emp.UserID)
				return summary, err
			}
			if err := tx.Commit(ctx); err != nil {
				return summary, err
			}

			summary.Processed++
			summary.DaysLost = summary.DaysLost.Add(lost)
		}
	}
	return summary, nil
}

func rollback(ctx context.Context, tx pgx.Tx, userID string) {
	if err := tx.Rollback(ctx); err != nil {
		slog.Warn("rollover rollback failed", "user", userID, "err", err)
	}
}
