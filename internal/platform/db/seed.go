package db

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tchernob/congesflow/internal/domain/company"
	"github.com/tchernob/congesflow/internal/domain/leave"
	"github.com/tchernob/congesflow/internal/platform/config"
)

// Seed provisions a demo company with an admin account when none
// exists yet. Idempotent: a second run is a no-op.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		slog.Info("seed skipped, SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set")
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM companies").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	companies := company.NewService(company.NewStore(pool), leave.NewStore(pool))
	companyID, err := companies.Provision(ctx, cfg.SeedCompanyName, "", cfg.SeedAdminEmail, "Admin", cfg.SeedCompanyName, cfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	slog.Info("seeded demo company", "company", companyID, "admin", cfg.SeedAdminEmail)
	return nil
}
