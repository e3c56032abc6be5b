// Command jobs runs one ledger batch from the command line, for cron
// setups or manual operations: accrue, rollover, init-year or
// expiry-alerts, company-wide or for a single company.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tchernob/congesflow/internal/domain/audit"
	"github.com/tchernob/congesflow/internal/domain/leave"
	"github.com/tchernob/congesflow/internal/domain/notifications"
	"github.com/tchernob/congesflow/internal/platform/config"
	"github.com/tchernob/congesflow/internal/platform/db"
	"github.com/tchernob/congesflow/internal/platform/email"
	"github.com/tchernob/congesflow/internal/platform/jobs"
)

func main() {
	companyID := flag.String("company", "", "restrict the run to one company id")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: jobs [-company id] accrue|rollover|init-year|expiry-alerts\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	action := flag.Arg(0)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	leaveSvc := leave.NewService(leave.NewStore(pool), audit.New(pool))
	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom)
	jobsSvc := jobs.New(pool, cfg, leaveSvc, notifySvc)

	companies, err := targetCompanies(ctx, pool, *companyID)
	if err != nil {
		log.Fatalf("company lookup failed: %v", err)
	}

	now := time.Now().UTC()
	for _, id := range companies {
		var result any
		var runErr error
		switch action {
		case "accrue":
			result, runErr = jobsSvc.RunNow(ctx, jobs.JobAccrual, id, func(ctx context.Context) (any, error) {
				return leaveSvc.RunAccruals(ctx, id, now)
			})
		case "rollover":
			result, runErr = jobsSvc.RunNow(ctx, jobs.JobRollover, id, func(ctx context.Context) (any, error) {
				return leaveSvc.RunRollovers(ctx, id, now)
			})
		case "init-year":
			result, runErr = jobsSvc.RunNow(ctx, jobs.JobInitYear, id, func(ctx context.Context) (any, error) {
				initialized, err := leaveSvc.InitializeYearBalances(ctx, id, now)
				return map[string]any{"initialized": initialized}, err
			})
		case "expiry-alerts":
			result, runErr = jobsSvc.RunNow(ctx, jobs.JobExpiryAlerts, id, func(ctx context.Context) (any, error) {
				return jobsSvc.RunExpiryAlerts(ctx, id)
			})
		default:
			flag.Usage()
			os.Exit(2)
		}
		if runErr != nil {
			log.Fatalf("%s failed for company %s: %v", action, id, runErr)
		}
		log.Printf("%s company=%s result=%+v", action, id, result)
	}
}

func targetCompanies(ctx context.Context, pool *pgxpool.Pool, companyID string) ([]string, error) {
	if companyID != "" {
		return []string{companyID}, nil
	}
	rows, err := pool.Query(ctx, "SELECT id FROM companies WHERE is_active")
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
