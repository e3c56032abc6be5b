package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tchernob/congesflow/internal/domain/leave"
	"github.com/tchernob/congesflow/internal/domain/notifications"
	"github.com/tchernob/congesflow/internal/platform/config"
)

const (
	JobAccrual      = "leave_accrual"
	JobRollover     = "leave_rollover"
	JobExpiryAlerts = "carryover_expiry_alerts"
	JobInitYear     = "balance_initialization"
)

// Service runs the recurring ledger batches in-process: monthly
// accrual, period rollover, carryover expiry alerts. Every run is
// recorded in job_runs.
type Service struct {
	DB            *pgxpool.Pool
	Cfg           config.Config
	Leave         *leave.Service
	Notifications *notifications.Service
	queue         chan job
}

type job struct {
	Type      string
	CompanyID string
	Run       func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, leaveSvc *leave.Service, notifSvc *notifications.Service) *Service {
	return &Service{
		DB:            db,
		Cfg:           cfg,
		Leave:         leaveSvc,
		Notifications: notifSvc,
		queue:         make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.AccrualInterval > 0 {
		go s.schedule(ctx, s.Cfg.AccrualInterval, s.enqueueAccruals)
	}
	if s.Cfg.RolloverCheckInterval > 0 {
		go s.schedule(ctx, s.Cfg.RolloverCheckInterval, s.enqueueRollovers)
	}
	if s.Cfg.ExpiryAlertInterval > 0 {
		go s.schedule(ctx, s.Cfg.ExpiryAlertInterval, s.enqueueExpiryAlerts)
	}
}

func (s *Service) Enqueue(jobType, companyID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, CompanyID: companyID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "company", companyID)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, companyID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, CompanyID: companyID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "company", j.CompanyID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (company_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, j.CompanyID, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) schedule(ctx context.Context, interval time.Duration, enqueue func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue(ctx)
		}
	}
}

func (s *Service) enqueueAccruals(ctx context.Context) {
	s.forEachCompany(ctx, "accrual", func(companyID string) {
		s.Enqueue(JobAccrual, companyID, func(ctx context.Context) (any, error) {
			return s.Leave.RunAccruals(ctx, companyID, time.Now().UTC())
		})
	})
}

func (s *Service) enqueueRollovers(ctx context.Context) {
	s.forEachCompany(ctx, "rollover", func(companyID string) {
		s.Enqueue(JobRollover, companyID, func(ctx context.Context) (any, error) {
			// The per-pair markers make this safe to attempt daily; only
			// pairs never rolled over get processed.
			return s.Leave.RunRollovers(ctx, companyID, time.Now().UTC())
		})
	})
}

func (s *Service) enqueueExpiryAlerts(ctx context.Context) {
	s.forEachCompany(ctx, "expiry alerts", func(companyID string) {
		s.Enqueue(JobExpiryAlerts, companyID, func(ctx context.Context) (any, error) {
			return s.RunExpiryAlerts(ctx, companyID)
		})
	})
}

// RunExpiryAlerts sends a notification to every employee whose carried
// over days expire inside the company's alert window.
func (s *Service) RunExpiryAlerts(ctx context.Context, companyID string) (any, error) {
	expiring, err := s.Leave.CheckExpiringBalances(ctx, companyID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	notified := 0
	for _, e := range expiring {
		if !e.DaysAtRisk.IsPositive() {
			continue
		}
		title := "Congés reportés bientôt expirés"
		body := e.DaysAtRisk.String() + " jour(s) de " + e.LeaveTypeName +
			" reportés expirent le " + e.ExpiresAt.Format("02/01/2006") + "."
		if s.Notifications != nil {
			if err := s.Notifications.Notify(ctx, e.UserID, notifications.KindCarryoverExpiry, title, body); err != nil {
				slog.Warn("expiry alert failed", "user", e.UserID, "err", err)
				continue
			}
		}
		notified++
	}
	return map[string]any{"expiring": len(expiring), "notified": notified}, nil
}

func (s *Service) forEachCompany(ctx context.Context, what string, fn func(companyID string)) {
	companies, err := s.listCompanies(ctx)
	if err != nil {
		slog.Warn("scheduler company lookup failed", "scheduler", what, "err", err)
		return
	}
	for _, companyID := range companies {
		fn(companyID)
	}
}

func (s *Service) listCompanies(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM companies WHERE is_active")
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
