package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tchernob/congesflow/internal/domain/audit"
	"github.com/tchernob/congesflow/internal/domain/auth"
	"github.com/tchernob/congesflow/internal/domain/company"
	"github.com/tchernob/congesflow/internal/domain/leave"
	"github.com/tchernob/congesflow/internal/domain/notifications"
	"github.com/tchernob/congesflow/internal/platform/config"
	"github.com/tchernob/congesflow/internal/platform/db"
	"github.com/tchernob/congesflow/internal/platform/email"
	"github.com/tchernob/congesflow/internal/platform/jobs"
	"github.com/tchernob/congesflow/internal/platform/metrics"
	"github.com/tchernob/congesflow/internal/transport/http/api"
	audithandler "github.com/tchernob/congesflow/internal/transport/http/handlers/audit"
	authhandler "github.com/tchernob/congesflow/internal/transport/http/handlers/auth"
	companyhandler "github.com/tchernob/congesflow/internal/transport/http/handlers/company"
	leavehandler "github.com/tchernob/congesflow/internal/transport/http/handlers/leave"
	notificationshandler "github.com/tchernob/congesflow/internal/transport/http/handlers/notifications"
	"github.com/tchernob/congesflow/internal/transport/http/middleware"
)

// Run wires the whole application and blocks serving HTTP.
func Run() {
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

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	auditSvc := audit.New(pool)
	leaveSvc := leave.NewService(leave.NewStore(pool), auditSvc)
	companySvc := company.NewService(company.NewStore(pool), leaveSvc.Store)
	authSvc := auth.NewService(auth.NewStore(pool), []byte(cfg.JWTSecret), cfg.TokenTTL)
	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom)

	jobsSvc := jobs.New(pool, cfg, leaveSvc, notifySvc)
	if cfg.JobsEnabled {
		jobsSvc.Start(ctx)
	}

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recover)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth([]byte(cfg.JWTSecret)))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc).RegisterRoutes(r)
		companyhandler.NewHandler(companySvc).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc, companySvc, notifySvc, jobsSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	log.Printf("congesflow server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
