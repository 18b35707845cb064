package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cdr-reconciler/internal/audit"
	"cdr-reconciler/internal/auth"
	"cdr-reconciler/internal/config"
	"cdr-reconciler/internal/httpapi"
	"cdr-reconciler/internal/lookup"
	"cdr-reconciler/internal/phone"
	"cdr-reconciler/internal/pricing"
	"cdr-reconciler/internal/reporting"
	"cdr-reconciler/internal/runner"
	"cdr-reconciler/internal/store"
	"cdr-reconciler/pkg/logger"
	"cdr-reconciler/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// .env is a local convenience; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	tables, err := lookup.LoadTables(cfg.Lookup.TablesPath)
	if err != nil {
		log.Error("lookup tables load failed", "err", err)
		os.Exit(1)
	}

	h := httpapi.Handlers{Auth: authManager, MaxUploadBytes: cfg.App.MaxUploadBytes}
	svc := &runner.Service{Classifier: phone.NewClassifier(tables)}

	if cfg.Lookup.RatesPath != "" {
		jobs, err := lookup.LoadJobs(cfg.Lookup.RatesPath)
		if err != nil {
			log.Error("rates load failed", "err", err)
			os.Exit(1)
		}
		book, err := jobs.RateBook()
		if err != nil {
			log.Error("rates invalid", "err", err)
			os.Exit(1)
		}
		svc.Pricing = pricing.NewService(book)
		h.Jobs = jobs
	}

	var (
		auditRepo  audit.Repository     = audit.NewMemoryRepo()
		reportRepo reporting.Repository = reporting.NewMemoryRepo()
	)
	if cfg.DBEnabled() {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := utils.EnsureSchema(rootCtx, db, store.Schema, audit.Schema, reporting.Schema); err != nil {
			log.Error("schema init failed", "err", err)
			os.Exit(1)
		}
		archive := store.NewArchive(db)
		auditRepo = audit.NewPostgresRepo(db)
		reportRepo = reporting.NewPostgresRepo(db)
		svc.Archive = archive
		h.Archive = archive
	} else {
		log.Warn("postgres disabled; audit trail and summaries are in memory, records are not archived")
	}
	svc.Audit = audit.NewService(auditRepo)
	svc.Reports = reporting.NewService(reportRepo)

	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		h.Limiter = httpapi.RedisLimiter{
			RDB:   rdb,
			Limit: cfg.Reconcile.MaxConcurrentPerClient,
			TTL:   cfg.Reconcile.SlotTTL,
		}
		h.Cache = utils.NewResultCache(rdb, "reconcile:result", cfg.Reconcile.CacheTTL)
	}

	h.Runner = svc
	h.Reports = svc.Reports

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager), !cfg.IsProduction())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
