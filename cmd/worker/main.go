package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/saree-crm/saree-crm/internal/app"
	"github.com/saree-crm/saree-crm/internal/platform/db"
	"github.com/saree-crm/saree-crm/internal/platform/schema"
	"github.com/saree-crm/saree-crm/internal/sales"
	"github.com/saree-crm/saree-crm/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger, logFile := app.NewLogger(cfg)
	defer logFile.Close()

	conn, dialect, err := db.New(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer conn.Close()

	report := schema.NewReconciler(schema.NewSQLCatalog(conn, dialect), logger).Reconcile(ctx, sales.Tables()...)
	if err := report.Err(); err != nil {
		logger.Error("schema reconcile incomplete, continuing", slog.Any("error", err))
	}

	salesService := sales.NewService(sales.NewRepository(conn, dialect))
	dueJob := jobs.NewFollowUpsDueJob(salesService, logger, nil)

	dueTask, err := jobs.NewFollowUpsDueScanTask(cfg.FollowUpLookahead)
	if err != nil {
		logger.Error("build due-scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskFollowUpsDueScan, Handler: dueJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.FollowUpScanCron, Task: dueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("cron", cfg.FollowUpScanCron), slog.Duration("lookahead", cfg.FollowUpLookahead))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
