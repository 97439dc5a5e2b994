package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/physicalrequest"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/metrics"
	"github.com/robfig/cron/v3"
)

const jobReconcileCounters = "reconcile_counters"

type CounterReconciler interface {
	ReconcileAll(ctx context.Context, trigger string) (*physicalrequest.ReconcileReport, error)
}

// Scheduler runs the periodic background jobs. Each job run gets its own
// timeout-bound context and overlapping runs of the same job are skipped.
type Scheduler struct {
	cron       *cron.Cron
	reconciler CounterReconciler
	timeout    time.Duration
	log        *slog.Logger
}

func New(cfg config.SchedulerConfig, reconciler CounterReconciler) (*Scheduler, error) {
	log := slog.Default().With("component", "scheduler")
	adapter := cronLogger{log: log}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		reconciler: reconciler,
		timeout:    cfg.JobTimeout,
		log:        log,
	}

	if _, err := s.cron.AddFunc(cfg.ReconcileSpec, func() {
		_ = s.RunReconcile(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("집계 보정 스케줄 등록 실패 spec=%q: %w", cfg.ReconcileSpec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("스케줄러 시작", "jobs", len(s.cron.Entries()))
}

// Stop prevents new runs and waits for running jobs until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("스케줄러 종료")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("스케줄러 종료 대기 시간 초과: %w", ctx.Err())
	}
}

// RunReconcile executes the counter reconciliation job once
func (s *Scheduler) RunReconcile(ctx context.Context) error {
	return s.runJob(ctx, jobReconcileCounters, func(ctx context.Context) error {
		_, err := s.reconciler.ReconcileAll(ctx, physicalrequest.TriggerScheduler)
		return err
	})
}

func (s *Scheduler) runJob(ctx context.Context, name string, fn func(context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.log.With("job", name)
	ctx = logger.WithLogger(ctx, log)

	start := time.Now()
	log.Info("작업 시작")
	err := fn(ctx)
	duration := time.Since(start)
	metrics.JobRun(name, duration, err)

	if err != nil {
		log.Error("작업 실패", "duration", duration, "error", err)
		return err
	}
	log.Info("작업 완료", "duration", duration)
	return nil
}

// cronLogger adapts slog to the cron.Logger interface
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
