package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/bootstrap"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/notify"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/router"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/scheduler"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/clock"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/database"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/lock"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/validator"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Parse command line flags
	env := parseFlags()

	// Initialize logger
	logger.Setup(env)
	slog.Info("서버 초기화 시작", "env", env)

	// Run application
	if err := run(env); err != nil {
		slog.Error("서버 초기화 실패", "error", err)
		os.Exit(1)
	}

	slog.Info("서버 종료 완료", "env", env)
}

// parseFlags parses command line arguments
func parseFlags() string {
	env := flag.String("env", "local", "Environment (local|dev|production)")
	flag.Parse()
	return *env
}

// run contains the main application logic
func run(env string) error {
	// Create root context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("설정 로드 실패: %w", err)
	}

	slog.Info("환경 변수 로드 성공")

	if err := logger.SetLevel(cfg.App.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL 값이 올바르지 않습니다: %w", err)
	}

	// Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("데이터베이스 연결 실패: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("데이터베이스 종료 실패", "error", err)
		}
	}()

	// Redis (optional): 다중 인스턴스 환경의 신청 잠금
	infra := router.Infra{Clock: clock.New()}
	if cfg.RedisEnabled() {
		redisClient, err := connectRedis(ctx, cfg)
		if err != nil {
			return fmt.Errorf("Redis 연결 실패: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				slog.Error("Redis 종료 실패", "error", err)
			}
		}()
		infra.Redis = redisClient
		infra.Locker = lock.NewRedisLocker(redisClient, cfg.Redis.LockTTL)
	} else {
		slog.Warn("REDIS_ADDR 미설정 - 프로세스 내부 잠금을 사용합니다")
		infra.Locker = lock.NewLocalLocker()
	}

	// Notifier
	dispatcher := newDispatcher(cfg)
	dispatcher.Start()
	infra.Publisher = dispatcher

	// Setup server
	srv, services, err := setupServer(cfg, db, infra)
	if err != nil {
		return fmt.Errorf("서버 설정 실패: %w", err)
	}
	srv.OnShutdown("notify", dispatcher.Close)

	// Background jobs
	if cfg.Scheduler.Enabled {
		jobs, err := scheduler.New(cfg.Scheduler, services.Reconciler)
		if err != nil {
			return fmt.Errorf("스케줄러 생성 실패: %w", err)
		}
		jobs.Start()
		srv.OnShutdown("scheduler", jobs.Stop)
	}

	// Start server with graceful shutdown
	return startWithGracefulShutdown(ctx, srv, cfg.Server.GracefulTimeout)
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	slog.Info("Redis 연결 성공", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	return client, nil
}

func newDispatcher(cfg *config.Config) *notify.Dispatcher {
	sinks := []notify.Sink{notify.NewLogSink(slog.Default())}
	if cfg.SMTPEnabled() {
		mailer := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.Notify.SMTPHost,
			Port:     cfg.Notify.SMTPPort,
			Username: cfg.Notify.SMTPUsername,
			Password: cfg.Notify.SMTPPassword,
			From:     cfg.Notify.SMTPFrom,
		})
		sinks = append(sinks, notify.NewEmailSink(mailer, cfg.Notify.AdminEmails))
	}
	return notify.NewDispatcher(cfg.Notify.BufferSize, sinks...)
}

// setupServer initializes and configures the HTTP server
func setupServer(cfg *config.Config, db *database.DB, infra router.Infra) (*bootstrap.Server, *router.Services, error) {
	// Bootstrap server with common setup
	ginEngine, err := bootstrap.NewBootstrap(cfg).SetupEngine()
	if err != nil {
		return nil, nil, err
	}

	// Register common validators
	if err := validator.RegisterAll(); err != nil {
		return nil, nil, fmt.Errorf("공통 Validator 등록 실패: %w", err)
	}

	// Setup application-specific routes
	services := router.Setup(ginEngine, cfg, db, infra)

	slog.Info("서버 설정 완료",
		"env", cfg.App.Env,
		"db_driver", cfg.Database.Driver,
		"redis", cfg.RedisEnabled(),
		"smtp", cfg.SMTPEnabled(),
	)

	return bootstrap.New(cfg, ginEngine), services, nil
}

// startWithGracefulShutdown starts the server and stops it together with its registered components
func startWithGracefulShutdown(ctx context.Context, srv *bootstrap.Server, gracefulTimeout time.Duration) error {
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var serveErr error
	select {
	case err := <-serverErrors:
		// 서버가 먼저 멈춘 경우에도 백그라운드 컴포넌트는 정리
		if err != nil {
			serveErr = fmt.Errorf("서버 오류: %w", err)
		}
	case sig := <-quit:
		slog.Info("종료 신호 수신됨", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), gracefulTimeout)
	defer cancel()

	slog.Info("서버 종료 중...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(serveErr, fmt.Errorf("서버 강제 종료: %w", err))
	}
	return serveErr
}
