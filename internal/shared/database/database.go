package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"

	"gorm.io/gorm"
)

const pingTimeout = 5 * time.Second

// DB wraps the GORM database instance
type DB struct {
	*gorm.DB
	driver string
}

// New opens the configured database, checks it answers, then migrates
func New(cfg *config.Config) (*DB, error) {
	dialector, err := openDialector(cfg.Database)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newLogger(cfg),
		PrepareStmt:            true,
		SkipDefaultTransaction: true, // 쓰기는 WithTransaction으로 명시적으로 묶음
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("데이터베이스 연결 실패: %w", err)
	}

	wrapped := Wrap(db, cfg.Database.Driver)
	if err := wrapped.configurePool(cfg.Database); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := wrapped.HealthCheck(ctx); err != nil {
		return nil, err
	}

	slog.Info("데이터베이스 연결 성공",
		"driver", cfg.Database.Driver,
		"host", cfg.Database.Host,
		"service", cfg.Database.Service,
		"max_open_conns", cfg.Database.MaxOpenConns,
		"conn_max_lifetime", cfg.Database.ConnMaxLifetime.String(),
	)

	if err := Migrate(db, cfg); err != nil {
		return nil, fmt.Errorf("마이그레이션 실패: %w", err)
	}

	return wrapped, nil
}

// Wrap adopts an already opened connection, such as a test database
func Wrap(db *gorm.DB, driver string) *DB {
	return &DB{DB: db, driver: driver}
}

func (db *DB) configurePool(cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("데이터베이스 인스턴스 가져오기 실패: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	if cfg.Driver == "sqlite" {
		// SQLite는 단일 writer
		sqlDB.SetMaxOpenConns(1)
	}
	return nil
}

func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("데이터베이스 인스턴스 가져오기 실패: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("데이터베이스 종료 실패: %w", err)
	}

	slog.Info("데이터베이스 연결이 종료되었습니다", "driver", db.driver)
	return nil
}

// HealthCheck pings the database within ctx
func (db *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("데이터베이스 인스턴스 가져오기 실패: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("데이터베이스 상태 확인 실패: %w", err)
	}
	return nil
}
