package database

import (
	"fmt"
	"log/slog"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"

	"gorm.io/gorm"
)

// Models returns every persisted model in FK dependency order
func Models() []interface{} {
	return []interface{}{
		&model.Member{},
		&model.Letter{},
		// letter 참조
		&model.PhysicalRequest{},
		// physical_request 참조
		&model.PhysicalRequestNote{},
	}
}

// Migrate applies cfg.Database.MigrateMode. update only adds missing tables and
// columns; recreate drops everything first and is refused in production.
func Migrate(db *gorm.DB, cfg *config.Config) error {
	mode := cfg.Database.MigrateMode
	log := slog.With("component", "migration", "mode", mode, "env", cfg.App.Env)

	switch mode {
	case "", config.MigrateNone:
		log.Info("⏭️  데이터베이스 마이그레이션 비활성화됨")
		return nil
	case config.MigrateUpdate:
		log.Info("📦 누락된 테이블/컬럼 추가 중...")
	case config.MigrateRecreate:
		if cfg.IsProduction() {
			return fmt.Errorf("🚨 PRODUCTION 환경에서는 DB_MIGRATE=recreate를 사용할 수 없습니다")
		}
		log.Warn("🔧 모든 테이블이 삭제되고 재생성됩니다!")
		if err := dropAll(db); err != nil {
			return err
		}
	default:
		return fmt.Errorf("지원하지 않는 마이그레이션 모드: %s", mode)
	}

	if err := autoMigrate(db); err != nil {
		return fmt.Errorf("테이블 생성 실패: %w", err)
	}

	log.Info("✅ 마이그레이션 완료!")
	return nil
}

// dropAll drops in reverse dependency order so FK constraints never block a drop
func dropAll(db *gorm.DB) error {
	models := Models()
	migrator := db.Migrator()
	for i := len(models) - 1; i >= 0; i-- {
		m := models[i]
		if !migrator.HasTable(m) {
			continue
		}
		if err := migrator.DropTable(m); err != nil {
			return fmt.Errorf("%T 테이블 삭제 실패: %w", m, err)
		}
		slog.Debug("테이블 삭제됨", "model", fmt.Sprintf("%T", m))
	}
	return nil
}

func autoMigrate(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("%T 마이그레이션 실패: %w", m, err)
		}
	}
	return nil
}
