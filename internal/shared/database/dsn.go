package database

import (
	"fmt"
	"net/url"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"

	oracle "github.com/godoes/gorm-oracle"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "oracle":
		return oracle.Open(oracleDSN(cfg)), nil
	case "postgres":
		return postgres.Open(postgresDSN(cfg)), nil
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("지원하지 않는 데이터베이스 드라이버: %s", cfg.Driver)
	}
}

// oracleDSN targets Oracle Cloud ATP, which requires SSL
func oracleDSN(cfg config.DatabaseConfig) string {
	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Service,
		RawQuery: "SSL=true",
	}).String()
}

// postgresDSN uses Service as the database name
func postgresDSN(cfg config.DatabaseConfig) string {
	return (&url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Service,
		RawQuery: "sslmode=require",
	}).String()
}
