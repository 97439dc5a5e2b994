package testutil

import (
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
)

// NewTestConfig creates a test configuration
// This removes the need for environment variables during testing
func NewTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "letter-press-api-test",
			Env:  "test",
			Port: 8080,
		},
		Database: config.DatabaseConfig{
			Driver:          "sqlite",
			SQLitePath:      ":memory:",
			Host:            "localhost",
			Port:            1521,
			Service:         "test",
			User:            "test",
			Password:        "test",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 10 * time.Minute,
			MigrateMode:     config.MigrateRecreate,
		},
		JWT: config.JWTConfig{
			Secret:        "test-jwt-secret-key-must-be-at-least-32-characters-long",
			Expiry:        24 * time.Hour,
			RefreshExpiry: 168 * time.Hour,
		},
		CORS: config.CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           86400,
		},
		Server: config.ServerConfig{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			GracefulTimeout: 30 * time.Second,
			RequestTimeout:  5 * time.Second,
		},
		Physical: config.PhysicalConfig{
			LetterCost:               2000,
			ShippingCostMetro:        3000,
			ShippingCostStandard:     3000,
			ShippingCostRemote:       3500,
			DefaultMaxPerPerson:      5,
			MaxRecipientsPerRequest:  10,
			DefaultPageSize:          20,
			MaxPageSize:              100,
			PopularLettersMaxResults: 50,
		},
		Session: config.SessionConfig{
			Secret:     "test-session-secret-key-at-least-32-characters",
			CookieName: "letter_session",
			MaxAge:     720 * time.Hour,
		},
		Redis: config.RedisConfig{
			LockTTL: 10 * time.Second,
		},
		Notify: config.NotifyConfig{
			BufferSize: 16,
		},
		Scheduler: config.SchedulerConfig{
			Enabled:       false,
			ReconcileSpec: "0 4 * * *",
			JobTimeout:    time.Minute,
		},
		Throttle: config.ThrottleConfig{
			SubmitRPS:   100,
			SubmitBurst: 100,
		},
	}
}
