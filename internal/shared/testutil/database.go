package testutil

import (
	"testing"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates a migrated in-memory SQLite database
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// 각 커넥션이 별도의 메모리 DB를 가지므로 단일 커넥션으로 고정
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the database opened by SetupTestDB
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("Failed to get database instance: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Errorf("Failed to close database: %v", err)
	}
}

// SeedMember inserts a member with a placeholder password hash
func SeedMember(t *testing.T, db *gorm.DB, email, role string) *model.Member {
	t.Helper()

	member := model.NewMember("테스트", email, "010-1234-5678", "$2a$10$placeholderplaceholderplaceholderplaceholderpla")
	member.Role = role
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("Failed to seed member %s: %v", email, err)
	}
	return member
}

// SeedLetter inserts a letter that accepts physical requests unless mutate says otherwise
func SeedLetter(t *testing.T, db *gorm.DB, authorID uint32, mutate func(*model.Letter)) *model.Letter {
	t.Helper()

	letter := model.NewLetter(authorID, "봄날의 편지", model.LetterTypeLetter)
	letter.AllowPhysicalRequests = true
	if mutate != nil {
		mutate(letter)
	}
	if err := db.Create(letter).Error; err != nil {
		t.Fatalf("Failed to seed letter: %v", err)
	}
	return letter
}
