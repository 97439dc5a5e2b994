package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/database"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/lock"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	// When: fn fails after an insert
	err := database.WithTransaction(context.Background(), db, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(model.NewLetter(7, "취소될 편지", "")).Error)
		return errors.New("stop")
	})

	// Then: Nothing is committed
	assert.EqualError(t, err, "stop")
	var count int64
	require.NoError(t, db.Model(&model.Letter{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.Error(t, database.WithTransaction(context.Background(), db, nil))
}

func TestWithLockedTransaction_ReleasesAfterCommit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	locker := lock.NewLocalLocker()

	// When: Transaction commits under the lock
	err := database.WithLockedTransaction(context.Background(), db, locker, "letter:1", func(tx *gorm.DB) error {
		return tx.Create(model.NewLetter(7, "봄날의 편지", "")).Error
	})
	require.NoError(t, err)

	// Then: Key is free again
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	release, err := locker.Acquire(ctx, "letter:1")
	require.NoError(t, err)
	release()
}

func TestWithLockedTransaction_LockTimeout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	locker := lock.NewLocalLocker()

	// Given: Key held by another caller
	release, err := locker.Acquire(context.Background(), "letter:1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// When: Second caller waits past its deadline
	called := false
	err = database.WithLockedTransaction(ctx, db, locker, "letter:1", func(tx *gorm.DB) error {
		called = true
		return nil
	})

	// Then: fn never runs
	assert.ErrorIs(t, err, lock.ErrLockTimeout)
	assert.False(t, called)
}
