package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/lock"
	"gorm.io/gorm"
)

var errNilTxFunc = errors.New("database: transaction function is nil")

// WithTransaction runs fn in a transaction bound to ctx. Returning an error rolls back.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(*gorm.DB) error) error {
	if fn == nil {
		return errNilTxFunc
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return db.WithContext(ctx).Transaction(fn)
}

// WithLockedTransaction holds the keyed lock for the whole transaction so that
// the lock is released only after commit or rollback.
func WithLockedTransaction(ctx context.Context, db *gorm.DB, locker lock.Locker, key string, fn func(*gorm.DB) error) error {
	if fn == nil {
		return errNilTxFunc
	}
	if locker == nil {
		return WithTransaction(ctx, db, fn)
	}

	release, err := locker.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("database: acquire lock %q: %w", key, err)
	}
	defer release()

	return WithTransaction(ctx, db, fn)
}
