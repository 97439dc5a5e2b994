package letter

import (
	"context"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"gorm.io/gorm"
)

// Counters mirrors the aggregate columns on a letter. As a delta, negative values decrement.
type Counters struct {
	Total     int64 `json:"totalRequests"`
	Pending   int64 `json:"pendingRequests"`
	Approved  int64 `json:"approvedRequests"`
	Rejected  int64 `json:"rejectedRequests"`
	Completed int64 `json:"completedRequests"`
}

func (c Counters) Add(o Counters) Counters {
	return Counters{
		Total:     c.Total + o.Total,
		Pending:   c.Pending + o.Pending,
		Approved:  c.Approved + o.Approved,
		Rejected:  c.Rejected + o.Rejected,
		Completed: c.Completed + o.Completed,
	}
}

func (c Counters) Sub(o Counters) Counters {
	return c.Add(o.Scale(-1))
}

func (c Counters) Scale(n int64) Counters {
	return Counters{
		Total:     c.Total * n,
		Pending:   c.Pending * n,
		Approved:  c.Approved * n,
		Rejected:  c.Rejected * n,
		Completed: c.Completed * n,
	}
}

func (c Counters) IsZero() bool {
	return c == Counters{}
}

func CountersOf(l *model.Letter) Counters {
	return Counters{
		Total:     l.TotalRequests,
		Pending:   l.PendingRequests,
		Approved:  l.ApprovedRequests,
		Rejected:  l.RejectedRequests,
		Completed: l.CompletedRequests,
	}
}

// CounterStore owns every write to the letter aggregate columns.
// ApplyDelta is the only path used by the request lifecycle; Overwrite is reserved for reconciliation.
type CounterStore interface {
	ApplyDelta(ctx context.Context, db *gorm.DB, letterID uint32, delta Counters) error
	Overwrite(ctx context.Context, db *gorm.DB, letterID uint32, counters Counters) error
	Read(ctx context.Context, db *gorm.DB, letterID uint32) (Counters, error)
}

type GormCounterStore struct{}

func NewGormCounterStore() *GormCounterStore {
	return &GormCounterStore{}
}

func (s *GormCounterStore) ApplyDelta(ctx context.Context, db *gorm.DB, letterID uint32, delta Counters) error {
	if delta.IsZero() {
		return nil
	}

	updates := map[string]interface{}{}
	addExpr(updates, "total_requests", delta.Total)
	addExpr(updates, "pending_requests", delta.Pending)
	addExpr(updates, "approved_requests", delta.Approved)
	addExpr(updates, "rejected_requests", delta.Rejected)
	addExpr(updates, "completed_requests", delta.Completed)

	result := db.WithContext(ctx).
		Model(&model.Letter{}).
		Where("id = ?", letterID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLetterNotFound
	}
	return nil
}

func (s *GormCounterStore) Overwrite(ctx context.Context, db *gorm.DB, letterID uint32, counters Counters) error {
	result := db.WithContext(ctx).
		Model(&model.Letter{}).
		Where("id = ?", letterID).
		Updates(map[string]interface{}{
			"total_requests":     counters.Total,
			"pending_requests":   counters.Pending,
			"approved_requests":  counters.Approved,
			"rejected_requests":  counters.Rejected,
			"completed_requests": counters.Completed,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLetterNotFound
	}
	return nil
}

func (s *GormCounterStore) Read(ctx context.Context, db *gorm.DB, letterID uint32) (Counters, error) {
	var l model.Letter
	err := db.WithContext(ctx).
		Select("id", "total_requests", "pending_requests", "approved_requests", "rejected_requests", "completed_requests").
		Where("id = ?", letterID).
		First(&l).Error
	if err != nil {
		return Counters{}, err
	}
	return CountersOf(&l), nil
}

func addExpr(updates map[string]interface{}, column string, n int64) {
	if n == 0 {
		return
	}
	updates[column] = gorm.Expr(column+" + ?", n)
}
