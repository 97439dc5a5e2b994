package physicalrequest

import (
	"context"
	"errors"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"gorm.io/gorm"
)

var errStatusChanged = errors.New("physical request status changed concurrently")

// publicColumns is the projection used for every non-admin read.
// hashed_ip and user_agent never leave the database on these paths.
var publicColumns = []string{
	"id", "letter_id", "batch_id", "requester_type", "requester_key",
	"recipient_name", "recipient_phone", "postal_code", "address_line1", "address_line2", "memo",
	"shipping_cost", "letter_cost", "total_cost", "status",
	"approved_at", "approved_by", "rejected_at", "rejected_by", "rejection_reason", "cancelled_at",
	"tracking_number", "shipping_company", "sent_at", "delivered_at", "failed_at", "failure_reason",
	"created_at", "updated_at",
}

type ListFilter struct {
	LetterID *uint32
	Status   model.PhysicalRequestStatus
	From     *time.Time
	To       *time.Time
}

type StatusCount struct {
	Status    model.PhysicalRequestStatus `gorm:"column:status"`
	Count     int64                       `gorm:"column:count"`
	TotalCost int64                       `gorm:"column:total_cost"`
}

type LetterRanking struct {
	LetterID     uint32 `gorm:"column:letter_id"`
	RequestCount int64  `gorm:"column:request_count"`
	TotalRevenue int64  `gorm:"column:total_revenue"`
}

// RequestRepository is the ledger of physical requests.
// Rows are inserted once and afterwards only change through CompareAndSetStatus.
type RequestRepository interface {
	Create(ctx context.Context, db *gorm.DB, requests []*model.PhysicalRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*model.PhysicalRequest, error)
	FindByIDForAdmin(ctx context.Context, db *gorm.DB, id string) (*model.PhysicalRequest, error)
	CountLive(ctx context.Context, db *gorm.DB, letterID uint32, requesterType, requesterKey string) (int64, error)
	CompareAndSetStatus(ctx context.Context, db *gorm.DB, id string, from model.PhysicalRequestStatus, updates map[string]interface{}) error
	AppendNote(ctx context.Context, db *gorm.DB, note *model.PhysicalRequestNote) error
	Touch(ctx context.Context, db *gorm.DB, id string, at time.Time) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, offset, limit int, admin bool) ([]model.PhysicalRequest, int64, error)
	CountByStatus(ctx context.Context, db *gorm.DB, letterID uint32) ([]StatusCount, error)
	Popular(ctx context.Context, db *gorm.DB, limit int) ([]LetterRanking, error)
}

type GormRequestRepository struct{}

func NewGormRequestRepository() *GormRequestRepository {
	return &GormRequestRepository{}
}

func (r *GormRequestRepository) Create(ctx context.Context, db *gorm.DB, requests []*model.PhysicalRequest) error {
	if len(requests) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(requests).Error
}

func (r *GormRequestRepository) FindByID(ctx context.Context, db *gorm.DB, id string) (*model.PhysicalRequest, error) {
	var request model.PhysicalRequest
	err := db.WithContext(ctx).
		Select(publicColumns).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *GormRequestRepository) FindByIDForAdmin(ctx context.Context, db *gorm.DB, id string) (*model.PhysicalRequest, error) {
	var request model.PhysicalRequest
	err := db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// CountLive counts non-cancelled, non-rejected requests of one requester on a letter.
// A session token may spell the same string as a member id, so the type is part of the key.
func (r *GormRequestRepository) CountLive(ctx context.Context, db *gorm.DB, letterID uint32, requesterType, requesterKey string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&model.PhysicalRequest{}).
		Where("letter_id = ? AND requester_type = ? AND requester_key = ?", letterID, requesterType, requesterKey).
		Where("status NOT IN ?", []model.PhysicalRequestStatus{model.StatusCancelled, model.StatusRejected}).
		Count(&count).Error
	return count, err
}

// CompareAndSetStatus applies updates only if the row is still in status from
func (r *GormRequestRepository) CompareAndSetStatus(ctx context.Context, db *gorm.DB, id string, from model.PhysicalRequestStatus, updates map[string]interface{}) error {
	result := db.WithContext(ctx).
		Model(&model.PhysicalRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errStatusChanged
	}
	return nil
}

func (r *GormRequestRepository) AppendNote(ctx context.Context, db *gorm.DB, note *model.PhysicalRequestNote) error {
	return db.WithContext(ctx).Create(note).Error
}

// Touch refreshes updated_at without changing status
func (r *GormRequestRepository) Touch(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&model.PhysicalRequest{}).
		Where("id = ?", id).
		Update("updated_at", at).Error
}

func (r *GormRequestRepository) List(ctx context.Context, db *gorm.DB, filter ListFilter, offset, limit int, admin bool) ([]model.PhysicalRequest, int64, error) {
	query := db.WithContext(ctx).Model(&model.PhysicalRequest{})
	if filter.LetterID != nil {
		query = query.Where("letter_id = ?", *filter.LetterID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if !admin {
		query = query.Select(publicColumns)
	}

	var requests []model.PhysicalRequest
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *GormRequestRepository) CountByStatus(ctx context.Context, db *gorm.DB, letterID uint32) ([]StatusCount, error) {
	var counts []StatusCount
	err := db.WithContext(ctx).
		Model(&model.PhysicalRequest{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_cost), 0) AS total_cost").
		Where("letter_id = ?", letterID).
		Group("status").
		Scan(&counts).Error
	return counts, err
}

// Popular ranks letters by request count. Revenue only counts live requests.
func (r *GormRequestRepository) Popular(ctx context.Context, db *gorm.DB, limit int) ([]LetterRanking, error) {
	var rankings []LetterRanking
	err := db.WithContext(ctx).
		Model(&model.PhysicalRequest{}).
		Select("letter_id, COUNT(*) AS request_count, "+
			"COALESCE(SUM(CASE WHEN status NOT IN ? THEN total_cost ELSE 0 END), 0) AS total_revenue",
			[]model.PhysicalRequestStatus{model.StatusCancelled, model.StatusRejected}).
		Group("letter_id").
		Order("request_count DESC").
		Order("letter_id ASC").
		Limit(limit).
		Scan(&rankings).Error
	return rankings, err
}
