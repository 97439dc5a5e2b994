package member

import (
	"context"
	"strconv"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"gorm.io/gorm"
)

type MemberRepository struct{}

func NewMemberRepository() *MemberRepository {
	return &MemberRepository{}
}

func (m *MemberRepository) IsExist(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&model.Member{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (m *MemberRepository) Create(ctx context.Context, db *gorm.DB, member *model.Member) error {
	return db.WithContext(ctx).Create(member).Error
}

func (m *MemberRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*model.Member, error) {
	return m.findOne(ctx, db, "email = ?", email)
}

func (m *MemberRepository) FindByID(ctx context.Context, db *gorm.DB, id uint32) (*model.Member, error) {
	return m.findOne(ctx, db, "id = ?", id)
}

// CountActivity counts authored letters and the physical requests submitted as this account
func (m *MemberRepository) CountActivity(ctx context.Context, db *gorm.DB, memberID uint32) (ProfileActivity, error) {
	var activity ProfileActivity

	if err := db.WithContext(ctx).
		Model(&model.Letter{}).
		Where("author_id = ?", memberID).
		Count(&activity.Letters).Error; err != nil {
		return activity, err
	}

	requests := func() *gorm.DB {
		return db.WithContext(ctx).
			Model(&model.PhysicalRequest{}).
			Where("requester_type = ? AND requester_key = ?", model.RequesterTypeAccount, strconv.FormatUint(uint64(memberID), 10))
	}
	if err := requests().Count(&activity.PhysicalRequests).Error; err != nil {
		return activity, err
	}
	err := requests().
		Where("status NOT IN ?", []model.PhysicalRequestStatus{model.StatusCancelled, model.StatusRejected}).
		Count(&activity.LivePhysicalRequests).Error
	return activity, err
}

func (m *MemberRepository) UpdateRole(ctx context.Context, db *gorm.DB, id uint32, role string, actorID uint32) error {
	return db.WithContext(ctx).
		Model(&model.Member{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":       role,
			"updated_by": actorID,
		}).Error
}

func (m *MemberRepository) findOne(ctx context.Context, db *gorm.DB, query string, args ...any) (*model.Member, error) {
	var member model.Member
	if err := db.WithContext(ctx).Where(query, args...).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}
