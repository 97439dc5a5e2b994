package member

import (
	"context"
	"errors"
	"fmt"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/database"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"gorm.io/gorm"
)

type MemberService struct {
	db               *gorm.DB
	memberRepository *MemberRepository
}

func NewMemberService(db *gorm.DB, memberRepository *MemberRepository) *MemberService {
	return &MemberService{
		db:               db,
		memberRepository: memberRepository,
	}
}

// GetProfile returns the member with a summary of their letters and physical requests
func (s *MemberService) GetProfile(ctx context.Context, memberID uint32) (*GetProfileResponse, error) {
	member, err := s.memberRepository.FindByID(ctx, s.db, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("회원을 찾을 수 없습니다 memberID=%d %w", memberID, ErrMemberNotFound)
		}
		return nil, fmt.Errorf("회원 조회 실패: %w", err)
	}

	activity, err := s.memberRepository.CountActivity(ctx, s.db, memberID)
	if err != nil {
		logger.FromContext(ctx).Error("회원 활동 집계 실패", "member_id", memberID, "error", err)
		return nil, fmt.Errorf("회원 활동 집계 실패: %w", err)
	}

	return &GetProfileResponse{
		ID:          member.ID,
		Name:        member.Name,
		Email:       member.Email,
		PhoneNumber: member.PhoneNumber,
		Role:        member.Role,
		Activity:    activity,
	}, nil
}

// ChangeRole grants or revokes ADMIN. The change reaches the member's access token on the next refresh.
func (s *MemberService) ChangeRole(ctx context.Context, actorID, memberID uint32, role string) (*GetProfileResponse, error) {
	log := logger.FromContext(ctx)
	if actorID == memberID {
		return nil, fmt.Errorf("memberID=%d %w", memberID, ErrSelfRoleChange)
	}

	var previous string
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		member, err := s.memberRepository.FindByID(ctx, tx, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("회원을 찾을 수 없습니다 memberID=%d %w", memberID, ErrMemberNotFound)
			}
			return fmt.Errorf("회원 조회 실패: %w", err)
		}
		previous = member.Role
		if previous == role {
			return nil
		}
		return s.memberRepository.UpdateRole(ctx, tx, memberID, role, actorID)
	})
	if err != nil {
		return nil, err
	}

	log.Info("회원 권한 변경", "member_id", memberID, "from", previous, "to", role, "admin_id", actorID)
	return s.GetProfile(ctx, memberID)
}
