package letter

import (
	"context"
	"errors"
	"fmt"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/database"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"gorm.io/gorm"
)

type LetterService struct {
	db               *gorm.DB
	letterRepository *LetterRepository
	policy           config.PhysicalConfig
}

func NewLetterService(db *gorm.DB, letterRepository *LetterRepository, policy config.PhysicalConfig) *LetterService {
	return &LetterService{
		db:               db,
		letterRepository: letterRepository,
		policy:           policy,
	}
}

func (s *LetterService) Create(ctx context.Context, authorID uint32, request *CreateLetterRequest) (*LetterResponse, error) {
	log := logger.FromContext(ctx)

	letter := model.NewLetter(authorID, request.Title, request.Type)
	letter.AllowPhysicalRequests = request.AllowPhysicalRequests
	letter.AutoApprove = request.AutoApprove
	letter.MaxRequestsPerPerson = s.policy.DefaultMaxPerPerson
	if request.MaxRequestsPerPerson > 0 {
		letter.MaxRequestsPerPerson = request.MaxRequestsPerPerson
	}
	if request.MaxRecipientsPerRequest > 0 {
		letter.MaxRecipientsPerRequest = min(request.MaxRecipientsPerRequest, s.policy.MaxRecipientsPerRequest)
	}

	if err := s.letterRepository.Create(ctx, s.db, letter); err != nil {
		log.Error("편지 생성 실패", "error", err)
		return nil, fmt.Errorf("create letter: %w", err)
	}

	log.Info("편지 생성 완료", "letter_id", letter.ID, "author_id", authorID)
	return toLetterResponse(letter), nil
}

func (s *LetterService) Get(ctx context.Context, letterID uint32) (*LetterResponse, error) {
	letter, err := s.letterRepository.FindByID(ctx, s.db, letterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("편지를 찾을 수 없습니다 letterID=%d %w", letterID, ErrLetterNotFound)
		}
		return nil, fmt.Errorf("편지 조회 실패: %w", err)
	}
	return toLetterResponse(letter), nil
}

// UpdatePhysicalSettings changes the request policy of a letter; only its author or an admin may do so
func (s *LetterService) UpdatePhysicalSettings(ctx context.Context, memberID uint32, isAdmin bool, letterID uint32, request *UpdatePhysicalSettingsRequest) (*LetterResponse, error) {
	log := logger.FromContext(ctx)
	var response *LetterResponse

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		letter, err := s.letterRepository.FindByIDForUpdate(ctx, tx, letterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("편지를 찾을 수 없습니다 letterID=%d %w", letterID, ErrLetterNotFound)
			}
			return fmt.Errorf("편지 조회 실패: %w", err)
		}
		if !isAdmin && !letter.IsAuthor(memberID) {
			log.Warn("편지 설정 변경 권한 없음", "letter_id", letterID, "member_id", memberID)
			return fmt.Errorf("memberID=%d %w", memberID, ErrNotLetterAuthor)
		}

		settings := map[string]interface{}{"updated_by": memberID}
		if request.AllowPhysicalRequests != nil {
			settings["allow_physical_requests"] = *request.AllowPhysicalRequests
			letter.AllowPhysicalRequests = *request.AllowPhysicalRequests
		}
		if request.AutoApprove != nil {
			settings["auto_approve"] = *request.AutoApprove
			letter.AutoApprove = *request.AutoApprove
		}
		if request.MaxRequestsPerPerson != nil {
			settings["max_requests_per_person"] = *request.MaxRequestsPerPerson
			letter.MaxRequestsPerPerson = *request.MaxRequestsPerPerson
		}
		if request.MaxRecipientsPerRequest != nil {
			capped := min(*request.MaxRecipientsPerRequest, s.policy.MaxRecipientsPerRequest)
			settings["max_recipients_per_request"] = capped
			letter.MaxRecipientsPerRequest = capped
		}

		if err := s.letterRepository.UpdateSettings(ctx, tx, letterID, settings); err != nil {
			return fmt.Errorf("편지 설정 변경 실패: %w", err)
		}

		response = toLetterResponse(letter)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("편지 실물 신청 설정 변경", "letter_id", letterID, "member_id", memberID)
	return response, nil
}

func toLetterResponse(l *model.Letter) *LetterResponse {
	return &LetterResponse{
		ID:       l.ID,
		AuthorID: l.AuthorID,
		Title:    l.Title,
		Type:     l.Type,
		PhysicalSettings: PhysicalSettings{
			AllowPhysicalRequests:   l.AllowPhysicalRequests,
			AutoApprove:             l.AutoApprove,
			MaxRequestsPerPerson:    l.MaxRequestsPerPerson,
			MaxRecipientsPerRequest: l.MaxRecipientsPerRequest,
		},
		Counters: CountersOf(l),
	}
}
