package physicalrequest

import (
	"context"
	"fmt"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"gorm.io/gorm"
)

const defaultPopularLimit = 10

// Summary counts the requests of a letter by status straight from the ledger
func (s *PhysicalRequestService) Summary(ctx context.Context, letterID uint32) (*LetterSummary, error) {
	return s.summarize(ctx, s.db, letterID)
}

func (s *PhysicalRequestService) summarize(ctx context.Context, db *gorm.DB, letterID uint32) (*LetterSummary, error) {
	counts, err := s.requests.CountByStatus(ctx, db, letterID)
	if err != nil {
		return nil, fmt.Errorf("신청 상태별 집계 실패: %w", err)
	}

	summary := &LetterSummary{
		LetterID: letterID,
		ByStatus: make(map[string]int64, len(model.AllStatuses)),
	}
	for _, status := range model.AllStatuses {
		summary.ByStatus[string(status)] = 0
	}
	for _, c := range counts {
		summary.ByStatus[string(c.Status)] = c.Count
		summary.TotalRequests += c.Count
		summary.TotalCost += c.TotalCost
	}
	return summary, nil
}

// AdminList is the paginated admin view across all letters, newest first
func (s *PhysicalRequestService) AdminList(ctx context.Context, query ListQuery) (*AdminListResponse, error) {
	filter, err := s.buildFilter(query)
	if err != nil {
		return nil, err
	}
	if query.LetterID != 0 {
		letterID := query.LetterID
		filter.LetterID = &letterID
	}

	page, size := s.pageOf(query.Page, query.Size)
	requests, total, err := s.requests.List(ctx, s.db, filter, (page-1)*size, size, true)
	if err != nil {
		return nil, fmt.Errorf("실물 편지 신청 목록 조회 실패: %w", err)
	}

	items := make([]AdminRequestView, 0, len(requests))
	for i := range requests {
		items = append(items, toAdminView(&requests[i]))
	}

	return &AdminListResponse{
		Items:      items,
		Pagination: newPagination(page, size, total),
	}, nil
}

// PopularLetters ranks letters by request count, joined with title and type
func (s *PhysicalRequestService) PopularLetters(ctx context.Context, limit int) ([]PopularLetter, error) {
	if limit < 1 {
		limit = defaultPopularLimit
	}
	if s.policy.PopularLettersMaxResults > 0 && limit > s.policy.PopularLettersMaxResults {
		limit = s.policy.PopularLettersMaxResults
	}

	rankings, err := s.requests.Popular(ctx, s.db, limit)
	if err != nil {
		return nil, fmt.Errorf("인기 편지 집계 실패: %w", err)
	}

	ids := make([]uint32, 0, len(rankings))
	for _, r := range rankings {
		ids = append(ids, r.LetterID)
	}
	letters, err := s.letters.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, fmt.Errorf("편지 정보 조회 실패: %w", err)
	}
	byID := make(map[uint32]model.Letter, len(letters))
	for _, l := range letters {
		byID[l.ID] = l
	}

	result := make([]PopularLetter, 0, len(rankings))
	for _, r := range rankings {
		l := byID[r.LetterID]
		result = append(result, PopularLetter{
			LetterID:     r.LetterID,
			Title:        l.Title,
			Type:         l.Type,
			RequestCount: r.RequestCount,
			TotalRevenue: r.TotalRevenue,
		})
	}
	return result, nil
}
