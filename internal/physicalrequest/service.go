package physicalrequest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/letter"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/notify"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/clock"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/database"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/lock"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/metrics"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

const maxUserAgentLength = 500

// Publisher is the outbound side of the notifier; Publish must not block
type Publisher interface {
	Publish(event notify.Event)
}

type ServiceDeps struct {
	DB        *gorm.DB
	Requests  RequestRepository
	Letters   *letter.LetterRepository
	Counters  letter.CounterStore
	Addresses *AddressValidator
	Costs     *CostCalculator
	Locker    lock.Locker
	Publisher Publisher
	Clock     clock.Clock
	Policy    config.PhysicalConfig
}

type PhysicalRequestService struct {
	db        *gorm.DB
	requests  RequestRepository
	letters   *letter.LetterRepository
	counters  letter.CounterStore
	addresses *AddressValidator
	costs     *CostCalculator
	locker    lock.Locker
	publisher Publisher
	clock     clock.Clock
	policy    config.PhysicalConfig
}

func NewPhysicalRequestService(deps ServiceDeps) *PhysicalRequestService {
	return &PhysicalRequestService{
		db:        deps.DB,
		requests:  deps.Requests,
		letters:   deps.Letters,
		counters:  deps.Counters,
		addresses: deps.Addresses,
		costs:     deps.Costs,
		locker:    deps.Locker,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		policy:    deps.Policy,
	}
}

// transitionRecord is a committed status change, reported after the transaction ends
type transitionRecord struct {
	from model.PhysicalRequestStatus
	to   model.PhysicalRequestStatus
}

// Submit creates one ledger row per recipient. The live-count check, the insert and the
// counter increment run under a keyed lock on (letter, requester) inside one transaction.
func (s *PhysicalRequestService) Submit(ctx context.Context, letterID uint32, identity RequesterIdentity, inputs []AddressInput) (*SubmitResponse, error) {
	log := logger.FromContext(ctx)

	if identity == nil || identity.Key() == "" {
		return nil, fmt.Errorf("신청자 식별 정보가 없습니다: %w", ErrAccessDenied)
	}
	if len(inputs) == 0 {
		return nil, &ValidationError{Field: "recipients", Message: "수신자 정보를 입력해 주세요."}
	}

	addresses := make([]NormalizedAddress, 0, len(inputs))
	for i, input := range inputs {
		address, err := s.addresses.Validate(input)
		if err != nil {
			var validationErr *ValidationError
			if len(inputs) > 1 && errors.As(err, &validationErr) {
				validationErr.Field = fmt.Sprintf("recipients[%d].%s", i, validationErr.Field)
			}
			log.Warn("배송 정보 검증 실패", "letter_id", letterID, "error", err)
			return nil, err
		}
		addresses = append(addresses, address)
	}

	now := s.clock.Now()
	batchID := newID(now)
	var created []*model.PhysicalRequest
	var mode WorkflowMode

	err := database.WithLockedTransaction(ctx, s.db, s.locker, submitLockKey(letterID, identity), func(tx *gorm.DB) error {
		parent, err := s.letters.FindByIDForUpdate(ctx, tx, letterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("편지를 찾을 수 없습니다 letterID=%d %w", letterID, letter.ErrLetterNotFound)
			}
			return fmt.Errorf("편지 조회 실패: %w", err)
		}
		if !parent.AllowPhysicalRequests {
			return fmt.Errorf("letterID=%d %w", letterID, ErrRequestsNotAllowed)
		}

		mode = ModeOf(parent, s.policy)
		requested := int64(len(addresses))
		if len(addresses) > mode.MaxRecipients {
			return &recipientLimitError{limit: mode.MaxRecipients, requested: len(addresses)}
		}

		live, err := s.requests.CountLive(ctx, tx, letterID, identity.Type(), identity.Key())
		if err != nil {
			return fmt.Errorf("신청 수 조회 실패: %w", err)
		}
		if live+requested > int64(mode.MaxPerPerson) {
			return &RateLimitError{Limit: int64(mode.MaxPerPerson), Current: live, Requested: requested}
		}

		status := InitialStatus(mode)
		created = make([]*model.PhysicalRequest, 0, len(addresses))
		for _, address := range addresses {
			created = append(created, s.newRequest(letterID, batchID, identity, address, status, now))
		}

		if err := s.requests.Create(ctx, tx, created); err != nil {
			return fmt.Errorf("실물 편지 신청 저장 실패: %w", err)
		}
		if err := s.counters.ApplyDelta(ctx, tx, letterID, SubmitDelta(status, requested)); err != nil {
			return fmt.Errorf("편지 집계 갱신 실패: %w", err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRateLimitExceeded):
			metrics.RateLimitRejected()
			log.Warn("1인당 신청 한도 초과", "letter_id", letterID, "requester_type", identity.Type(), "error", err)
		case errors.Is(err, lock.ErrLockTimeout):
			log.Error("실물 편지 신청 잠금 획득 실패", "letter_id", letterID, "error", err)
		default:
			log.Warn("실물 편지 신청 실패", "letter_id", letterID, "error", err)
		}
		return nil, err
	}

	status := created[0].Status
	metrics.PhysicalSubmitted(string(status), len(created))

	response := &SubmitResponse{
		BatchID:       batchID,
		RequestID:     created[0].ID,
		RequestIDs:    make([]string, 0, len(created)),
		Status:        string(status),
		NeedsApproval: mode.RequiresApproval,
	}
	for _, request := range created {
		response.RequestIDs = append(response.RequestIDs, request.ID)
		response.TotalCost += request.TotalCost

		s.publish(notify.EventRequestSubmitted, request, now)
	}

	log.Info("실물 편지 신청 완료",
		"letter_id", letterID,
		"batch_id", batchID,
		"count", len(created),
		"status", status,
		"total_cost", response.TotalCost,
		"requester_type", identity.Type(),
	)
	return response, nil
}

// GetStatus returns a request to the identity that created it.
// A request owned by someone else is AccessDenied, a missing one NotFound.
func (s *PhysicalRequestService) GetStatus(ctx context.Context, requestID string, identity RequesterIdentity) (*RequestView, error) {
	request, err := s.findOwned(ctx, s.db, requestID, identity)
	if err != nil {
		return nil, err
	}
	view := toRequestView(request)
	return &view, nil
}

// Cancel moves a pending, approved or writing request to cancelled on behalf of its requester
func (s *PhysicalRequestService) Cancel(ctx context.Context, requestID string, identity RequesterIdentity) (*RequestView, error) {
	log := logger.FromContext(ctx)
	now := s.clock.Now()

	var result *model.PhysicalRequest
	var record transitionRecord

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		request, err := s.findOwned(ctx, tx, requestID, identity)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{"cancelled_at": now}
		if account, ok := identity.(AccountIdentity); ok {
			fields["updated_by"] = account.MemberID
		}

		record, err = s.apply(ctx, tx, request, EventCancel, ActorRequester, fields, now)
		if err != nil {
			return err
		}

		result, err = s.requests.FindByID(ctx, tx, requestID)
		return err
	})
	if err != nil {
		log.Warn("실물 편지 신청 취소 실패", "request_id", requestID, "error", err)
		return nil, err
	}

	metrics.PhysicalTransition(string(record.from), string(record.to))
	s.publish(notify.EventRequestCancelled, result, now)
	log.Info("실물 편지 신청 취소", "request_id", requestID, "from", record.from)

	view := toRequestView(result)
	return &view, nil
}

// ListForLetter lists the requests of a letter with an on-demand status summary.
// Only the letter author or an admin may call it.
func (s *PhysicalRequestService) ListForLetter(ctx context.Context, letterID, memberID uint32, isAdmin bool, query ListQuery) (*LetterRequestsResponse, error) {
	parent, err := s.letters.FindByID(ctx, s.db, letterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("편지를 찾을 수 없습니다 letterID=%d %w", letterID, letter.ErrLetterNotFound)
		}
		return nil, fmt.Errorf("편지 조회 실패: %w", err)
	}
	if !isAdmin && !parent.IsAuthor(memberID) {
		return nil, fmt.Errorf("memberID=%d letterID=%d %w", memberID, letterID, ErrNotAuthor)
	}

	filter, err := s.buildFilter(query)
	if err != nil {
		return nil, err
	}
	filter.LetterID = &letterID

	page, size := s.pageOf(query.Page, query.Size)
	requests, total, err := s.requests.List(ctx, s.db, filter, (page-1)*size, size, false)
	if err != nil {
		return nil, fmt.Errorf("실물 편지 신청 목록 조회 실패: %w", err)
	}

	summary, err := s.summarize(ctx, s.db, letterID)
	if err != nil {
		return nil, err
	}

	items := make([]RequestView, 0, len(requests))
	for i := range requests {
		if isAdmin {
			items = append(items, toRequestView(&requests[i]))
		} else {
			items = append(items, toAuthorView(&requests[i]))
		}
	}

	return &LetterRequestsResponse{
		Items:      items,
		Summary:    *summary,
		Pagination: newPagination(page, size, total),
	}, nil
}

// DecideApproval approves or rejects a pending request. A request that belongs to a
// different letter is reported as NotFound.
func (s *PhysicalRequestService) DecideApproval(ctx context.Context, letterID uint32, requestID string, memberID uint32, isAdmin bool, decision DecisionRequest) (*RequestView, error) {
	log := logger.FromContext(ctx)
	now := s.clock.Now()

	var result *model.PhysicalRequest
	var record transitionRecord

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		parent, err := s.letters.FindByID(ctx, tx, letterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("편지를 찾을 수 없습니다 letterID=%d %w", letterID, letter.ErrLetterNotFound)
			}
			return fmt.Errorf("편지 조회 실패: %w", err)
		}

		actor := ActorAuthor
		if isAdmin {
			actor = ActorAdmin
		} else if !parent.IsAuthor(memberID) {
			return fmt.Errorf("memberID=%d letterID=%d %w", memberID, letterID, ErrNotAuthor)
		}

		request, err := s.find(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request.LetterID != letterID {
			return fmt.Errorf("requestID=%s letterID=%d %w", requestID, letterID, ErrRequestNotFound)
		}

		var event Event
		var fields map[string]interface{}
		switch decision.Action {
		case "approve":
			event = EventApprove
			fields = map[string]interface{}{
				"approved_at": now,
				"approved_by": memberID,
				"updated_by":  memberID,
			}
		case "reject":
			event = EventReject
			fields = map[string]interface{}{
				"rejected_at":      now,
				"rejected_by":      memberID,
				"rejection_reason": strings.TrimSpace(decision.Reason),
				"updated_by":       memberID,
			}
		default:
			return &ValidationError{Field: "action", Message: "approve 또는 reject 중 하나여야 합니다."}
		}

		record, err = s.apply(ctx, tx, request, event, actor, fields, now)
		if err != nil {
			return err
		}

		result, err = s.requests.FindByID(ctx, tx, requestID)
		return err
	})
	if err != nil {
		log.Warn("실물 편지 신청 승인 처리 실패", "letter_id", letterID, "request_id", requestID, "action", decision.Action, "error", err)
		return nil, err
	}

	metrics.PhysicalTransition(string(record.from), string(record.to))
	eventType := notify.EventRequestApproved
	if record.to == model.StatusRejected {
		eventType = notify.EventRequestRejected
	}
	s.publish(eventType, result, now)
	log.Info("실물 편지 신청 승인 처리", "letter_id", letterID, "request_id", requestID, "status", record.to, "member_id", memberID)

	view := toRequestView(result)
	return &view, nil
}

// UpdateShipmentStatus drives the admin shipping phase: writing, sent, delivered or failed
func (s *PhysicalRequestService) UpdateShipmentStatus(ctx context.Context, requestID string, adminID uint32, update ShipmentRequest) (*AdminRequestView, error) {
	log := logger.FromContext(ctx)
	now := s.clock.Now()

	var result *model.PhysicalRequest
	var record transitionRecord

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		request, err := s.find(ctx, tx, requestID)
		if err != nil {
			return err
		}

		target := model.PhysicalRequestStatus(update.Status)
		event, ok := shipmentEvents[target]
		if !ok {
			return &TransitionError{From: request.Status, To: target}
		}
		if _, err := Transition(request.Status, event, ActorAdmin); err != nil {
			return err
		}

		fields := map[string]interface{}{"updated_by": adminID}
		switch target {
		case model.StatusSent:
			tracking := strings.TrimSpace(update.TrackingNumber)
			company := strings.TrimSpace(update.ShippingCompany)
			if tracking == "" || company == "" {
				return ErrTrackingRequired
			}
			fields["tracking_number"] = tracking
			fields["shipping_company"] = company
			fields["sent_at"] = now
		case model.StatusDelivered:
			fields["delivered_at"] = now
		case model.StatusFailed:
			fields["failed_at"] = now
			fields["failure_reason"] = strings.TrimSpace(update.FailureReason)
		}

		record, err = s.apply(ctx, tx, request, event, ActorAdmin, fields, now)
		if err != nil {
			return err
		}

		if note := strings.TrimSpace(update.Note); note != "" {
			if err := s.requests.AppendNote(ctx, tx, &model.PhysicalRequestNote{
				RequestID: requestID,
				Note:      note,
				AuthorID:  adminID,
				CreatedAt: now,
			}); err != nil {
				return fmt.Errorf("관리자 메모 저장 실패: %w", err)
			}
		}

		result, err = s.requests.FindByIDForAdmin(ctx, tx, requestID)
		return err
	})
	if err != nil {
		log.Warn("배송 상태 변경 실패", "request_id", requestID, "status", update.Status, "error", err)
		return nil, err
	}

	metrics.PhysicalTransition(string(record.from), string(record.to))
	s.publish(notify.EventShipmentUpdated, result, now)
	log.Info("배송 상태 변경", "request_id", requestID, "from", record.from, "to", record.to, "admin_id", adminID)

	view := toAdminView(result)
	return &view, nil
}

// AppendNote adds an audit note without touching the request status
func (s *PhysicalRequestService) AppendNote(ctx context.Context, requestID string, adminID uint32, note string) (*AdminRequestView, error) {
	now := s.clock.Now()
	var result *model.PhysicalRequest

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := s.find(ctx, tx, requestID); err != nil {
			return err
		}
		if err := s.requests.AppendNote(ctx, tx, &model.PhysicalRequestNote{
			RequestID: requestID,
			Note:      strings.TrimSpace(note),
			AuthorID:  adminID,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("관리자 메모 저장 실패: %w", err)
		}
		if err := s.requests.Touch(ctx, tx, requestID, now); err != nil {
			return fmt.Errorf("신청 수정 시각 갱신 실패: %w", err)
		}

		var err error
		result, err = s.requests.FindByIDForAdmin(ctx, tx, requestID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("관리자 메모 추가", "request_id", requestID, "admin_id", adminID)
	view := toAdminView(result)
	return &view, nil
}

func (s *PhysicalRequestService) AdminGet(ctx context.Context, requestID string) (*AdminRequestView, error) {
	request, err := s.requests.FindByIDForAdmin(ctx, s.db, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("requestID=%s %w", requestID, ErrRequestNotFound)
		}
		return nil, fmt.Errorf("실물 편지 신청 조회 실패: %w", err)
	}
	view := toAdminView(request)
	return &view, nil
}

// apply runs the state machine, persists the change with a compare-and-set on the
// current status and applies the matching counter delta in the same transaction
func (s *PhysicalRequestService) apply(ctx context.Context, tx *gorm.DB, request *model.PhysicalRequest, event Event, actor Actor, fields map[string]interface{}, now time.Time) (transitionRecord, error) {
	from := request.Status
	to, err := Transition(from, event, actor)
	if err != nil {
		return transitionRecord{}, fmt.Errorf("requestID=%s: %w", request.ID, err)
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	maps.Copy(updates, fields)

	if err := s.requests.CompareAndSetStatus(ctx, tx, request.ID, from, updates); err != nil {
		if errors.Is(err, errStatusChanged) {
			return transitionRecord{}, fmt.Errorf("requestID=%s 상태가 동시에 변경되었습니다: %w", request.ID, &TransitionError{From: from, To: to})
		}
		return transitionRecord{}, fmt.Errorf("신청 상태 변경 실패: %w", err)
	}

	if err := s.counters.ApplyDelta(ctx, tx, request.LetterID, TransitionDelta(from, to)); err != nil {
		return transitionRecord{}, fmt.Errorf("편지 집계 갱신 실패: %w", err)
	}

	request.Status = to
	return transitionRecord{from: from, to: to}, nil
}

func (s *PhysicalRequestService) find(ctx context.Context, db *gorm.DB, requestID string) (*model.PhysicalRequest, error) {
	request, err := s.requests.FindByID(ctx, db, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("requestID=%s %w", requestID, ErrRequestNotFound)
		}
		return nil, fmt.Errorf("실물 편지 신청 조회 실패: %w", err)
	}
	return request, nil
}

func (s *PhysicalRequestService) findOwned(ctx context.Context, db *gorm.DB, requestID string, identity RequesterIdentity) (*model.PhysicalRequest, error) {
	request, err := s.find(ctx, db, requestID)
	if err != nil {
		return nil, err
	}
	if identity == nil || !identity.Owns(request) {
		return nil, fmt.Errorf("requestID=%s %w", requestID, ErrAccessDenied)
	}
	return request, nil
}

func (s *PhysicalRequestService) newRequest(letterID uint32, batchID string, identity RequesterIdentity, address NormalizedAddress, status model.PhysicalRequestStatus, now time.Time) *model.PhysicalRequest {
	cost := s.costs.Price(address.PostalCode)

	request := &model.PhysicalRequest{
		ID:             newID(now),
		LetterID:       letterID,
		BatchID:        batchID,
		RequesterType:  identity.Type(),
		RequesterKey:   identity.Key(),
		RecipientName:  address.RecipientName,
		RecipientPhone: address.RecipientPhone,
		PostalCode:     address.PostalCode,
		AddressLine1:   address.AddressLine1,
		AddressLine2:   address.AddressLine2,
		Memo:           address.Memo,
		ShippingCost:   cost.ShippingCost,
		LetterCost:     cost.LetterCost,
		TotalCost:      cost.TotalCost,
		Status:         status,
		BaseEntity: model.BaseEntity{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if session, ok := identity.(SessionIdentity); ok {
		request.HashedIP = session.HashedIP
		request.UserAgent = truncateRunes(session.UserAgent, maxUserAgentLength)
	}
	if account, ok := identity.(AccountIdentity); ok {
		request.CreatedBy = model.AuditedBy(account.MemberID)
		request.UpdatedBy = request.CreatedBy
	}
	if status == model.StatusApproved {
		approvedAt := now
		request.ApprovedAt = &approvedAt
	}
	return request
}

func (s *PhysicalRequestService) publish(eventType notify.EventType, request *model.PhysicalRequest, at time.Time) {
	if s.publisher == nil || request == nil {
		return
	}
	s.publisher.Publish(notify.Event{
		Type:          eventType,
		LetterID:      request.LetterID,
		RequestID:     request.ID,
		BatchID:       request.BatchID,
		RecipientName: request.RecipientName,
		TotalCost:     request.TotalCost,
		Status:        string(request.Status),
		OccurredAt:    at,
	})
}

func (s *PhysicalRequestService) pageOf(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = s.policy.DefaultPageSize
	}
	if s.policy.MaxPageSize > 0 && size > s.policy.MaxPageSize {
		size = s.policy.MaxPageSize
	}
	return page, size
}

func (s *PhysicalRequestService) buildFilter(query ListQuery) (ListFilter, error) {
	filter := ListFilter{Status: model.PhysicalRequestStatus(query.Status)}
	if filter.Status != "" && !filter.Status.IsValid() {
		return filter, &ValidationError{Field: "status", Message: "알 수 없는 상태입니다."}
	}
	if query.From != "" {
		from, err := time.ParseInLocation(time.DateOnly, query.From, time.UTC)
		if err != nil {
			return filter, &ValidationError{Field: "from", Message: "날짜 형식이 올바르지 않습니다. (YYYY-MM-DD)"}
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := time.ParseInLocation(time.DateOnly, query.To, time.UTC)
		if err != nil {
			return filter, &ValidationError{Field: "to", Message: "날짜 형식이 올바르지 않습니다. (YYYY-MM-DD)"}
		}
		// to 날짜 당일까지 포함
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}
	return filter, nil
}

func submitLockKey(letterID uint32, identity RequesterIdentity) string {
	return fmt.Sprintf("physical-submit:%d:%s:%s", letterID, identity.Type(), identity.Key())
}

func newID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
