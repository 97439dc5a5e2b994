package physicalrequest

import (
	"time"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/letter"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
)

// SubmitRequest accepts either a single flattened recipient or a recipients array
type SubmitRequest struct {
	AddressInput
	Recipients []AddressInput `json:"recipients"`
}

func (r *SubmitRequest) Addresses() []AddressInput {
	if len(r.Recipients) > 0 {
		return r.Recipients
	}
	return []AddressInput{r.AddressInput}
}

type SubmitResponse struct {
	BatchID       string   `json:"batchId"`
	RequestID     string   `json:"requestId"`
	RequestIDs    []string `json:"requestIds"`
	TotalCost     int64    `json:"totalCost"`
	Status        string   `json:"status"`
	NeedsApproval bool     `json:"needsApproval"`
	SessionToken  string   `json:"sessionToken,omitempty"`
}

type DecisionRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Reason string `json:"reason" binding:"max=500"`
}

type ShipmentRequest struct {
	Status          string `json:"status" binding:"required,oneof=writing sent delivered failed"`
	TrackingNumber  string `json:"trackingNumber" binding:"max=50"`
	ShippingCompany string `json:"shippingCompany" binding:"max=50"`
	FailureReason   string `json:"failureReason" binding:"max=500"`
	Note            string `json:"note" binding:"max=1000"`
}

type NoteRequest struct {
	Note string `json:"note" binding:"required,min=1,max=1000"`
}

type ListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending approved rejected writing sent delivered failed cancelled"`
	LetterID uint32 `form:"letterId"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Size     int    `form:"size" binding:"omitempty,min=1"`
}

type PopularQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

type RecipientView struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	PostalCode   string `json:"postalCode"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	Memo         string `json:"memo,omitempty"`
}

type CostView struct {
	ShippingCost int64 `json:"shippingCost"`
	LetterCost   int64 `json:"letterCost"`
	TotalCost    int64 `json:"totalCost"`
}

type ShippingView struct {
	TrackingNumber  string     `json:"trackingNumber,omitempty"`
	ShippingCompany string     `json:"shippingCompany,omitempty"`
	SentAt          *time.Time `json:"sentAt,omitempty"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
	FailedAt        *time.Time `json:"failedAt,omitempty"`
	FailureReason   string     `json:"failureReason,omitempty"`
}

// RequestView is the non-admin projection of a request
type RequestView struct {
	ID              string        `json:"id"`
	LetterID        uint32        `json:"letterId"`
	BatchID         string        `json:"batchId"`
	Status          string        `json:"status"`
	Recipient       RecipientView `json:"recipient"`
	Cost            CostView      `json:"cost"`
	ApprovedAt      *time.Time    `json:"approvedAt,omitempty"`
	RejectedAt      *time.Time    `json:"rejectedAt,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	CancelledAt     *time.Time    `json:"cancelledAt,omitempty"`
	Shipping        *ShippingView `json:"shipping,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

type NoteView struct {
	Note      string    `json:"note"`
	AuthorID  uint32    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdminRequestView adds requester metadata and the audit trail
type AdminRequestView struct {
	RequestView
	RequesterType string     `json:"requesterType"`
	MemberID      string     `json:"memberId,omitempty"`
	HashedIP      string     `json:"hashedIp,omitempty"`
	UserAgent     string     `json:"userAgent,omitempty"`
	ApprovedBy    *uint32    `json:"approvedBy,omitempty"`
	RejectedBy    *uint32    `json:"rejectedBy,omitempty"`
	UpdatedBy     *uint32    `json:"updatedBy,omitempty"`
	Notes         []NoteView `json:"notes"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

type LetterSummary struct {
	LetterID      uint32           `json:"letterId"`
	ByStatus      map[string]int64 `json:"byStatus"`
	TotalRequests int64            `json:"totalRequests"`
	TotalCost     int64            `json:"totalCost"`
}

type LetterRequestsResponse struct {
	Items      []RequestView `json:"items"`
	Summary    LetterSummary `json:"summary"`
	Pagination Pagination    `json:"pagination"`
}

type AdminListResponse struct {
	Items      []AdminRequestView `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

type PopularLetter struct {
	LetterID     uint32 `json:"letterId"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	RequestCount int64  `json:"requestCount"`
	TotalRevenue int64  `json:"totalRevenue"`
}

type LetterDrift struct {
	LetterID uint32          `json:"letterId"`
	Cached   letter.Counters `json:"cached"`
	Actual   letter.Counters `json:"actual"`
}

type ReconcileReport struct {
	Checked int           `json:"checked"`
	Drifted []LetterDrift `json:"drifted"`
}

func toRequestView(r *model.PhysicalRequest) RequestView {
	view := RequestView{
		ID:       r.ID,
		LetterID: r.LetterID,
		BatchID:  r.BatchID,
		Status:   string(r.Status),
		Recipient: RecipientView{
			Name:         r.RecipientName,
			Phone:        r.RecipientPhone,
			PostalCode:   r.PostalCode,
			AddressLine1: r.AddressLine1,
			AddressLine2: r.AddressLine2,
			Memo:         r.Memo,
		},
		Cost: CostView{
			ShippingCost: r.ShippingCost,
			LetterCost:   r.LetterCost,
			TotalCost:    r.TotalCost,
		},
		ApprovedAt:      r.ApprovedAt,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		CancelledAt:     r.CancelledAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}

	if r.SentAt != nil || r.FailedAt != nil {
		view.Shipping = &ShippingView{
			TrackingNumber:  r.TrackingNumber,
			ShippingCompany: r.ShippingCompany,
			SentAt:          r.SentAt,
			DeliveredAt:     r.DeliveredAt,
			FailedAt:        r.FailedAt,
			FailureReason:   r.FailureReason,
		}
	}
	return view
}

// toAuthorView masks recipient contact details for the letter author's listing
func toAuthorView(r *model.PhysicalRequest) RequestView {
	view := toRequestView(r)
	view.Recipient.Name = logger.MaskName(view.Recipient.Name)
	view.Recipient.Phone = logger.MaskPhone(view.Recipient.Phone)
	view.Recipient.AddressLine2 = ""
	return view
}

func toAdminView(r *model.PhysicalRequest) AdminRequestView {
	view := AdminRequestView{
		RequestView:   toRequestView(r),
		RequesterType: r.RequesterType,
		HashedIP:      r.HashedIP,
		UserAgent:     r.UserAgent,
		ApprovedBy:    r.ApprovedBy,
		RejectedBy:    r.RejectedBy,
		UpdatedBy:     r.UpdatedBy,
		Notes:         make([]NoteView, 0, len(r.Notes)),
	}
	// session tokens are bearer credentials and stay out of responses
	if r.RequesterType == model.RequesterTypeAccount {
		view.MemberID = r.RequesterKey
	}
	for _, n := range r.Notes {
		view.Notes = append(view.Notes, NoteView{
			Note:      n.Note,
			AuthorID:  n.AuthorID,
			CreatedAt: n.CreatedAt,
		})
	}
	return view
}

func newPagination(page, size int, total int64) Pagination {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Pagination{
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
