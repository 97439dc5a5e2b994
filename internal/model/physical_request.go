package model

import "time"

// PhysicalRequestStatus is the lifecycle state of a physical letter request
type PhysicalRequestStatus string

const (
	StatusPending   PhysicalRequestStatus = "pending"
	StatusApproved  PhysicalRequestStatus = "approved"
	StatusRejected  PhysicalRequestStatus = "rejected"
	StatusWriting   PhysicalRequestStatus = "writing"
	StatusSent      PhysicalRequestStatus = "sent"
	StatusDelivered PhysicalRequestStatus = "delivered"
	StatusFailed    PhysicalRequestStatus = "failed"
	StatusCancelled PhysicalRequestStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []PhysicalRequestStatus{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusWriting,
	StatusSent,
	StatusDelivered,
	StatusFailed,
	StatusCancelled,
}

func (s PhysicalRequestStatus) IsValid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsLive reports whether the request counts against the per-person limit
func (s PhysicalRequestStatus) IsLive() bool {
	return s != StatusCancelled && s != StatusRejected
}

func (s PhysicalRequestStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusDelivered, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

const (
	RequesterTypeAccount = "account"
	RequesterTypeSession = "session"
)

// PhysicalRequest is one ledger row: a request to mail a printed copy of a letter
// to one recipient. Rows are never deleted; cancellation and rejection are statuses.
type PhysicalRequest struct {
	ID       string `gorm:"column:id;size:26;primaryKey"`
	LetterID uint32 `gorm:"column:letter_id;not null;index:idx_physical_request_requester,priority:1;index:idx_physical_request_letter_status,priority:1"`
	BatchID  string `gorm:"column:batch_id;size:26;not null;index:idx_physical_request_batch"`

	RequesterType string `gorm:"column:requester_type;size:10;not null;index:idx_physical_request_requester,priority:2"`
	RequesterKey  string `gorm:"column:requester_key;size:100;not null;index:idx_physical_request_requester,priority:3"`
	HashedIP      string `gorm:"column:hashed_ip;size:64"`
	UserAgent     string `gorm:"column:user_agent;size:500"`

	RecipientName  string `gorm:"column:recipient_name;size:50;not null"`
	RecipientPhone string `gorm:"column:recipient_phone;size:13;not null"`
	PostalCode     string `gorm:"column:postal_code;size:5;not null"`
	AddressLine1   string `gorm:"column:address_line1;size:200;not null"`
	AddressLine2   string `gorm:"column:address_line2;size:200"`
	Memo           string `gorm:"column:memo;size:500"`

	ShippingCost int64 `gorm:"column:shipping_cost;not null"`
	LetterCost   int64 `gorm:"column:letter_cost;not null"`
	TotalCost    int64 `gorm:"column:total_cost;not null"`

	Status PhysicalRequestStatus `gorm:"column:status;size:10;not null;index:idx_physical_request_letter_status,priority:2"`

	ApprovedAt      *time.Time `gorm:"column:approved_at"`
	ApprovedBy      *uint32    `gorm:"column:approved_by"`
	RejectedAt      *time.Time `gorm:"column:rejected_at"`
	RejectedBy      *uint32    `gorm:"column:rejected_by"`
	RejectionReason string     `gorm:"column:rejection_reason;size:500"`
	CancelledAt     *time.Time `gorm:"column:cancelled_at"`

	TrackingNumber  string     `gorm:"column:tracking_number;size:50"`
	ShippingCompany string     `gorm:"column:shipping_company;size:50"`
	SentAt          *time.Time `gorm:"column:sent_at"`
	DeliveredAt     *time.Time `gorm:"column:delivered_at"`
	FailedAt        *time.Time `gorm:"column:failed_at"`
	FailureReason   string     `gorm:"column:failure_reason;size:500"`

	Notes []PhysicalRequestNote `gorm:"foreignKey:RequestID;references:ID"`

	BaseEntity
}

func (*PhysicalRequest) TableName() string {
	return "physical_request"
}

// PhysicalRequestNote is an append-only admin audit entry
type PhysicalRequestNote struct {
	ID        uint32    `gorm:"column:id;primaryKey;autoIncrement"`
	RequestID string    `gorm:"column:request_id;size:26;not null;index:idx_physical_request_note_request"`
	Note      string    `gorm:"column:note;size:1000;not null"`
	AuthorID  uint32    `gorm:"column:author_id;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (*PhysicalRequestNote) TableName() string {
	return "physical_request_note"
}
