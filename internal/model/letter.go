package model

const (
	LetterTypeLetter = "letter"
	LetterTypeStory  = "story"
)

// Letter is the parent entity a physical request is attached to.
// Counter columns are a denormalized cache of the physical_request ledger;
// they are written only through the request lifecycle (delta updates) and the reconciler.
type Letter struct {
	ID       uint32 `gorm:"column:id;primaryKey;autoIncrement"`
	AuthorID uint32 `gorm:"column:author_id;not null;index:idx_letter_author"`
	Title    string `gorm:"column:title;size:200;not null"`
	Type     string `gorm:"column:type;size:10;not null;default:letter"`

	// 실물 편지 신청 설정
	AllowPhysicalRequests   bool `gorm:"column:allow_physical_requests;not null;default:false"`
	AutoApprove             bool `gorm:"column:auto_approve;not null;default:false"`
	MaxRequestsPerPerson    int  `gorm:"column:max_requests_per_person;not null;default:5"`
	MaxRecipientsPerRequest int  `gorm:"column:max_recipients_per_request;not null;default:1"`

	// 집계 카운터 (ledger 캐시)
	TotalRequests     int64 `gorm:"column:total_requests;not null;default:0"`
	PendingRequests   int64 `gorm:"column:pending_requests;not null;default:0"`
	ApprovedRequests  int64 `gorm:"column:approved_requests;not null;default:0"`
	RejectedRequests  int64 `gorm:"column:rejected_requests;not null;default:0"`
	CompletedRequests int64 `gorm:"column:completed_requests;not null;default:0"`

	BaseEntity
}

func (*Letter) TableName() string {
	return "letter"
}

func NewLetter(authorID uint32, title, letterType string) *Letter {
	if letterType == "" {
		letterType = LetterTypeLetter
	}
	return &Letter{
		AuthorID:                authorID,
		Title:                   title,
		Type:                    letterType,
		MaxRequestsPerPerson:    5,
		MaxRecipientsPerRequest: 1,
		BaseEntity:              BaseEntity{CreatedBy: AuditedBy(authorID)},
	}
}

func (l *Letter) IsAuthor(memberID uint32) bool {
	return l.AuthorID == memberID
}
