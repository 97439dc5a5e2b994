package model

import (
	"time"
)

// BaseEntity holds the audit columns every table carries.
// CreatedBy/UpdatedBy are the acting member, nil for anonymous sessions and the system.
type BaseEntity struct {
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
	CreatedBy *uint32   `gorm:"column:created_by"`
	UpdatedBy *uint32   `gorm:"column:updated_by"`
}

// AuditedBy converts a member id into the audit column value
func AuditedBy(memberID uint32) *uint32 {
	if memberID == 0 {
		return nil
	}
	return &memberID
}
