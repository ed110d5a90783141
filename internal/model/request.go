package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a request. PENDING is the only
// non-terminal state; APPROVED and REJECTED are terminal.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Terminal reports whether the status permits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// RequestCategory is the closed set of request categories.
type RequestCategory string

const (
	CategoryLeave    RequestCategory = "Leave"
	CategoryPurchase RequestCategory = "Purchase"
	CategoryBudget   RequestCategory = "Budget"
	CategoryOther    RequestCategory = "Other"
)

// Valid reports whether c is one of the known categories.
func (c RequestCategory) Valid() bool {
	switch c {
	case CategoryLeave, CategoryPurchase, CategoryBudget, CategoryOther:
		return true
	}
	return false
}

// DefaultRejectionReason fills RejectionReason when the approver rejects
// without supplying one.
const DefaultRejectionReason = "No reason provided"

// Request is a submission awaiting approval. Status moves from PENDING to
// exactly one of APPROVED or REJECTED; the resolution fields (ApprovedBy,
// ApprovalDate, RejectionReason) are written once, together with that
// transition, and never again.
type Request struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title           string          `gorm:"type:varchar(255);not null" json:"title"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	Category        RequestCategory `gorm:"type:varchar(20);not null" json:"category"`
	CreatorID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"creator_id"`
	Creator         *User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Status          RequestStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ApprovedByID    *uuid.UUID      `gorm:"type:uuid" json:"approved_by_id"`
	ApprovedBy      *User           `gorm:"foreignKey:ApprovedByID" json:"approved_by,omitempty"`
	ApprovalDate    *time.Time      `json:"approval_date"`
	RejectionReason *string         `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
