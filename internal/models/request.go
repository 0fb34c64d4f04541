package models

import (
	"time"

	"gorm.io/gorm"
)

type RequestType string

const (
	RequestRetake    RequestType = "RETAKE"
	RequestExtraTime RequestType = "EXTRA_TIME"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestDenied   RequestStatus = "DENIED"
)

// TestRequest is a participant's petition for a retake or accommodation.
// It is created PENDING and reviewed exactly once by an admin; the
// transition out of PENDING is terminal.
type TestRequest struct {
	ID     uint          `json:"id" gorm:"primaryKey"`
	UserID uint          `json:"user_id" gorm:"not null;index"`
	TestID uint          `json:"test_id" gorm:"not null;index"`
	Type   RequestType   `json:"type" gorm:"not null" validate:"required,request_type"`
	Reason string        `json:"reason" gorm:"not null;type:text" validate:"required,min=1,max=2000"`
	Status RequestStatus `json:"status" gorm:"not null;default:PENDING;index"`

	// Review decision
	ReviewedByID *uint      `json:"reviewed_by_id"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	Feedback     *string    `json:"feedback" gorm:"type:text" validate:"omitempty,max=2000"`

	// Snapshots of the participant's history, captured at creation time
	// and never recomputed.
	PreviousScore    *int `json:"previous_score"`
	PreviousAttempts *int `json:"previous_attempts"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User       User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Test       Test  `json:"test,omitempty" gorm:"foreignKey:TestID"`
	ReviewedBy *User `json:"reviewed_by,omitempty" gorm:"foreignKey:ReviewedByID"`
}

func (TestRequest) TableName() string {
	return "test_requests"
}
