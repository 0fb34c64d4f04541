package models

import (
	"time"

	"gorm.io/gorm"
)

// TestStatus is the display status derived from IsActive and the
// [StartTime, EndTime] window; it is never stored.
type TestStatus string

const (
	TestDraft     TestStatus = "draft"
	TestScheduled TestStatus = "scheduled"
	TestActive    TestStatus = "active"
	TestCompleted TestStatus = "completed"
)

type Test struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description  *string   `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Subject      string    `json:"subject" gorm:"not null;size:100;index" validate:"required,max=100"`
	Duration     int       `json:"duration" gorm:"not null" validate:"required,min=5,max=300"` // Minutes
	StartTime    time.Time `json:"start_time" gorm:"not null;index" validate:"required"`
	EndTime      time.Time `json:"end_time" gorm:"not null;index" validate:"required,gtfield=StartTime"`
	PassingScore int       `json:"passing_score" validate:"min=0,max=100"`

	IsActive           bool `json:"is_active" gorm:"default:false;index"`
	RandomizeQuestions bool `json:"randomize_questions" gorm:"default:false"`

	// Exactly one question set per test
	QuestionSetID uint `json:"question_set_id" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	QuestionSet QuestionSet   `json:"question_set,omitempty" gorm:"foreignKey:QuestionSetID"`
	Attempts    []TestAttempt `json:"attempts,omitempty" gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	Status TestStatus `json:"status" gorm:"-"`
}

func (Test) TableName() string {
	return "tests"
}

// DeriveStatus computes the display status as a pure function of
// (IsActive, StartTime, EndTime, now).
func (t *Test) DeriveStatus(now time.Time) TestStatus {
	if !t.IsActive {
		return TestDraft
	}
	if now.Before(t.StartTime) {
		return TestScheduled
	}
	if now.After(t.EndTime) {
		return TestCompleted
	}
	return TestActive
}

// InWindow reports whether the test admits attempts at the given instant:
// active and StartTime <= now <= EndTime.
func (t *Test) InWindow(now time.Time) bool {
	return t.IsActive && !now.Before(t.StartTime) && !now.After(t.EndTime)
}

// HasPassingScore reports whether a pass/fail threshold is configured.
// Tests without one end in the neutral COMPLETED state instead.
func (t *Test) HasPassingScore() bool {
	return t.PassingScore > 0
}
