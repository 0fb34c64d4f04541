package models

import (
	"time"

	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptCompleted  AttemptStatus = "COMPLETED"
	AttemptPassed     AttemptStatus = "PASSED"
	AttemptFailed     AttemptStatus = "FAILED"
)

// IsTerminal reports whether the status is final. Terminal attempts are
// never transitioned back to IN_PROGRESS.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptCompleted || s == AttemptPassed || s == AttemptFailed
}

type TestAttempt struct {
	ID     uint          `json:"id" gorm:"primaryKey"`
	UserID uint          `json:"user_id" gorm:"not null;index:idx_attempt_user_test"`
	TestID uint          `json:"test_id" gorm:"not null;index:idx_attempt_user_test"`
	Status AttemptStatus `json:"status" gorm:"not null;default:IN_PROGRESS;index"`

	Score     *int       `json:"score"` // 0-100, set at submission
	StartTime time.Time  `json:"start_time" gorm:"not null"`
	EndTime   *time.Time `json:"end_time"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User    User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Test    Test     `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:TestAttemptID;constraint:OnDelete:CASCADE"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

type Answer struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	TestAttemptID uint   `json:"test_attempt_id" gorm:"not null;index"`
	QuestionID    uint   `json:"question_id" gorm:"not null;index"`
	Answer        string `json:"answer" gorm:"type:text"`
	IsCorrect     bool   `json:"is_correct" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Answer) TableName() string {
	return "answers"
}
