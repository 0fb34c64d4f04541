package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	Essay          QuestionType = "ESSAY"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "EASY"
	DifficultyMedium DifficultyLevel = "MEDIUM"
	DifficultyHard   DifficultyLevel = "HARD"
)

type QuestionSet struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Subject     string  `json:"subject" gorm:"not null;size:100;index" validate:"required,max=100"`

	// Owner is immutable after creation
	CreatedByID uint `json:"created_by_id" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuestionSetID;constraint:OnDelete:CASCADE"`
	CreatedBy User       `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
}

func (QuestionSet) TableName() string {
	return "question_sets"
}

type Question struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	Text       string          `json:"text" gorm:"not null;type:text" validate:"required,min=1"`
	Type       QuestionType    `json:"type" gorm:"not null;index" validate:"required,question_type"`
	Subject    string          `json:"subject" gorm:"not null;size:100;index" validate:"required,max=100"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"not null;index" validate:"required,difficulty_level"`

	// Options maps option id to option text; only present for MULTIPLE_CHOICE.
	Options       datatypes.JSONMap `json:"options,omitempty" gorm:"type:jsonb"`
	CorrectAnswer string            `json:"correct_answer,omitempty" gorm:"size:2000"`
	Explanation   *string           `json:"explanation,omitempty" gorm:"type:text" validate:"omitempty,max=2000"`
	Points        int               `json:"points" gorm:"not null;default:1" validate:"min=1,max=100"`

	// Parent set is immutable
	QuestionSetID uint `json:"question_set_id" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

// HasOption reports whether id is a key of the options map.
func (q *Question) HasOption(id string) bool {
	_, ok := q.Options[id]
	return ok
}

// Sanitized returns a copy with the answer key and explanation withheld,
// suitable for delivery to a participant during an attempt.
func (q Question) Sanitized() Question {
	q.CorrectAnswer = ""
	q.Explanation = nil
	return q
}
