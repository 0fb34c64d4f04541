package repositories

import (
	"github.com/campusexam/exam-portal/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Query      *string          `json:"query"` // name/email substring, case-insensitive
	Role       *models.UserRole `json:"role"`
	University *string          `json:"university"`
	Major      *string          `json:"major"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

type QuestionSetFilters struct {
	Subject   *string `json:"subject"`
	CreatedBy *uint   `json:"created_by"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"` // "created_at", "title", "subject"
	SortOrder string  `json:"sort_order"`
}

type QuestionFilters struct {
	Subject       *string                 `json:"subject"`
	Type          *models.QuestionType    `json:"type"`
	Difficulty    *models.DifficultyLevel `json:"difficulty"`
	QuestionSetID *uint                   `json:"question_set_id"`
	Limit         int                     `json:"limit"`
	Offset        int                     `json:"offset"`
	SortBy        string                  `json:"sort_by"`
	SortOrder     string                  `json:"sort_order"`
}

type TestFilters struct {
	Subject       *string `json:"subject"`
	IsActive      *bool   `json:"is_active"`
	QuestionSetID *uint   `json:"question_set_id"`
	Limit         int     `json:"limit"`
	Offset        int     `json:"offset"`
	SortBy        string  `json:"sort_by"` // "created_at", "title", "start_time"
	SortOrder     string  `json:"sort_order"`
}

type AttemptFilters struct {
	Status *models.AttemptStatus `json:"status"`
	UserID *uint                 `json:"user_id"`
	TestID *uint                 `json:"test_id"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type RequestFilters struct {
	Status *models.RequestStatus `json:"status"`
	Type   *models.RequestType   `json:"type"`
	UserID *uint                 `json:"user_id"`
	TestID *uint                 `json:"test_id"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type TestStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	AverageScore      float64 `json:"average_score"`
	PassRate          float64 `json:"pass_rate"`
}
