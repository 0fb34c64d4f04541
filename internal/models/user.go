package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RoleParticipant UserRole = "PARTICIPANT"
)

type User struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	Name     string   `json:"name" gorm:"not null;size:100;index" validate:"required,min=1,max=100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	Password string   `json:"-" gorm:"not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;default:PARTICIPANT;index" validate:"omitempty,user_role"`

	// Profile info
	UniversityName *string `json:"university_name" gorm:"size:200" validate:"omitempty,max=200"`
	Major          *string `json:"major" gorm:"size:100" validate:"omitempty,max=100"`
	Image          *string `json:"image" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Attempts     []TestAttempt `json:"attempts,omitempty" gorm:"foreignKey:UserID"`
	QuestionSets []QuestionSet `json:"question_sets,omitempty" gorm:"foreignKey:CreatedByID"`
	Requests     []TestRequest `json:"requests,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
