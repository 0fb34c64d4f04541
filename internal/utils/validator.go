package utils

import (
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/campusexam/exam-portal/internal/errors"
	"github.com/campusexam/exam-portal/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the portal's custom rules.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	RegisterCustomValidators(v)
	return &Validator{validate: v}
}

// Validate checks struct tags and returns ValidationErrors on failure.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// ValidateQuestion enforces the cross-field rules struct tags cannot
// express: a MULTIPLE_CHOICE question needs at least two options and its
// correct answer must be one of the option keys; an ESSAY question
// carries no options.
func (v *Validator) ValidateQuestion(q *models.Question) error {
	if err := v.Validate(q); err != nil {
		return err
	}

	switch q.Type {
	case models.MultipleChoice:
		if len(q.Options) < 2 {
			return apperrors.NewValidationError("options", "must contain at least 2 options", len(q.Options))
		}
		if q.CorrectAnswer == "" {
			return apperrors.NewValidationError("correct_answer", "is required", nil)
		}
		if !q.HasOption(q.CorrectAnswer) {
			return apperrors.NewValidationError("correct_answer",
				fmt.Sprintf("'%s' is not a key of options", q.CorrectAnswer), q.CorrectAnswer)
		}
	case models.Essay:
		if len(q.Options) > 0 {
			return apperrors.NewValidationError("options", "must be empty for essay questions", len(q.Options))
		}
	}

	return nil
}

// Custom validation functions

func ValidateQuestionType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == string(models.MultipleChoice) || value == string(models.Essay)
}

func ValidateDifficultyLevel(fl validator.FieldLevel) bool {
	switch models.DifficultyLevel(fl.Field().String()) {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		return true
	}
	return false
}

func ValidateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.RoleAdmin, models.RoleParticipant:
		return true
	}
	return false
}

func ValidateRequestType(fl validator.FieldLevel) bool {
	switch models.RequestType(fl.Field().String()) {
	case models.RequestRetake, models.RequestExtraTime:
		return true
	}
	return false
}

func ValidateRequestStatus(fl validator.FieldLevel) bool {
	switch models.RequestStatus(fl.Field().String()) {
	case models.RequestPending, models.RequestApproved, models.RequestDenied:
		return true
	}
	return false
}

func ValidateAttemptStatus(fl validator.FieldLevel) bool {
	switch models.AttemptStatus(fl.Field().String()) {
	case models.AttemptInProgress, models.AttemptCompleted, models.AttemptPassed, models.AttemptFailed:
		return true
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("difficulty_level", ValidateDifficultyLevel)
	validate.RegisterValidation("user_role", ValidateUserRole)
	validate.RegisterValidation("request_type", ValidateRequestType)
	validate.RegisterValidation("request_status", ValidateRequestStatus)
	validate.RegisterValidation("attempt_status", ValidateAttemptStatus)

	// Report json field names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
