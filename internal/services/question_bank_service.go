package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"github.com/campusexam/exam-portal/internal/utils"
)

type QuestionBankService interface {
	CreateQuestionSet(ctx context.Context, userID uint, req *CreateQuestionSetRequest) (*models.QuestionSet, error)
	GetQuestionSet(ctx context.Context, setID, userID uint, isAdmin bool) (*models.QuestionSet, error)
	ListQuestionSets(ctx context.Context, userID uint, isAdmin bool, req *ListQuestionSetsRequest) (*PagedResult[*models.QuestionSet], error)
	DeleteQuestionSet(ctx context.Context, setID, userID uint) error

	CreateQuestion(ctx context.Context, setID, userID uint, req *CreateQuestionRequest) (*models.Question, error)
	CreateQuestions(ctx context.Context, setID, userID uint, reqs []CreateQuestionRequest) ([]*models.Question, error)
	ListQuestions(ctx context.Context, userID uint, isAdmin bool, req *ListQuestionsRequest) (*PagedResult[*models.Question], error)
	DeleteQuestion(ctx context.Context, questionID, userID uint) error
}

// ===== DTOs =====

type CreateQuestionSetRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Subject     string  `json:"subject" validate:"required,max=100"`
}

type CreateQuestionRequest struct {
	Text          string                 `json:"text" validate:"required,min=1"`
	Type          models.QuestionType    `json:"type" validate:"required,question_type"`
	Subject       string                 `json:"subject" validate:"required,max=100"`
	Difficulty    models.DifficultyLevel `json:"difficulty" validate:"required,difficulty_level"`
	Options       map[string]interface{} `json:"options"`
	CorrectAnswer string                 `json:"correct_answer"`
	Explanation   *string                `json:"explanation" validate:"omitempty,max=2000"`
	Points        int                    `json:"points" validate:"omitempty,min=1,max=100"`
}

type ListQuestionSetsRequest struct {
	Pagination
	Subject   string `form:"subject"`
	SortBy    string `form:"sort_by" validate:"omitempty,oneof=created_at title subject"`
	SortOrder string `form:"sort_order" validate:"omitempty,oneof=asc desc"`
}

type ListQuestionsRequest struct {
	Pagination
	Subject       string                 `form:"subject"`
	Type          models.QuestionType    `form:"type" validate:"omitempty,question_type"`
	Difficulty    models.DifficultyLevel `form:"difficulty" validate:"omitempty,difficulty_level"`
	QuestionSetID uint                   `form:"question_set_id"`
	SortBy        string                 `form:"sort_by" validate:"omitempty,oneof=created_at subject difficulty"`
	SortOrder     string                 `form:"sort_order" validate:"omitempty,oneof=asc desc"`
}

// ===== SERVICE =====

type questionBankService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
}

func NewQuestionBankService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator) QuestionBankService {
	return &questionBankService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== QUESTION SETS =====

func (s *questionBankService) CreateQuestionSet(ctx context.Context, userID uint, req *CreateQuestionSetRequest) (*models.QuestionSet, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	set := &models.QuestionSet{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		CreatedByID: userID,
	}
	if err := s.repo.QuestionSets().Create(ctx, set); err != nil {
		return nil, fmt.Errorf("failed to create question set: %w", err)
	}

	s.logger.Info("Question set created", "set_id", set.ID, "created_by", userID)
	return set, nil
}

func (s *questionBankService) GetQuestionSet(ctx context.Context, setID, userID uint, isAdmin bool) (*models.QuestionSet, error) {
	set, err := s.repo.QuestionSets().GetByIDWithQuestions(ctx, setID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionSetNotFound
		}
		return nil, fmt.Errorf("failed to get question set: %w", err)
	}

	if !isAdmin {
		attempted, err := s.repo.QuestionSets().HasAttempted(ctx, setID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check set visibility: %w", err)
		}
		if !attempted {
			return nil, NewPermissionError(userID, setID, "question_set", "read", "no attempt on a test using this set")
		}
		for i := range set.Questions {
			set.Questions[i] = set.Questions[i].Sanitized()
		}
	}

	return set, nil
}

func (s *questionBankService) ListQuestionSets(ctx context.Context, userID uint, isAdmin bool, req *ListQuestionSetsRequest) (*PagedResult[*models.QuestionSet], error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	limit, offset := req.Normalize()
	filters := repositories.QuestionSetFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Subject != "" {
		filters.Subject = &req.Subject
	}

	var (
		sets  []*models.QuestionSet
		total int64
		err   error
	)
	if isAdmin {
		sets, total, err = s.repo.QuestionSets().List(ctx, filters)
	} else {
		// Participants only see sets behind tests they have attempted.
		sets, total, err = s.repo.QuestionSets().ListAttemptedBy(ctx, userID, filters)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list question sets: %w", err)
	}

	return newPagedResult(sets, total, req.Pagination), nil
}

func (s *questionBankService) DeleteQuestionSet(ctx context.Context, setID, userID uint) error {
	owner, err := s.repo.QuestionSets().IsOwner(ctx, setID, userID)
	if err != nil {
		return fmt.Errorf("failed to check set ownership: %w", err)
	}
	if !owner {
		if _, err := s.repo.QuestionSets().GetByID(ctx, setID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionSetNotFound
			}
			return fmt.Errorf("failed to get question set: %w", err)
		}
		return NewPermissionError(userID, setID, "question_set", "delete", "not the set owner")
	}

	inUse, err := s.repo.QuestionSets().InUseByTest(ctx, setID)
	if err != nil {
		return fmt.Errorf("failed to check set usage: %w", err)
	}
	if inUse {
		return ErrQuestionSetInUse
	}

	if err := s.repo.QuestionSets().Delete(ctx, setID); err != nil {
		return fmt.Errorf("failed to delete question set: %w", err)
	}

	s.logger.Info("Question set deleted", "set_id", setID, "deleted_by", userID)
	return nil
}

// ===== QUESTIONS =====

func (s *questionBankService) CreateQuestion(ctx context.Context, setID, userID uint, req *CreateQuestionRequest) (*models.Question, error) {
	created, err := s.CreateQuestions(ctx, setID, userID, []CreateQuestionRequest{*req})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *questionBankService) CreateQuestions(ctx context.Context, setID, userID uint, reqs []CreateQuestionRequest) ([]*models.Question, error) {
	if len(reqs) == 0 {
		return nil, ErrBadRequest
	}

	if err := s.requireSetOwner(ctx, setID, userID, "add questions to"); err != nil {
		return nil, err
	}

	questions := make([]*models.Question, 0, len(reqs))
	for i := range reqs {
		q := questionFromRequest(setID, &reqs[i])
		if err := s.validator.ValidateQuestion(q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	if err := s.repo.Questions().CreateBatch(ctx, questions); err != nil {
		return nil, fmt.Errorf("failed to create questions: %w", err)
	}

	s.logger.Info("Questions created",
		"set_id", setID, "count", len(questions), "created_by", userID)
	return questions, nil
}

func (s *questionBankService) ListQuestions(ctx context.Context, userID uint, isAdmin bool, req *ListQuestionsRequest) (*PagedResult[*models.Question], error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	limit, offset := req.Normalize()
	filters := repositories.QuestionFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Subject != "" {
		filters.Subject = &req.Subject
	}
	if req.Type != "" {
		filters.Type = &req.Type
	}
	if req.Difficulty != "" {
		filters.Difficulty = &req.Difficulty
	}
	if req.QuestionSetID != 0 {
		filters.QuestionSetID = &req.QuestionSetID
	}

	var (
		questions []*models.Question
		total     int64
		err       error
	)
	if isAdmin {
		questions, total, err = s.repo.Questions().List(ctx, filters)
	} else {
		questions, total, err = s.repo.Questions().ListAttemptedBy(ctx, userID, filters)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	if !isAdmin {
		for i := range questions {
			sanitized := questions[i].Sanitized()
			questions[i] = &sanitized
		}
	}

	return newPagedResult(questions, total, req.Pagination), nil
}

func (s *questionBankService) DeleteQuestion(ctx context.Context, questionID, userID uint) error {
	question, err := s.repo.Questions().GetByID(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	if err := s.requireSetOwner(ctx, question.QuestionSetID, userID, "delete questions from"); err != nil {
		return err
	}

	if err := s.repo.Questions().Delete(ctx, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted", "question_id", questionID, "deleted_by", userID)
	return nil
}

// ===== HELPERS =====

func (s *questionBankService) requireSetOwner(ctx context.Context, setID, userID uint, action string) error {
	owner, err := s.repo.QuestionSets().IsOwner(ctx, setID, userID)
	if err != nil {
		return fmt.Errorf("failed to check set ownership: %w", err)
	}
	if !owner {
		if _, err := s.repo.QuestionSets().GetByID(ctx, setID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionSetNotFound
			}
			return fmt.Errorf("failed to get question set: %w", err)
		}
		return NewPermissionError(userID, setID, "question_set", action, "not the set owner")
	}
	return nil
}

func questionFromRequest(setID uint, req *CreateQuestionRequest) *models.Question {
	points := req.Points
	if points == 0 {
		points = 1
	}
	var options datatypes.JSONMap
	if len(req.Options) > 0 {
		options = datatypes.JSONMap(req.Options)
	}
	return &models.Question{
		Text:          req.Text,
		Type:          req.Type,
		Subject:       req.Subject,
		Difficulty:    req.Difficulty,
		Options:       options,
		CorrectAnswer: req.CorrectAnswer,
		Explanation:   req.Explanation,
		Points:        points,
		QuestionSetID: setID,
	}
}
