package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/campusexam/exam-portal/internal/cache"
	"github.com/campusexam/exam-portal/internal/events"
	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
)

// admissionLockTTL bounds how long a crashed starter can block the next
// admit for the same (user, test) pair.
const admissionLockTTL = 10 * time.Second

type AttemptService interface {
	Start(ctx context.Context, userID, testID uint) (*AttemptResponse, error)
	Get(ctx context.Context, attemptID, userID uint, isAdmin bool) (*AttemptResponse, error)
	Submit(ctx context.Context, attemptID, userID uint, req *SubmitAttemptRequest) (*SubmissionResult, error)
	GetResult(ctx context.Context, attemptID, userID uint, isAdmin bool) (*AttemptResult, error)
	List(ctx context.Context, userID uint, isAdmin bool, req *ListAttemptsRequest) (*PagedResult[*models.TestAttempt], error)
}

// ===== DTOs =====

type AttemptResponse struct {
	Attempt   *models.TestAttempt `json:"attempt"`
	Test      *models.Test        `json:"test"`
	Questions []models.Question   `json:"questions"`
	Resumed   bool                `json:"resumed"`
}

type SubmitAttemptRequest struct {
	Answers []AnswerSubmission `json:"answers" validate:"dive"`
}

type AnswerSubmission struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Answer     string `json:"answer"`
}

type SubmissionResult struct {
	AttemptID uint                 `json:"attempt_id"`
	Score     int                  `json:"score"`
	Status    models.AttemptStatus `json:"status"`
}

type AttemptResult struct {
	AttemptID       uint                 `json:"attempt_id"`
	TestID          uint                 `json:"test_id"`
	TestTitle       string               `json:"test_title"`
	Status          models.AttemptStatus `json:"status"`
	Score           *int                 `json:"score"`
	TotalQuestions  int                  `json:"total_questions"`
	Answered        int                  `json:"answered"`
	Correct         int                  `json:"correct"`
	Incorrect       int                  `json:"incorrect"`
	Skipped         int                  `json:"skipped"`
	TimeSpent       int                  `json:"time_spent_minutes"`
	TimePerQuestion float64              `json:"time_per_question"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         *time.Time           `json:"end_time"`
}

type ListAttemptsRequest struct {
	Pagination
	TestID uint                 `form:"test_id"`
	Status models.AttemptStatus `form:"status" validate:"omitempty,attempt_status"`
}

// ===== SERVICE =====

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	lock      cache.AdmissionLock
	publisher events.EventPublisher
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, lock cache.AdmissionLock, publisher events.EventPublisher) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		lock:      lock,
		publisher: publisher,
	}
}

// Start admits the user into the test window. It is idempotent: calling it
// again while an attempt is in progress returns that attempt unchanged.
func (s *attemptService) Start(ctx context.Context, userID, testID uint) (*AttemptResponse, error) {
	test, err := s.repo.Tests().GetByIDWithQuestions(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	now := time.Now()
	if !test.IsActive {
		return nil, ErrTestNotActive
	}
	if !test.InWindow(now) {
		return nil, ErrTestOutsideWindow
	}

	// Serialize the check-then-act against concurrent starts for the same
	// (user, test) pair. The partial unique index on attempts is the backstop.
	acquired, err := s.lock.Acquire(ctx, userID, testID, admissionLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire admission lock: %w", err)
	}
	if !acquired {
		return nil, ErrAttemptInProgress
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), userID, testID); err != nil {
			s.logger.Warn("Failed to release admission lock",
				"user_id", userID, "test_id", testID, "error", err)
		}
	}()

	existing, err := s.repo.Attempts().GetActive(ctx, userID, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active attempt: %w", err)
	}
	if existing != nil {
		s.logger.Info("Resuming attempt",
			"attempt_id", existing.ID, "user_id", userID, "test_id", testID)
		return s.buildAttemptResponse(existing, test, true), nil
	}

	attempt := &models.TestAttempt{
		UserID:    userID,
		TestID:    testID,
		Status:    models.AttemptInProgress,
		StartTime: now,
	}
	if err := s.repo.Attempts().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID, "user_id", userID, "test_id", testID)
	s.publish(ctx, events.NewAttemptStartedEvent(attempt, test.Title))

	return s.buildAttemptResponse(attempt, test, false), nil
}

func (s *attemptService) Get(ctx context.Context, attemptID, userID uint, isAdmin bool) (*AttemptResponse, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID, isAdmin)
	if err != nil {
		return nil, err
	}
	test, err := s.repo.Tests().GetByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return s.buildAttemptResponse(attempt, test, attempt.Status == models.AttemptInProgress), nil
}

// Submit grades the attempt and moves it to a terminal status. Terminal
// attempts are never re-opened.
func (s *attemptService) Submit(ctx context.Context, attemptID, userID uint, req *SubmitAttemptRequest) (*SubmissionResult, error) {
	attempt, err := s.repo.Attempts().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, attemptID, "attempt", "submit", "not the attempt owner")
	}
	if attempt.Status.IsTerminal() {
		return nil, ErrAttemptAlreadySubmitted
	}

	test, err := s.repo.Tests().GetByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	questions := make(map[uint]*models.Question, len(test.QuestionSet.Questions))
	for i := range test.QuestionSet.Questions {
		q := &test.QuestionSet.Questions[i]
		questions[q.ID] = q
	}

	// The submission is a mapping question -> answer: a repeated question ID
	// replaces the earlier entry, so each question counts at most once.
	submitted := make(map[uint]string, len(req.Answers))
	order := make([]uint, 0, len(req.Answers))
	for _, sub := range req.Answers {
		if _, ok := questions[sub.QuestionID]; !ok {
			return nil, ErrQuestionNotInTest
		}
		if _, seen := submitted[sub.QuestionID]; !seen {
			order = append(order, sub.QuestionID)
		}
		submitted[sub.QuestionID] = sub.Answer
	}

	answers := make([]*models.Answer, 0, len(order))
	correct := 0
	for _, questionID := range order {
		answer := submitted[questionID]
		if answer == "" {
			continue // skipped
		}
		q := questions[questionID]
		isCorrect := q.Type == models.MultipleChoice && answer == q.CorrectAnswer
		if isCorrect {
			correct++
		}
		answers = append(answers, &models.Answer{
			TestAttemptID: attempt.ID,
			QuestionID:    questionID,
			Answer:        answer,
			IsCorrect:     isCorrect,
		})
	}

	total := len(test.QuestionSet.Questions)
	score := 0
	if total > 0 {
		score = int(math.Round(float64(correct) / float64(total) * 100))
	}

	status := models.AttemptCompleted
	if test.HasPassingScore() {
		if score >= test.PassingScore {
			status = models.AttemptPassed
		} else {
			status = models.AttemptFailed
		}
	}

	now := time.Now()
	attempt.Status = status
	attempt.Score = &score
	attempt.EndTime = &now

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if len(answers) > 0 {
			if err := tx.Answers().CreateBatch(ctx, answers); err != nil {
				return fmt.Errorf("failed to persist answers: %w", err)
			}
		}
		if err := tx.Attempts().Update(ctx, attempt); err != nil {
			return fmt.Errorf("failed to update attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attempt submitted",
		"attempt_id", attempt.ID, "user_id", userID,
		"score", score, "status", status)
	s.publish(ctx, events.NewAttemptSubmittedEvent(attempt))

	return &SubmissionResult{AttemptID: attempt.ID, Score: score, Status: status}, nil
}

func (s *attemptService) GetResult(ctx context.Context, attemptID, userID uint, isAdmin bool) (*AttemptResult, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, userID, isAdmin)
	if err != nil {
		return nil, err
	}
	test, err := s.repo.Tests().GetByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	storedAnswers, err := s.repo.Answers().GetByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}

	total := len(test.QuestionSet.Questions)
	answered := len(storedAnswers)
	correct := 0
	for _, a := range storedAnswers {
		if a.IsCorrect {
			correct++
		}
	}

	end := time.Now()
	if attempt.EndTime != nil {
		end = *attempt.EndTime
	}
	timeSpent := int(math.Round(end.Sub(attempt.StartTime).Minutes()))
	timePerQuestion := 0.0
	if total > 0 {
		timePerQuestion = float64(timeSpent) / float64(total)
	}

	return &AttemptResult{
		AttemptID:       attempt.ID,
		TestID:          test.ID,
		TestTitle:       test.Title,
		Status:          attempt.Status,
		Score:           attempt.Score,
		TotalQuestions:  total,
		Answered:        answered,
		Correct:         correct,
		Incorrect:       answered - correct,
		Skipped:         total - answered,
		TimeSpent:       timeSpent,
		TimePerQuestion: timePerQuestion,
		StartTime:       attempt.StartTime,
		EndTime:         attempt.EndTime,
	}, nil
}

func (s *attemptService) List(ctx context.Context, userID uint, isAdmin bool, req *ListAttemptsRequest) (*PagedResult[*models.TestAttempt], error) {
	limit, offset := req.Normalize()
	filters := repositories.AttemptFilters{Limit: limit, Offset: offset}
	if req.TestID != 0 {
		filters.TestID = &req.TestID
	}
	if req.Status != "" {
		filters.Status = &req.Status
	}
	if !isAdmin {
		filters.UserID = &userID
	}
	attempts, total, err := s.repo.Attempts().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return newPagedResult(attempts, total, req.Pagination), nil
}

// ===== HELPERS =====

func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID, userID uint, isAdmin bool) (*models.TestAttempt, error) {
	attempt, err := s.repo.Attempts().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if !isAdmin && attempt.UserID != userID {
		return nil, NewPermissionError(userID, attemptID, "attempt", "read", "not the attempt owner")
	}
	return attempt, nil
}

// buildAttemptResponse strips grading fields from the delivered questions and,
// when the test randomizes, shuffles them with a seed derived from the attempt
// ID so the order is stable across resumes.
func (s *attemptService) buildAttemptResponse(attempt *models.TestAttempt, test *models.Test, resumed bool) *AttemptResponse {
	questions := make([]models.Question, len(test.QuestionSet.Questions))
	for i, q := range test.QuestionSet.Questions {
		questions[i] = q.Sanitized()
	}
	if test.RandomizeQuestions {
		rng := rand.New(rand.NewSource(int64(attempt.ID)))
		rng.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	return &AttemptResponse{
		Attempt:   attempt,
		Test:      test,
		Questions: questions,
		Resumed:   resumed,
	}
}

func (s *attemptService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
