package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusexam/exam-portal/internal/cache"
	"github.com/campusexam/exam-portal/internal/events"
	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"github.com/campusexam/exam-portal/internal/utils"
)

const availableTestsCacheTTL = 30 * time.Second

type TestCatalogService interface {
	Create(ctx context.Context, userID uint, req *CreateTestRequest) (*models.Test, error)
	GetByID(ctx context.Context, testID uint) (*models.Test, error)
	List(ctx context.Context, req *ListTestsRequest) (*PagedResult[*models.Test], error)
	ListAvailable(ctx context.Context, userID uint) ([]*models.Test, error)
	Delete(ctx context.Context, testID, userID uint) error
	GetStats(ctx context.Context, testID uint) (*repositories.TestStats, error)
}

// ===== DTOs =====

type CreateTestRequest struct {
	Title              string    `json:"title" validate:"required,min=1,max=200"`
	Description        *string   `json:"description" validate:"omitempty,max=1000"`
	Subject            string    `json:"subject" validate:"required,max=100"`
	Duration           int       `json:"duration" validate:"required,min=5,max=300"`
	StartTime          time.Time `json:"start_time" validate:"required"`
	EndTime            time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	PassingScore       int       `json:"passing_score" validate:"min=0,max=100"`
	IsActive           bool      `json:"is_active"`
	RandomizeQuestions bool      `json:"randomize_questions"`
	QuestionSetID      uint      `json:"question_set_id" validate:"required"`
}

type ListTestsRequest struct {
	Pagination
	Subject   string `form:"subject"`
	SortBy    string `form:"sort_by" validate:"omitempty,oneof=created_at title start_time"`
	SortOrder string `form:"sort_order" validate:"omitempty,oneof=asc desc"`
}

// ===== SERVICE =====

type testCatalogService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	cache     cache.CacheService
	publisher events.EventPublisher
}

func NewTestCatalogService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator, cacheSvc cache.CacheService, publisher events.EventPublisher) TestCatalogService {
	return &testCatalogService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheSvc,
		publisher: publisher,
	}
}

func (s *testCatalogService) Create(ctx context.Context, userID uint, req *CreateTestRequest) (*models.Test, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrTestInvalidWindow
	}

	if _, err := s.repo.QuestionSets().GetByID(ctx, req.QuestionSetID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionSetNotFound
		}
		return nil, fmt.Errorf("failed to get question set: %w", err)
	}

	test := &models.Test{
		Title:              req.Title,
		Description:        req.Description,
		Subject:            req.Subject,
		Duration:           req.Duration,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		PassingScore:       req.PassingScore,
		IsActive:           req.IsActive,
		RandomizeQuestions: req.RandomizeQuestions,
		QuestionSetID:      req.QuestionSetID,
	}
	if err := s.repo.Tests().Create(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to create test: %w", err)
	}
	test.Status = test.DeriveStatus(time.Now())

	s.logger.Info("Test created", "test_id", test.ID, "created_by", userID)
	s.publish(ctx, events.NewTestCreatedEvent(test, userID))
	s.invalidateAvailableCache(ctx)

	return test, nil
}

func (s *testCatalogService) GetByID(ctx context.Context, testID uint) (*models.Test, error) {
	test, err := s.repo.Tests().GetByID(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	test.Status = test.DeriveStatus(time.Now())
	return test, nil
}

func (s *testCatalogService) List(ctx context.Context, req *ListTestsRequest) (*PagedResult[*models.Test], error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	limit, offset := req.Normalize()
	filters := repositories.TestFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Subject != "" {
		filters.Subject = &req.Subject
	}

	tests, total, err := s.repo.Tests().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	now := time.Now()
	for _, t := range tests {
		t.Status = t.DeriveStatus(now)
	}

	return newPagedResult(tests, total, req.Pagination), nil
}

// ListAvailable returns tests the participant can start right now. The
// listing is cached briefly per user and invalidated on any test mutation.
func (s *testCatalogService) ListAvailable(ctx context.Context, userID uint) ([]*models.Test, error) {
	key := availableTestsCacheKey(userID)
	if s.cache != nil {
		var cached []*models.Test
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Available-tests cache read failed", "error", err)
		}
	}

	now := time.Now()
	tests, err := s.repo.Tests().ListAvailable(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list available tests: %w", err)
	}
	for _, t := range tests {
		t.Status = t.DeriveStatus(now)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, tests, availableTestsCacheTTL); err != nil {
			s.logger.Warn("Available-tests cache write failed", "error", err)
		}
	}
	return tests, nil
}

func (s *testCatalogService) Delete(ctx context.Context, testID, userID uint) error {
	test, err := s.repo.Tests().GetByID(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to get test: %w", err)
	}

	if err := s.repo.Tests().Delete(ctx, testID); err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}

	s.logger.Info("Test deleted", "test_id", testID, "deleted_by", userID)
	s.publish(ctx, events.NewTestDeletedEvent(test, userID))
	s.invalidateAvailableCache(ctx)

	return nil
}

func (s *testCatalogService) GetStats(ctx context.Context, testID uint) (*repositories.TestStats, error) {
	if _, err := s.GetByID(ctx, testID); err != nil {
		return nil, err
	}
	stats, err := s.repo.Tests().GetStats(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute test stats: %w", err)
	}
	return stats, nil
}

// ===== HELPERS =====

func availableTestsCacheKey(userID uint) string {
	return fmt.Sprintf("tests:available:%d", userID)
}

func (s *testCatalogService) invalidateAvailableCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, "tests:available:*"); err != nil {
		s.logger.Warn("Available-tests cache invalidation failed", "error", err)
	}
}

func (s *testCatalogService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
