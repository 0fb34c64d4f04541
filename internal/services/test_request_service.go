package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusexam/exam-portal/internal/events"
	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"github.com/campusexam/exam-portal/internal/utils"
)

type TestRequestService interface {
	Create(ctx context.Context, userID uint, req *CreateTestRequestRequest) (*models.TestRequest, error)
	Review(ctx context.Context, requestID, reviewerID uint, req *ReviewTestRequestRequest) (*models.TestRequest, error)
	List(ctx context.Context, userID uint, isAdmin bool, req *ListTestRequestsRequest) (*PagedResult[*models.TestRequest], error)
}

// ===== DTOs =====

type CreateTestRequestRequest struct {
	TestID uint               `json:"test_id" validate:"required"`
	Type   models.RequestType `json:"type" validate:"required,request_type"`
	Reason string             `json:"reason" validate:"required,min=1,max=2000"`
}

type ReviewTestRequestRequest struct {
	Action   string  `json:"action" validate:"required,oneof=approve deny"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

type ListTestRequestsRequest struct {
	Pagination
	Status models.RequestStatus `form:"status" validate:"omitempty,request_status"`
	Type   models.RequestType   `form:"type" validate:"omitempty,request_type"`
	TestID uint                 `form:"test_id"`
}

// ===== SERVICE =====

type testRequestService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	publisher events.EventPublisher
}

func NewTestRequestService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator, publisher events.EventPublisher) TestRequestService {
	return &testRequestService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Create stores a PENDING request with the participant's attempt history
// snapshotted at submission time.
func (s *testRequestService) Create(ctx context.Context, userID uint, req *CreateTestRequestRequest) (*models.TestRequest, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Tests().GetByID(ctx, req.TestID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	bestScore, err := s.repo.Attempts().BestScore(ctx, userID, req.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get best score: %w", err)
	}
	attemptCount, err := s.repo.Attempts().CountByUserAndTest(ctx, userID, req.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	request := &models.TestRequest{
		UserID:        userID,
		TestID:        req.TestID,
		Type:          req.Type,
		Reason:        req.Reason,
		Status:        models.RequestPending,
		PreviousScore: bestScore,
	}
	if attemptCount > 0 {
		count := int(attemptCount)
		request.PreviousAttempts = &count
	}

	if err := s.repo.Requests().Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info("Test request created",
		"request_id", request.ID, "user_id", userID,
		"test_id", req.TestID, "type", req.Type)
	s.publish(ctx, events.NewRequestCreatedEvent(request))

	return request, nil
}

// Review transitions a PENDING request to APPROVED or DENIED. The
// transition is one-shot: reviewing a request twice is a conflict.
func (s *testRequestService) Review(ctx context.Context, requestID, reviewerID uint, req *ReviewTestRequestRequest) (*models.TestRequest, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	request, err := s.repo.Requests().GetByID(ctx, requestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	if request.Status != models.RequestPending {
		return nil, ErrRequestAlreadyReviewed
	}

	now := time.Now()
	if req.Action == "approve" {
		request.Status = models.RequestApproved
	} else {
		request.Status = models.RequestDenied
	}
	request.ReviewedByID = &reviewerID
	request.ReviewedAt = &now
	request.Feedback = req.Feedback

	if err := s.repo.Requests().Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	s.logger.Info("Test request reviewed",
		"request_id", request.ID, "reviewer_id", reviewerID, "status", request.Status)
	s.publish(ctx, events.NewRequestReviewedEvent(request, reviewerID))

	return request, nil
}

func (s *testRequestService) List(ctx context.Context, userID uint, isAdmin bool, req *ListTestRequestsRequest) (*PagedResult[*models.TestRequest], error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	limit, offset := req.Normalize()
	filters := repositories.RequestFilters{Limit: limit, Offset: offset}
	if req.Status != "" {
		filters.Status = &req.Status
	}
	if req.Type != "" {
		filters.Type = &req.Type
	}
	if req.TestID != 0 {
		filters.TestID = &req.TestID
	}
	if !isAdmin {
		filters.UserID = &userID
	}

	requests, total, err := s.repo.Requests().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	return newPagedResult(requests, total, req.Pagination), nil
}

func (s *testRequestService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
