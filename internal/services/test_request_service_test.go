package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/campusexam/exam-portal/internal/events"
	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"github.com/campusexam/exam-portal/internal/utils"
)

func newTestRequestService(repo *MockRepository) (TestRequestService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewTestRequestService(repo, testLogger(), utils.NewValidator(), publisher)
	return svc, publisher
}

func TestTestRequestService_Create_SnapshotsHistory(t *testing.T) {
	repo := newMockRepository()
	repo.tests.On("GetByID", mock.Anything, uint(5)).Return(&models.Test{ID: 5}, nil)
	repo.attempts.On("BestScore", mock.Anything, uint(1), uint(5)).Return(intPtr(60), nil)
	repo.attempts.On("CountByUserAndTest", mock.Anything, uint(1), uint(5)).Return(int64(2), nil)
	repo.requests.On("Create", mock.Anything, mock.MatchedBy(func(r *models.TestRequest) bool {
		return r.Status == models.RequestPending &&
			r.PreviousScore != nil && *r.PreviousScore == 60 &&
			r.PreviousAttempts != nil && *r.PreviousAttempts == 2
	})).Return(nil)

	svc, publisher := newTestRequestService(repo)
	request, err := svc.Create(context.Background(), 1, &CreateTestRequestRequest{
		TestID: 5,
		Type:   models.RequestRetake,
		Reason: "Network dropped mid-test",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.RequestPending, request.Status)
	published := publisher.PublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventRequestCreated, published[0].Type)
}

func TestTestRequestService_Create_NoHistory(t *testing.T) {
	repo := newMockRepository()
	repo.tests.On("GetByID", mock.Anything, uint(5)).Return(&models.Test{ID: 5}, nil)
	repo.attempts.On("BestScore", mock.Anything, uint(1), uint(5)).Return(nil, nil)
	repo.attempts.On("CountByUserAndTest", mock.Anything, uint(1), uint(5)).Return(int64(0), nil)
	repo.requests.On("Create", mock.Anything, mock.MatchedBy(func(r *models.TestRequest) bool {
		return r.PreviousScore == nil && r.PreviousAttempts == nil
	})).Return(nil)

	svc, _ := newTestRequestService(repo)
	_, err := svc.Create(context.Background(), 1, &CreateTestRequestRequest{
		TestID: 5,
		Type:   models.RequestExtraTime,
		Reason: "Documented accommodation",
	})

	assert.NoError(t, err)
	repo.requests.AssertExpectations(t)
}

func TestTestRequestService_Review_Approves(t *testing.T) {
	repo := newMockRepository()
	pending := &models.TestRequest{
		ID: 7, UserID: 1, TestID: 5,
		Type: models.RequestRetake, Status: models.RequestPending,
	}
	repo.requests.On("GetByID", mock.Anything, uint(7)).Return(pending, nil)
	repo.requests.On("Update", mock.Anything, mock.MatchedBy(func(r *models.TestRequest) bool {
		return r.Status == models.RequestApproved &&
			r.ReviewedByID != nil && *r.ReviewedByID == 9 &&
			r.ReviewedAt != nil
	})).Return(nil)

	svc, publisher := newTestRequestService(repo)
	reviewed, err := svc.Review(context.Background(), 7, 9, &ReviewTestRequestRequest{
		Action:   "approve",
		Feedback: stringPtr("Granted"),
	})

	assert.NoError(t, err)
	assert.Equal(t, models.RequestApproved, reviewed.Status)
	published := publisher.PublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventRequestReviewed, published[0].Type)
}

func TestTestRequestService_Review_IsOneShot(t *testing.T) {
	repo := newMockRepository()
	pending := &models.TestRequest{
		ID: 7, UserID: 1, TestID: 5,
		Type: models.RequestRetake, Status: models.RequestPending,
	}
	repo.requests.On("GetByID", mock.Anything, uint(7)).Return(pending, nil)
	repo.requests.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

	svc, _ := newTestRequestService(repo)

	first, err := svc.Review(context.Background(), 7, 9, &ReviewTestRequestRequest{Action: "approve"})
	assert.NoError(t, err)
	assert.Equal(t, models.RequestApproved, first.Status)

	// The same row is now APPROVED; a second decision must not overwrite it.
	_, err = svc.Review(context.Background(), 7, 9, &ReviewTestRequestRequest{Action: "deny"})
	assert.ErrorIs(t, err, ErrRequestAlreadyReviewed)
	assert.True(t, IsConflict(err))
	assert.Equal(t, models.RequestApproved, pending.Status)
}

func TestTestRequestService_Review_InvalidAction(t *testing.T) {
	svc, _ := newTestRequestService(newMockRepository())

	_, err := svc.Review(context.Background(), 7, 9, &ReviewTestRequestRequest{Action: "escalate"})

	assert.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestTestRequestService_List_ParticipantScoped(t *testing.T) {
	repo := newMockRepository()
	repo.requests.On("List", mock.Anything, mock.MatchedBy(func(f repositories.RequestFilters) bool {
		return f.UserID != nil && *f.UserID == 3
	})).Return([]*models.TestRequest{}, int64(0), nil)

	svc, _ := newTestRequestService(repo)
	_, err := svc.List(context.Background(), 3, false, &ListTestRequestsRequest{})

	assert.NoError(t, err)
	repo.requests.AssertExpectations(t)
}

func TestTestRequestService_List_AdminSeesAll(t *testing.T) {
	repo := newMockRepository()
	repo.requests.On("List", mock.Anything, mock.MatchedBy(func(f repositories.RequestFilters) bool {
		return f.UserID == nil && f.Status != nil && *f.Status == models.RequestPending
	})).Return([]*models.TestRequest{}, int64(0), nil)

	svc, _ := newTestRequestService(repo)
	_, err := svc.List(context.Background(), 9, true, &ListTestRequestsRequest{Status: models.RequestPending})

	assert.NoError(t, err)
	repo.requests.AssertExpectations(t)
}
