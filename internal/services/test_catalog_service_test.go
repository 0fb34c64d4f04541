package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/campusexam/exam-portal/internal/events"
	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"github.com/campusexam/exam-portal/internal/utils"
)

func newTestCatalogService(repo *MockRepository) (TestCatalogService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewTestCatalogService(repo, testLogger(), utils.NewValidator(), nil, publisher)
	return svc, publisher
}

func TestTestCatalogService_Create(t *testing.T) {
	repo := newMockRepository()
	repo.questionSets.On("GetByID", mock.Anything, uint(10)).
		Return(&models.QuestionSet{ID: 10}, nil)
	repo.tests.On("Create", mock.Anything, mock.MatchedBy(func(tst *models.Test) bool {
		return tst.Title == "Final" && tst.QuestionSetID == 10
	})).Return(nil)

	svc, publisher := newTestCatalogService(repo)
	created, err := svc.Create(context.Background(), 9, &CreateTestRequest{
		Title:         "Final",
		Subject:       "Math",
		Duration:      60,
		StartTime:     time.Now().Add(time.Hour),
		EndTime:       time.Now().Add(3 * time.Hour),
		PassingScore:  70,
		IsActive:      true,
		QuestionSetID: 10,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.TestScheduled, created.Status)
	published := publisher.PublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventTestCreated, published[0].Type)
}

func TestTestCatalogService_Create_InvalidWindow(t *testing.T) {
	svc, _ := newTestCatalogService(newMockRepository())

	start := time.Now().Add(2 * time.Hour)
	_, err := svc.Create(context.Background(), 9, &CreateTestRequest{
		Title:         "Final",
		Subject:       "Math",
		Duration:      60,
		StartTime:     start,
		EndTime:       start.Add(-time.Hour),
		QuestionSetID: 10,
	})

	assert.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestTestCatalogService_Create_MissingQuestionSet(t *testing.T) {
	repo := newMockRepository()
	repo.questionSets.On("GetByID", mock.Anything, uint(99)).Return(nil, gormNotFound())

	svc, _ := newTestCatalogService(repo)
	_, err := svc.Create(context.Background(), 9, &CreateTestRequest{
		Title:         "Final",
		Subject:       "Math",
		Duration:      60,
		StartTime:     time.Now().Add(time.Hour),
		EndTime:       time.Now().Add(2 * time.Hour),
		QuestionSetID: 99,
	})

	assert.ErrorIs(t, err, ErrQuestionSetNotFound)
	repo.tests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTestCatalogService_List_DerivesStatus(t *testing.T) {
	repo := newMockRepository()
	now := time.Now()
	tests := []*models.Test{
		{ID: 1, IsActive: false, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
		{ID: 2, IsActive: true, StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)},
		{ID: 3, IsActive: true, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
		{ID: 4, IsActive: true, StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour)},
	}
	repo.tests.On("List", mock.Anything, mock.Anything).Return(tests, int64(4), nil)

	svc, _ := newTestCatalogService(repo)
	result, err := svc.List(context.Background(), &ListTestsRequest{})

	assert.NoError(t, err)
	assert.Equal(t, models.TestDraft, result.Rows[0].Status)
	assert.Equal(t, models.TestScheduled, result.Rows[1].Status)
	assert.Equal(t, models.TestActive, result.Rows[2].Status)
	assert.Equal(t, models.TestCompleted, result.Rows[3].Status)
}

func TestTestCatalogService_ListAvailable(t *testing.T) {
	repo := newMockRepository()
	now := time.Now()
	available := []*models.Test{
		{ID: 3, IsActive: true, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
	}
	repo.tests.On("ListAvailable", mock.Anything, uint(1), mock.Anything).Return(available, nil)

	svc, _ := newTestCatalogService(repo)
	tests, err := svc.ListAvailable(context.Background(), 1)

	assert.NoError(t, err)
	assert.Len(t, tests, 1)
	assert.Equal(t, models.TestActive, tests[0].Status)
}

func TestTestCatalogService_Delete(t *testing.T) {
	repo := newMockRepository()
	repo.tests.On("GetByID", mock.Anything, uint(5)).
		Return(&models.Test{ID: 5, Title: "Final"}, nil)
	repo.tests.On("Delete", mock.Anything, uint(5)).Return(nil)

	svc, publisher := newTestCatalogService(repo)
	err := svc.Delete(context.Background(), 5, 9)

	assert.NoError(t, err)
	published := publisher.PublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventTestDeleted, published[0].Type)
}

func TestTestCatalogService_GetStats(t *testing.T) {
	repo := newMockRepository()
	repo.tests.On("GetByID", mock.Anything, uint(5)).Return(&models.Test{ID: 5}, nil)
	repo.tests.On("GetStats", mock.Anything, uint(5)).Return(&repositories.TestStats{
		TotalAttempts:     10,
		CompletedAttempts: 8,
		AverageScore:      72.5,
		PassRate:          0.75,
	}, nil)

	svc, _ := newTestCatalogService(repo)
	stats, err := svc.GetStats(context.Background(), 5)

	assert.NoError(t, err)
	assert.Equal(t, 10, stats.TotalAttempts)
	assert.Equal(t, 72.5, stats.AverageScore)
}
