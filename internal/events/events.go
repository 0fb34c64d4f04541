package events

import (
	"time"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/google/uuid"
)

// EventType represents different types of portal events
type EventType string

const (
	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"

	// Test events
	EventTestCreated EventType = "test.created"
	EventTestDeleted EventType = "test.deleted"

	// Request events
	EventRequestCreated  EventType = "request.created"
	EventRequestReviewed EventType = "request.reviewed"
)

// Event is the envelope for all published portal events.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

const eventSource = "exam-portal"

// Attempt event payloads

type AttemptStartedEvent struct {
	AttemptID uint      `json:"attempt_id"`
	TestID    uint      `json:"test_id"`
	TestTitle string    `json:"test_title"`
	UserID    uint      `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
}

type AttemptSubmittedEvent struct {
	AttemptID   uint                 `json:"attempt_id"`
	TestID      uint                 `json:"test_id"`
	UserID      uint                 `json:"user_id"`
	Score       int                  `json:"score"`
	Status      models.AttemptStatus `json:"status"`
	SubmittedAt time.Time            `json:"submitted_at"`
}

// Request event payloads

type RequestCreatedEvent struct {
	RequestID uint               `json:"request_id"`
	TestID    uint               `json:"test_id"`
	UserID    uint               `json:"user_id"`
	Type      models.RequestType `json:"request_type"`
}

type RequestReviewedEvent struct {
	RequestID  uint                 `json:"request_id"`
	TestID     uint                 `json:"test_id"`
	UserID     uint                 `json:"user_id"`
	ReviewerID uint                 `json:"reviewer_id"`
	Status     models.RequestStatus `json:"status"`
	ReviewedAt time.Time            `json:"reviewed_at"`
}

// Test event payloads

type TestCreatedEvent struct {
	TestID    uint      `json:"test_id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedBy uint      `json:"created_by"`
}

type TestDeletedEvent struct {
	TestID    uint   `json:"test_id"`
	Title     string `json:"title"`
	DeletedBy uint   `json:"deleted_by"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}

func NewAttemptStartedEvent(attempt *models.TestAttempt, testTitle string) *Event {
	return newEvent(EventAttemptStarted, AttemptStartedEvent{
		AttemptID: attempt.ID,
		TestID:    attempt.TestID,
		TestTitle: testTitle,
		UserID:    attempt.UserID,
		StartedAt: attempt.StartTime,
	})
}

func NewAttemptSubmittedEvent(attempt *models.TestAttempt) *Event {
	score := 0
	if attempt.Score != nil {
		score = *attempt.Score
	}
	submittedAt := time.Now()
	if attempt.EndTime != nil {
		submittedAt = *attempt.EndTime
	}
	return newEvent(EventAttemptSubmitted, AttemptSubmittedEvent{
		AttemptID:   attempt.ID,
		TestID:      attempt.TestID,
		UserID:      attempt.UserID,
		Score:       score,
		Status:      attempt.Status,
		SubmittedAt: submittedAt,
	})
}

func NewRequestReviewedEvent(request *models.TestRequest, reviewerID uint) *Event {
	reviewedAt := time.Now()
	if request.ReviewedAt != nil {
		reviewedAt = *request.ReviewedAt
	}
	return newEvent(EventRequestReviewed, RequestReviewedEvent{
		RequestID:  request.ID,
		TestID:     request.TestID,
		UserID:     request.UserID,
		ReviewerID: reviewerID,
		Status:     request.Status,
		ReviewedAt: reviewedAt,
	})
}

func NewTestCreatedEvent(test *models.Test, createdBy uint) *Event {
	return newEvent(EventTestCreated, TestCreatedEvent{
		TestID:    test.ID,
		Title:     test.Title,
		StartTime: test.StartTime,
		EndTime:   test.EndTime,
		CreatedBy: createdBy,
	})
}

func NewTestDeletedEvent(test *models.Test, deletedBy uint) *Event {
	return newEvent(EventTestDeleted, TestDeletedEvent{
		TestID:    test.ID,
		Title:     test.Title,
		DeletedBy: deletedBy,
	})
}

func NewRequestCreatedEvent(request *models.TestRequest) *Event {
	return newEvent(EventRequestCreated, RequestCreatedEvent{
		RequestID: request.ID,
		TestID:    request.TestID,
		UserID:    request.UserID,
		Type:      request.Type,
	})
}
