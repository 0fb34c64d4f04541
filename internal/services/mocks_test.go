package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
)

// Shared testify mocks for the repository layer.

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	args := m.Called(ctx, id, hashed)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type MockQuestionSetRepository struct {
	mock.Mock
}

func (m *MockQuestionSetRepository) Create(ctx context.Context, set *models.QuestionSet) error {
	args := m.Called(ctx, set)
	return args.Error(0)
}

func (m *MockQuestionSetRepository) GetByID(ctx context.Context, id uint) (*models.QuestionSet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestionSet), args.Error(1)
}

func (m *MockQuestionSetRepository) GetByIDWithQuestions(ctx context.Context, id uint) (*models.QuestionSet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestionSet), args.Error(1)
}

func (m *MockQuestionSetRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionSetRepository) List(ctx context.Context, filters repositories.QuestionSetFilters) ([]*models.QuestionSet, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.QuestionSet), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuestionSetRepository) ListAttemptedBy(ctx context.Context, userID uint, filters repositories.QuestionSetFilters) ([]*models.QuestionSet, int64, error) {
	args := m.Called(ctx, userID, filters)
	return args.Get(0).([]*models.QuestionSet), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuestionSetRepository) IsOwner(ctx context.Context, setID, userID uint) (bool, error) {
	args := m.Called(ctx, setID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuestionSetRepository) InUseByTest(ctx context.Context, setID uint) (bool, error) {
	args := m.Called(ctx, setID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuestionSetRepository) HasAttempted(ctx context.Context, setID, userID uint) (bool, error) {
	args := m.Called(ctx, setID, userID)
	return args.Bool(0), args.Error(1)
}

type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) CreateBatch(ctx context.Context, questions []*models.Question) error {
	args := m.Called(ctx, questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetBySet(ctx context.Context, setID uint) ([]*models.Question, error) {
	args := m.Called(ctx, setID)
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Question), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuestionRepository) ListAttemptedBy(ctx context.Context, userID uint, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	args := m.Called(ctx, userID, filters)
	return args.Get(0).([]*models.Question), args.Get(1).(int64), args.Error(2)
}

type MockTestRepository struct {
	mock.Mock
}

func (m *MockTestRepository) Create(ctx context.Context, test *models.Test) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *MockTestRepository) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Test), args.Error(1)
}

func (m *MockTestRepository) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Test), args.Error(1)
}

func (m *MockTestRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTestRepository) List(ctx context.Context, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Test), args.Get(1).(int64), args.Error(2)
}

func (m *MockTestRepository) ListAvailable(ctx context.Context, userID uint, now time.Time) ([]*models.Test, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).([]*models.Test), args.Error(1)
}

func (m *MockTestRepository) CountByQuestionSet(ctx context.Context, setID uint) (int64, error) {
	args := m.Called(ctx, setID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTestRepository) GetStats(ctx context.Context, testID uint) (*repositories.TestStats, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.TestStats), args.Error(1)
}

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.TestAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id uint) (*models.TestAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TestAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDWithAnswers(ctx context.Context, id uint) (*models.TestAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TestAttempt), args.Error(1)
}

func (m *MockAttemptRepository) Update(ctx context.Context, attempt *models.TestAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.TestAttempt, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.TestAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetActive(ctx context.Context, userID, testID uint) (*models.TestAttempt, error) {
	args := m.Called(ctx, userID, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TestAttempt), args.Error(1)
}

func (m *MockAttemptRepository) HasTerminal(ctx context.Context, userID, testID uint) (bool, error) {
	args := m.Called(ctx, userID, testID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) CountByUserAndTest(ctx context.Context, userID, testID uint) (int64, error) {
	args := m.Called(ctx, userID, testID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) BestScore(ctx context.Context, userID, testID uint) (*int, error) {
	args := m.Called(ctx, userID, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int), args.Error(1)
}

type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) CreateBatch(ctx context.Context, answers []*models.Answer) error {
	args := m.Called(ctx, answers)
	return args.Error(0)
}

func (m *MockAnswerRepository) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.Answer, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).([]*models.Answer), args.Error(1)
}

func (m *MockAnswerRepository) DeleteByQuestion(ctx context.Context, questionID uint) error {
	args := m.Called(ctx, questionID)
	return args.Error(0)
}

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, request *models.TestRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id uint) (*models.TestRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TestRequest), args.Error(1)
}

func (m *MockRequestRepository) Update(ctx context.Context, request *models.TestRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestRepository) List(ctx context.Context, filters repositories.RequestFilters) ([]*models.TestRequest, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.TestRequest), args.Get(1).(int64), args.Error(2)
}

// MockRepository aggregates the entity mocks. WithTransaction runs the
// closure against the same mocks, which is enough for service-level tests.
type MockRepository struct {
	users        *MockUserRepository
	questionSets *MockQuestionSetRepository
	questions    *MockQuestionRepository
	tests        *MockTestRepository
	attempts     *MockAttemptRepository
	answers      *MockAnswerRepository
	requests     *MockRequestRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		users:        &MockUserRepository{},
		questionSets: &MockQuestionSetRepository{},
		questions:    &MockQuestionRepository{},
		tests:        &MockTestRepository{},
		attempts:     &MockAttemptRepository{},
		answers:      &MockAnswerRepository{},
		requests:     &MockRequestRepository{},
	}
}

func (m *MockRepository) Users() repositories.UserRepository               { return m.users }
func (m *MockRepository) QuestionSets() repositories.QuestionSetRepository { return m.questionSets }
func (m *MockRepository) Questions() repositories.QuestionRepository       { return m.questions }
func (m *MockRepository) Tests() repositories.TestRepository               { return m.tests }
func (m *MockRepository) Attempts() repositories.AttemptRepository         { return m.attempts }
func (m *MockRepository) Answers() repositories.AnswerRepository           { return m.answers }
func (m *MockRepository) Requests() repositories.RequestRepository         { return m.requests }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }

// Shared test helpers

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stringPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func gormNotFound() error { return gorm.ErrRecordNotFound }
