package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/campusexam/exam-portal/internal/models"
	"gorm.io/gorm"
)

// Repository aggregates access to all entity repositories. WithTransaction
// runs fn against a repository bound to a single database transaction;
// returning an error rolls the transaction back.
type Repository interface {
	Users() UserRepository
	QuestionSets() QuestionSetRepository
	Questions() QuestionRepository
	Tests() TestRepository
	Attempts() AttemptRepository
	Answers() AnswerRepository
	Requests() RequestRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hashed string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type QuestionSetRepository interface {
	Create(ctx context.Context, set *models.QuestionSet) error
	GetByID(ctx context.Context, id uint) (*models.QuestionSet, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.QuestionSet, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters QuestionSetFilters) ([]*models.QuestionSet, int64, error)

	// ListAttemptedBy returns sets belonging to tests the user has
	// attempted at least once, joined through attempts and tests.
	ListAttemptedBy(ctx context.Context, userID uint, filters QuestionSetFilters) ([]*models.QuestionSet, int64, error)

	IsOwner(ctx context.Context, setID, userID uint) (bool, error)
	InUseByTest(ctx context.Context, setID uint) (bool, error)

	// HasAttempted reports whether the user attempted any test backed by
	// this set.
	HasAttempted(ctx context.Context, setID, userID uint) (bool, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetBySet(ctx context.Context, setID uint) ([]*models.Question, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)

	// ListAttemptedBy mirrors QuestionSetRepository.ListAttemptedBy at the
	// question level.
	ListAttemptedBy(ctx context.Context, userID uint, filters QuestionFilters) ([]*models.Question, int64, error)
}

type TestRepository interface {
	Create(ctx context.Context, test *models.Test) error
	GetByID(ctx context.Context, id uint) (*models.Test, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters TestFilters) ([]*models.Test, int64, error)

	// ListAvailable returns active tests whose window contains now and for
	// which the user has no terminal attempt.
	ListAvailable(ctx context.Context, userID uint, now time.Time) ([]*models.Test, error)

	CountByQuestionSet(ctx context.Context, setID uint) (int64, error)
	GetStats(ctx context.Context, testID uint) (*TestStats, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.TestAttempt) error
	GetByID(ctx context.Context, id uint) (*models.TestAttempt, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.TestAttempt, error)
	Update(ctx context.Context, attempt *models.TestAttempt) error
	List(ctx context.Context, filters AttemptFilters) ([]*models.TestAttempt, int64, error)

	// GetActive returns the IN_PROGRESS attempt for (userID, testID), or
	// nil when none exists.
	GetActive(ctx context.Context, userID, testID uint) (*models.TestAttempt, error)
	HasTerminal(ctx context.Context, userID, testID uint) (bool, error)
	CountByUserAndTest(ctx context.Context, userID, testID uint) (int64, error)
	BestScore(ctx context.Context, userID, testID uint) (*int, error)
}

type AnswerRepository interface {
	CreateBatch(ctx context.Context, answers []*models.Answer) error
	GetByAttempt(ctx context.Context, attemptID uint) ([]*models.Answer, error)
	DeleteByQuestion(ctx context.Context, questionID uint) error
}

type RequestRepository interface {
	Create(ctx context.Context, request *models.TestRequest) error
	GetByID(ctx context.Context, id uint) (*models.TestRequest, error)
	Update(ctx context.Context, request *models.TestRequest) error
	List(ctx context.Context, filters RequestFilters) ([]*models.TestRequest, int64, error)
}

// IsNotFoundError reports whether err represents a missing row.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
