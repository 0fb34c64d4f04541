package postgres

import (
	"context"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"gorm.io/gorm"
)

type gormRepository struct {
	db           *gorm.DB
	users        repositories.UserRepository
	questionSets repositories.QuestionSetRepository
	questions    repositories.QuestionRepository
	tests        repositories.TestRepository
	attempts     repositories.AttemptRepository
	answers      repositories.AnswerRepository
	requests     repositories.RequestRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &gormRepository{
		db:           db,
		users:        NewUserPostgreSQL(db),
		questionSets: NewQuestionSetPostgreSQL(db),
		questions:    NewQuestionPostgreSQL(db),
		tests:        NewTestPostgreSQL(db),
		attempts:     NewAttemptPostgreSQL(db),
		answers:      NewAnswerPostgreSQL(db),
		requests:     NewRequestPostgreSQL(db),
	}
}

func (r *gormRepository) Users() repositories.UserRepository                { return r.users }
func (r *gormRepository) QuestionSets() repositories.QuestionSetRepository { return r.questionSets }
func (r *gormRepository) Questions() repositories.QuestionRepository       { return r.questions }
func (r *gormRepository) Tests() repositories.TestRepository               { return r.tests }
func (r *gormRepository) Attempts() repositories.AttemptRepository         { return r.attempts }
func (r *gormRepository) Answers() repositories.AnswerRepository           { return r.answers }
func (r *gormRepository) Requests() repositories.RequestRepository         { return r.requests }

func (r *gormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *gormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates the schema for all portal entities. The
// partial unique index backs the one-IN_PROGRESS-attempt-per-(user,test)
// invariant that the admission lock serializes at the application level.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.QuestionSet{},
		&models.Question{},
		&models.Test{},
		&models.TestAttempt{},
		&models.Answer{},
		&models.TestRequest{},
	); err != nil {
		return err
	}

	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_in_progress_attempt
		 ON test_attempts (user_id, test_id)
		 WHERE status = 'IN_PROGRESS' AND deleted_at IS NULL`,
	).Error
}

// applyPaginationAndSort applies the shared limit/offset/order conventions.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	if sortBy != "" {
		order := sortBy
		if sortOrder == "desc" {
			order += " DESC"
		}
		query = query.Order(order)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
