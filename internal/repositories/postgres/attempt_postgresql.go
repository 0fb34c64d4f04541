package postgres

import (
	"context"
	"errors"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.TestAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) GetByIDWithAnswers(ctx context.Context, id uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := a.db.WithContext(ctx).
		Preload("Answers").
		Preload("Test").
		Preload("User").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) Update(ctx context.Context, attempt *models.TestAttempt) error {
	return a.db.WithContext(ctx).Save(attempt).Error
}

func (a AttemptPostgreSQL) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.TestAttempt, int64, error) {
	var attempts []*models.TestAttempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.TestAttempt{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	if err := query.Preload("Test").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a AttemptPostgreSQL) GetActive(ctx context.Context, userID, testID uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := a.db.WithContext(ctx).
		Where("user_id = ? AND test_id = ? AND status = ?", userID, testID, models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) HasTerminal(ctx context.Context, userID, testID uint) (bool, error) {
	var count int64
	if err := a.db.WithContext(ctx).Model(&models.TestAttempt{}).
		Where("user_id = ? AND test_id = ? AND status <> ?", userID, testID, models.AttemptInProgress).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a AttemptPostgreSQL) CountByUserAndTest(ctx context.Context, userID, testID uint) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&models.TestAttempt{}).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Count(&count).Error
	return count, err
}

func (a AttemptPostgreSQL) BestScore(ctx context.Context, userID, testID uint) (*int, error) {
	var best *int
	if err := a.db.WithContext(ctx).Model(&models.TestAttempt{}).
		Where("user_id = ? AND test_id = ? AND score IS NOT NULL", userID, testID).
		Select("MAX(score)").Scan(&best).Error; err != nil {
		return nil, err
	}
	return best, nil
}

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a AnswerPostgreSQL) CreateBatch(ctx context.Context, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return a.db.WithContext(ctx).Create(answers).Error
}

func (a AnswerPostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	if err := a.db.WithContext(ctx).
		Where("test_attempt_id = ?", attemptID).
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a AnswerPostgreSQL) DeleteByQuestion(ctx context.Context, questionID uint) error {
	return a.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Delete(&models.Answer{}).Error
}
