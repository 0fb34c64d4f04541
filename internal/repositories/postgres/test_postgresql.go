package postgres

import (
	"context"
	"time"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"gorm.io/gorm"
)

type TestPostgreSQL struct {
	db *gorm.DB
}

func NewTestPostgreSQL(db *gorm.DB) repositories.TestRepository {
	return &TestPostgreSQL{db: db}
}

func (t TestPostgreSQL) Create(ctx context.Context, test *models.Test) error {
	return t.db.WithContext(ctx).Create(test).Error
}

func (t TestPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	if err := t.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (t TestPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	if err := t.db.WithContext(ctx).
		Preload("QuestionSet").
		Preload("QuestionSet.Questions").
		First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (t TestPostgreSQL) Delete(ctx context.Context, id uint) error {
	// Cascades answers, then attempts, then the test row.
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"test_attempt_id IN (?)",
			tx.Model(&models.TestAttempt{}).Select("id").Where("test_id = ?", id),
		).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", id).Delete(&models.TestAttempt{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Test{}, id).Error
	})
}

func (t TestPostgreSQL) List(ctx context.Context, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	var tests []*models.Test
	var total int64

	query := t.db.WithContext(ctx).Model(&models.Test{})

	if filters.Subject != nil {
		query = query.Where("subject = ?", *filters.Subject)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.QuestionSetID != nil {
		query = query.Where("question_set_id = ?", *filters.QuestionSetID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, sortOrDefault(filters.SortBy), filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("QuestionSet").Find(&tests).Error; err != nil {
		return nil, 0, err
	}

	return tests, total, nil
}

func (t TestPostgreSQL) ListAvailable(ctx context.Context, userID uint, now time.Time) ([]*models.Test, error) {
	var tests []*models.Test
	if err := t.db.WithContext(ctx).
		Where("is_active = ? AND start_time <= ? AND end_time >= ?", true, now, now).
		Where(
			"id NOT IN (?)",
			t.db.Model(&models.TestAttempt{}).
				Select("test_id").
				Where("user_id = ? AND status <> ?", userID, models.AttemptInProgress),
		).
		Order("start_time").
		Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

func (t TestPostgreSQL) CountByQuestionSet(ctx context.Context, setID uint) (int64, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&models.Test{}).
		Where("question_set_id = ?", setID).
		Count(&count).Error
	return count, err
}

func (t TestPostgreSQL) GetStats(ctx context.Context, testID uint) (*repositories.TestStats, error) {
	var totalAttempts int64
	if err := t.db.WithContext(ctx).Model(&models.TestAttempt{}).
		Where("test_id = ?", testID).
		Count(&totalAttempts).Error; err != nil {
		return nil, err
	}

	var completed, passed int64
	var avgScore *float64

	terminal := []models.AttemptStatus{models.AttemptCompleted, models.AttemptPassed, models.AttemptFailed}
	if err := t.db.WithContext(ctx).Model(&models.TestAttempt{}).
		Where("test_id = ? AND status IN ?", testID, terminal).
		Count(&completed).Error; err != nil {
		return nil, err
	}
	if err := t.db.WithContext(ctx).Model(&models.TestAttempt{}).
		Where("test_id = ? AND status = ?", testID, models.AttemptPassed).
		Count(&passed).Error; err != nil {
		return nil, err
	}
	if err := t.db.WithContext(ctx).Model(&models.TestAttempt{}).
		Where("test_id = ? AND status IN ?", testID, terminal).
		Select("AVG(score)").Scan(&avgScore).Error; err != nil {
		return nil, err
	}

	stats := &repositories.TestStats{
		TotalAttempts:     int(totalAttempts),
		CompletedAttempts: int(completed),
	}
	if avgScore != nil {
		stats.AverageScore = *avgScore
	}
	if completed > 0 {
		stats.PassRate = float64(passed) / float64(completed)
	}

	return stats, nil
}
