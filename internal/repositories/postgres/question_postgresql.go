package postgres

import (
	"context"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"gorm.io/gorm"
)

type QuestionSetPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionSetPostgreSQL(db *gorm.DB) repositories.QuestionSetRepository {
	return &QuestionSetPostgreSQL{db: db}
}

func (q QuestionSetPostgreSQL) Create(ctx context.Context, set *models.QuestionSet) error {
	return q.db.WithContext(ctx).Create(set).Error
}

func (q QuestionSetPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuestionSet, error) {
	var set models.QuestionSet
	if err := q.db.WithContext(ctx).First(&set, id).Error; err != nil {
		return nil, err
	}
	return &set, nil
}

func (q QuestionSetPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.QuestionSet, error) {
	var set models.QuestionSet
	if err := q.db.WithContext(ctx).
		Preload("Questions").
		First(&set, id).Error; err != nil {
		return nil, err
	}
	set.QuestionsCount = len(set.Questions)
	return &set, nil
}

func (q QuestionSetPostgreSQL) Delete(ctx context.Context, id uint) error {
	// Questions first to honor the foreign key, then the set itself.
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_set_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.QuestionSet{}, id).Error
	})
}

func (q QuestionSetPostgreSQL) List(ctx context.Context, filters repositories.QuestionSetFilters) ([]*models.QuestionSet, int64, error) {
	var sets []*models.QuestionSet
	var total int64

	query := q.db.WithContext(ctx).Model(&models.QuestionSet{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, sortOrDefault(filters.SortBy), filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Questions").Find(&sets).Error; err != nil {
		return nil, 0, err
	}
	for _, set := range sets {
		set.QuestionsCount = len(set.Questions)
	}

	return sets, total, nil
}

func (q QuestionSetPostgreSQL) ListAttemptedBy(ctx context.Context, userID uint, filters repositories.QuestionSetFilters) ([]*models.QuestionSet, int64, error) {
	var sets []*models.QuestionSet
	var total int64

	query := q.db.WithContext(ctx).Model(&models.QuestionSet{}).
		Joins("JOIN tests ON tests.question_set_id = question_sets.id").
		Joins("JOIN test_attempts ON test_attempts.test_id = tests.id").
		Where("test_attempts.user_id = ?", userID).
		Distinct("question_sets.*")
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, sortOrDefault(filters.SortBy), filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&sets).Error; err != nil {
		return nil, 0, err
	}

	return sets, total, nil
}

func (q QuestionSetPostgreSQL) IsOwner(ctx context.Context, setID, userID uint) (bool, error) {
	var count int64
	if err := q.db.WithContext(ctx).Model(&models.QuestionSet{}).
		Where("id = ? AND created_by_id = ?", setID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (q QuestionSetPostgreSQL) InUseByTest(ctx context.Context, setID uint) (bool, error) {
	var count int64
	if err := q.db.WithContext(ctx).Model(&models.Test{}).
		Where("question_set_id = ?", setID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (q QuestionSetPostgreSQL) HasAttempted(ctx context.Context, setID, userID uint) (bool, error) {
	var count int64
	if err := q.db.WithContext(ctx).Model(&models.TestAttempt{}).
		Joins("JOIN tests ON tests.id = test_attempts.test_id").
		Where("tests.question_set_id = ? AND test_attempts.user_id = ?", setID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (q QuestionSetPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuestionSetFilters) *gorm.DB {
	if filters.Subject != nil {
		query = query.Where("question_sets.subject = ?", *filters.Subject)
	}
	if filters.CreatedBy != nil {
		query = query.Where("question_sets.created_by_id = ?", *filters.CreatedBy)
	}
	return query
}

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Create(question).Error
}

func (q QuestionPostgreSQL) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return q.db.WithContext(ctx).Create(questions).Error
}

func (q QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q QuestionPostgreSQL) GetBySet(ctx context.Context, setID uint) ([]*models.Question, error) {
	var questions []*models.Question
	if err := q.db.WithContext(ctx).
		Where("question_set_id = ?", setID).
		Order("id").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	// Answers referencing the question go first to satisfy referential
	// constraints, then the question row.
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, id).Error
	})
}

func (q QuestionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Question{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, sortOrDefault(filters.SortBy), filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (q QuestionPostgreSQL) ListAttemptedBy(ctx context.Context, userID uint, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Question{}).
		Joins("JOIN tests ON tests.question_set_id = questions.question_set_id").
		Joins("JOIN test_attempts ON test_attempts.test_id = tests.id").
		Where("test_attempts.user_id = ?", userID).
		Distinct("questions.*")
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, sortOrDefault(filters.SortBy), filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (q QuestionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.Subject != nil {
		query = query.Where("questions.subject = ?", *filters.Subject)
	}
	if filters.Type != nil {
		query = query.Where("questions.type = ?", *filters.Type)
	}
	if filters.Difficulty != nil {
		query = query.Where("questions.difficulty = ?", *filters.Difficulty)
	}
	if filters.QuestionSetID != nil {
		query = query.Where("questions.question_set_id = ?", *filters.QuestionSetID)
	}
	return query
}

func sortOrDefault(sortBy string) string {
	if sortBy == "" {
		return "created_at"
	}
	return sortBy
}
