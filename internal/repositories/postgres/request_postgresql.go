package postgres

import (
	"context"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"gorm.io/gorm"
)

type RequestPostgreSQL struct {
	db *gorm.DB
}

func NewRequestPostgreSQL(db *gorm.DB) repositories.RequestRepository {
	return &RequestPostgreSQL{db: db}
}

func (r RequestPostgreSQL) Create(ctx context.Context, request *models.TestRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r RequestPostgreSQL) GetByID(ctx context.Context, id uint) (*models.TestRequest, error) {
	var request models.TestRequest
	if err := r.db.WithContext(ctx).
		Preload("Test").
		First(&request, id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r RequestPostgreSQL) Update(ctx context.Context, request *models.TestRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r RequestPostgreSQL) List(ctx context.Context, filters repositories.RequestFilters) ([]*models.TestRequest, int64, error) {
	var requests []*models.TestRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.TestRequest{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
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

	if err := query.Preload("Test").Preload("User").Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}
