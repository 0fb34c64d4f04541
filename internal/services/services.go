package services

import (
	"log/slog"
	"math"

	"github.com/campusexam/exam-portal/internal/cache"
	"github.com/campusexam/exam-portal/internal/events"
	"github.com/campusexam/exam-portal/internal/repositories"
	"github.com/campusexam/exam-portal/internal/utils"
)

// PagedResult is the common envelope for paginated list responses.
type PagedResult[T any] struct {
	Rows       []T   `json:"rows"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// Pagination carries normalized page/page_size query parameters.
type Pagination struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=100"`
}

const defaultPageSize = 20

// Normalize fills defaults and returns (limit, offset) for repositories.
func (p *Pagination) Normalize() (limit, offset int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	return p.PageSize, (p.Page - 1) * p.PageSize
}

func newPagedResult[T any](rows []T, total int64, p Pagination) *PagedResult[T] {
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(p.PageSize)))
	}
	return &PagedResult[T]{
		Rows:       rows,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}
}

// ServiceManager aggregates all business services behind one constructor so
// the handler layer receives a single dependency.
type ServiceManager struct {
	attempt      AttemptService
	questionBank QuestionBankService
	testCatalog  TestCatalogService
	testRequest  TestRequestService
	user         UserService
	importExport ImportExportService
}

type ServiceManagerConfig struct {
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *utils.Validator
	Cache     cache.CacheService
	Lock      cache.AdmissionLock
	Publisher events.EventPublisher
	JWTSecret string
	TokenTTL  int // hours
}

func NewServiceManager(cfg ServiceManagerConfig) *ServiceManager {
	questionBank := NewQuestionBankService(cfg.Repo, cfg.Logger, cfg.Validator)
	return &ServiceManager{
		attempt:      NewAttemptService(cfg.Repo, cfg.Logger, cfg.Lock, cfg.Publisher),
		questionBank: questionBank,
		testCatalog:  NewTestCatalogService(cfg.Repo, cfg.Logger, cfg.Validator, cfg.Cache, cfg.Publisher),
		testRequest:  NewTestRequestService(cfg.Repo, cfg.Logger, cfg.Validator, cfg.Publisher),
		user:         NewUserService(cfg.Repo, cfg.Logger, cfg.Validator, cfg.JWTSecret, cfg.TokenTTL),
		importExport: NewImportExportService(cfg.Repo, cfg.Logger, questionBank),
	}
}

func (m *ServiceManager) Attempt() AttemptService           { return m.attempt }
func (m *ServiceManager) QuestionBank() QuestionBankService { return m.questionBank }
func (m *ServiceManager) TestCatalog() TestCatalogService   { return m.testCatalog }
func (m *ServiceManager) TestRequest() TestRequestService   { return m.testRequest }
func (m *ServiceManager) User() UserService                 { return m.user }
func (m *ServiceManager) ImportExport() ImportExportService { return m.importExport }
