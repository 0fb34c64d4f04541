package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusexam/exam-portal/internal/auth"
	"github.com/campusexam/exam-portal/internal/services"
	"github.com/campusexam/exam-portal/internal/utils"
)

const maxImportSize = 10 << 20 // 10 MiB

type QuestionHandler struct {
	BaseHandler
	bankService   services.QuestionBankService
	importService services.ImportExportService
}

func NewQuestionHandler(bankService services.QuestionBankService, importService services.ImportExportService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:   NewBaseHandler(logger),
		bankService:   bankService,
		importService: importService,
	}
}

// ===== QUESTION SETS =====

func (h *QuestionHandler) CreateQuestionSet(c *gin.Context) {
	var req services.CreateQuestionSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating question set", "title", req.Title)

	set, err := h.bankService.CreateQuestionSet(c.Request.Context(), auth.CurrentUserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, set)
}

func (h *QuestionHandler) GetQuestionSet(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	set, err := h.bankService.GetQuestionSet(c.Request.Context(), id, auth.CurrentUserID(c), isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, set)
}

func (h *QuestionHandler) ListQuestionSets(c *gin.Context) {
	var req services.ListQuestionSetsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	result, err := h.bankService.ListQuestionSets(c.Request.Context(), auth.CurrentUserID(c), isAdmin(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *QuestionHandler) DeleteQuestionSet(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting question set", "set_id", id)

	if err := h.bankService.DeleteQuestionSet(c.Request.Context(), id, auth.CurrentUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== QUESTIONS =====

// CreateQuestions accepts either a single question object or a batch under
// "questions".
type createQuestionsRequest struct {
	Questions []services.CreateQuestionRequest `json:"questions" binding:"required,min=1"`
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	setID := h.parseIDParam(c, "id")
	if setID == 0 {
		return
	}

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.bankService.CreateQuestion(c.Request.Context(), setID, auth.CurrentUserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) CreateQuestionsBatch(c *gin.Context) {
	setID := h.parseIDParam(c, "id")
	if setID == 0 {
		return
	}

	var req createQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating question batch", "set_id", setID, "count", len(req.Questions))

	questions, err := h.bankService.CreateQuestions(c.Request.Context(), setID, auth.CurrentUserID(c), req.Questions)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, questions)
}

func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	var req services.ListQuestionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	result, err := h.bankService.ListQuestions(c.Request.Context(), auth.CurrentUserID(c), isAdmin(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting question", "question_id", id)

	if err := h.bankService.DeleteQuestion(c.Request.Context(), id, auth.CurrentUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== IMPORT / EXPORT =====

// ImportQuestions reads an uploaded xlsx workbook into the set.
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	setID := h.parseIDParam(c, "id")
	if setID == 0 {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "File too large",
			Details: fmt.Sprintf("limit is %d bytes", maxImportSize),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Could not read file upload",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing questions", "set_id", setID, "filename", fileHeader.Filename)

	result, err := h.importService.ImportQuestions(c.Request.Context(), setID, auth.CurrentUserID(c), file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportQuestions streams the set's questions as an xlsx workbook.
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	setID := h.parseIDParam(c, "id")
	if setID == 0 {
		return
	}

	data, err := h.importService.ExportQuestions(c.Request.Context(), setID, auth.CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("question-set-%d.xlsx", setID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
