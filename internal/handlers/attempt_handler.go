package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusexam/exam-portal/internal/auth"
	"github.com/campusexam/exam-portal/internal/services"
	"github.com/campusexam/exam-portal/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

type startAttemptRequest struct {
	TestID uint `json:"test_id" binding:"required"`
}

// StartAttempt admits the caller into a test, returning the attempt and its
// questions with the answer key withheld. Repeating the call while the
// attempt is in progress returns the same attempt.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req startAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting attempt", "test_id", req.TestID)

	resp, err := h.attemptService.Start(c.Request.Context(), auth.CurrentUserID(c), req.TestID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitAttempt grades and closes the attempt.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", id)

	result, err := h.attemptService.Submit(c.Request.Context(), id, auth.CurrentUserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	resp, err := h.attemptService.Get(c.Request.Context(), id, auth.CurrentUserID(c), isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AttemptHandler) GetResult(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), id, auth.CurrentUserID(c), isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListAttempts returns the caller's attempts; admins see everyone's.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	var req services.ListAttemptsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	result, err := h.attemptService.List(c.Request.Context(), auth.CurrentUserID(c), isAdmin(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
