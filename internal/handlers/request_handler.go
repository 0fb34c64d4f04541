package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusexam/exam-portal/internal/auth"
	"github.com/campusexam/exam-portal/internal/services"
	"github.com/campusexam/exam-portal/internal/utils"
)

type RequestHandler struct {
	BaseHandler
	requestService services.TestRequestService
}

func NewRequestHandler(requestService services.TestRequestService, logger utils.Logger) *RequestHandler {
	return &RequestHandler{
		BaseHandler:    NewBaseHandler(logger),
		requestService: requestService,
	}
}

// CreateRequest submits a retake or accommodation petition.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req services.CreateTestRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating test request", "test_id", req.TestID, "type", req.Type)

	request, err := h.requestService.Create(c.Request.Context(), auth.CurrentUserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// ReviewRequest decides a pending request. A request can only be decided
// once; reviewing it again responds 409.
func (h *RequestHandler) ReviewRequest(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.ReviewTestRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Reviewing test request", "request_id", id, "action", req.Action)

	request, err := h.requestService.Review(c.Request.Context(), id, auth.CurrentUserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListRequests returns the caller's requests; admins see everyone's.
func (h *RequestHandler) ListRequests(c *gin.Context) {
	var req services.ListTestRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	result, err := h.requestService.List(c.Request.Context(), auth.CurrentUserID(c), isAdmin(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
