package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-console/internal/usecase/user"
	pkgerrors "user-console/pkg/errors"
	"user-console/pkg/logger"
)

// UserHandler serves the /users REST resource of the reference backend.
type UserHandler struct {
	svc user.Service
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(svc user.Service, log *zap.Logger) *UserHandler {
	return &UserHandler{
		svc: svc,
		log: log,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req user.UserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_body",
			Message: "Request body must be a JSON user",
		})
		return
	}

	u, err := h.svc.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	u, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req user.UserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid update user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_body",
			Message: "Request body must be a JSON user",
		})
		return
	}

	u, err := h.svc.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.log.Warn("Invalid user ID", zap.String("id", idStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "User ID must be a valid number",
		})
		return 0, false
	}
	return id, true
}

// handleError converts usecase errors to HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	status := pkgerrors.StatusOf(err)
	log := logger.WithContext(c.Request.Context(), h.log)

	resp := ErrorResponse{Message: err.Error()}
	switch status {
	case http.StatusBadRequest:
		resp.Error = "validation_error"
	case http.StatusNotFound:
		resp.Error = "not_found"
	case http.StatusConflict:
		resp.Error = "already_exists"
	default:
		log.Error("request failed", zap.Error(err))
		resp = ErrorResponse{Error: "internal_error", Message: "An internal error occurred"}
	}

	if status < http.StatusInternalServerError {
		log.Warn("request rejected", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, resp)
}
