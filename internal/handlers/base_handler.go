package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/services"
	"github.com/coderbench/exercise-service/internal/utils"
)

// ErrorResponse is the envelope for every non-2xx reply.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse is the envelope for 2xx replies that carry a message.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler needs.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs a request-scoped info line.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

// LogError logs a request-scoped error line.
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.FromContext(c, h.logger).Error(msg, append(args, "error", err)...)
}

// principalFromContext rebuilds the authenticated principal set by the auth
// middleware. The second return is false when authentication did not run.
func (h *BaseHandler) principalFromContext(c *gin.Context) (models.Principal, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return models.Principal{}, false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		return models.Principal{}, false
	}

	principal := models.Principal{ID: id}
	if userRole, exists := c.Get("user_role"); exists {
		if role, ok := userRole.(models.UserRole); ok {
			principal.Role = role
		}
	}
	return principal, true
}

// requirePrincipal writes a 401 and returns false when no authenticated user
// is attached to the request.
func (h *BaseHandler) requirePrincipal(c *gin.Context) (models.Principal, bool) {
	principal, ok := h.principalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
	}
	return principal, ok
}

// parseUUIDParam parses a path parameter as a UUID, replying 400 on failure.
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name,
			Details: err.Error(),
		})
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads limit/offset query parameters with sane bounds.
func (h *BaseHandler) parsePagination(c *gin.Context) (limit, offset int) {
	limit = 20
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// handleServiceError maps the service error taxonomy to HTTP statuses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	var notFoundError *services.NotFoundError
	if errors.As(err, &notFoundError) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: notFoundError.Resource + " not found",
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized access",
		})
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Conflict with existing resource",
		})
	case errors.Is(err, services.ErrExecutionTimeout):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Message: "Code execution timed out",
		})
	case errors.Is(err, services.ErrExecutionFault):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Code execution backend unavailable",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
