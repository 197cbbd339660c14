package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coderbench/exercise-service/internal/services"
	"github.com/coderbench/exercise-service/internal/utils"
)

// CourseHandler serves the listings a principal may see. Everything goes
// through the visibility resolver, so the same role rules apply here as in
// the core operations.
type CourseHandler struct {
	BaseHandler
	visibilityService services.VisibilityService
}

func NewCourseHandler(visibilityService services.VisibilityService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:       NewBaseHandler(logger),
		visibilityService: visibilityService,
	}
}

// ListCourses lists the courses visible to the current user
// @Summary List courses
// @Tags courses
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	scope, err := h.visibilityService.Resolve(c.Request.Context(), principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"courses": scope.Courses,
		"total":   len(scope.Courses),
	})
}

// ListGroups lists the groups visible to the current user
// @Summary List groups
// @Tags groups
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /groups [get]
func (h *CourseHandler) ListGroups(c *gin.Context) {
	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	scope, err := h.visibilityService.Resolve(c.Request.Context(), principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"groups": scope.Groups,
		"total":  len(scope.Groups),
	})
}

// GetScope returns the caller's full visibility scope
// @Summary Current user's visibility scope
// @Tags courses
// @Produce json
// @Success 200 {object} services.VisibilityScope
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /me/scope [get]
func (h *CourseHandler) GetScope(c *gin.Context) {
	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	scope, err := h.visibilityService.Resolve(c.Request.Context(), principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, scope)
}
