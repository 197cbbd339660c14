package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/services"
	"github.com/coderbench/exercise-service/internal/utils"
	"github.com/coderbench/exercise-service/internal/validator"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	validator      *validator.Validator
}

func NewGradingHandler(
	gradingService services.GradingService,
	validator *validator.Validator,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		validator:      validator,
	}
}

type manualGradeBody struct {
	Grade float64 `json:"grade" binding:"required"`
}

// GradeAssignment records a lecturer-entered grade
// @Summary Grade assignment manually
// @Description Records a manual grade; manual grades always overwrite
// @Tags grading
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param body body manualGradeBody true "Grade value"
// @Success 200 {object} services.GradeResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assignments/{id}/grade [put]
func (h *GradingHandler) GradeAssignment(c *gin.Context) {
	assignmentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var body manualGradeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	req := services.ManualGradeRequest{AssignmentID: assignmentID, Grade: body.Grade}
	result, err := h.gradingService.GradeManual(c.Request.Context(), principal.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AutoGradeAssignment grades an assignment from its latest evaluation result
// @Summary Auto-grade assignment
// @Description Applies the latest submission result as an automatic grade; never overwrites an existing grade
// @Tags grading
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} services.GradeResult
// @Failure 404 {object} ErrorResponse
// @Router /assignments/{id}/auto-grade [post]
func (h *GradingHandler) AutoGradeAssignment(c *gin.Context) {
	assignmentID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if _, ok := h.requirePrincipal(c); !ok {
		return
	}

	result, err := h.gradingService.AutoGrade(c.Request.Context(), assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListAssignments lists assignments with optional filters
// @Summary List assignments
// @Description Students see only their own rows; lecturers may filter by group or student
// @Tags grading
// @Produce json
// @Param group_id query string false "Filter by group"
// @Param student_id query string false "Filter by student"
// @Param graded query bool false "Filter by graded state"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /assignments [get]
func (h *GradingHandler) ListAssignments(c *gin.Context) {
	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	filters := &repositories.AssignmentFilters{}
	filters.Limit, filters.Offset = h.parsePagination(c)

	if raw := c.Query("group_id"); raw != "" {
		groupID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid group_id",
				Details: err.Error(),
			})
			return
		}
		filters.GroupID = &groupID
	}
	if raw := c.Query("student_id"); raw != "" {
		filters.StudentID = &raw
	}
	if raw := c.Query("graded"); raw != "" {
		graded, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid graded flag",
				Details: err.Error(),
			})
			return
		}
		filters.Graded = &graded
	}

	assignments, err := h.gradingService.ListAssignments(c.Request.Context(), principal, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"assignments": assignments,
		"total":       len(assignments),
	})
}
