package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/services"
	"github.com/coderbench/exercise-service/internal/utils"
	"github.com/coderbench/exercise-service/internal/validator"
)

type EvaluationHandler struct {
	BaseHandler
	evaluationService services.EvaluationService
	validator         *validator.Validator
}

func NewEvaluationHandler(
	evaluationService services.EvaluationService,
	validator *validator.Validator,
	logger utils.Logger,
) *EvaluationHandler {
	return &EvaluationHandler{
		BaseHandler:       NewBaseHandler(logger),
		evaluationService: evaluationService,
		validator:         validator,
	}
}

// Evaluate compiles and runs a submission against the exercise's tests
// @Summary Evaluate submission
// @Description Compiles the submitted code and runs it against the exercise's correctness tests
// @Tags submissions
// @Accept json
// @Produce json
// @Param submission body services.EvaluateRequest true "Submission"
// @Success 201 {object} models.SubmissionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /submissions [post]
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req services.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	h.LogRequest(c, "Evaluating submission", "exercise_id", req.ExerciseID, "student_id", principal.ID)

	result, err := h.evaluationService.Evaluate(c.Request.Context(), principal, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// History lists a student's results for an exercise, newest first
// @Summary Submission history
// @Tags submissions
// @Produce json
// @Param id path string true "Exercise ID"
// @Param student_id query string false "Student ID (lecturers only, defaults to caller)"
// @Param status query string false "Filter by result status"
// @Param date_from query string false "RFC3339 lower bound"
// @Param date_to query string false "RFC3339 upper bound"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /exercises/{id}/submissions [get]
func (h *EvaluationHandler) History(c *gin.Context) {
	exerciseID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	studentID, ok := h.resolveStudentID(c, principal)
	if !ok {
		return
	}

	filters := h.parseResultFilters(c)
	results, err := h.evaluationService.History(c.Request.Context(), principal, exerciseID, studentID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}

// Latest returns the most recent result for an exercise
// @Summary Latest submission result
// @Tags submissions
// @Produce json
// @Param id path string true "Exercise ID"
// @Param student_id query string false "Student ID (lecturers only, defaults to caller)"
// @Success 200 {object} models.SubmissionResult
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id}/submissions/latest [get]
func (h *EvaluationHandler) Latest(c *gin.Context) {
	exerciseID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	studentID, ok := h.resolveStudentID(c, principal)
	if !ok {
		return
	}

	result, err := h.evaluationService.GetLatest(c.Request.Context(), principal, exerciseID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// resolveStudentID picks whose history is being read. Students may only read
// their own; lecturers and administrators may name another student.
func (h *EvaluationHandler) resolveStudentID(c *gin.Context, principal models.Principal) (string, bool) {
	requested := c.Query("student_id")
	if requested == "" || requested == principal.ID {
		return principal.ID, true
	}
	if principal.Role == models.RoleStudent {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Students may only view their own submissions",
		})
		return "", false
	}
	return requested, true
}

func (h *EvaluationHandler) parseResultFilters(c *gin.Context) *repositories.ResultFilters {
	filters := &repositories.ResultFilters{}
	filters.Limit, filters.Offset = h.parsePagination(c)

	if raw := c.Query("status"); raw != "" {
		status := models.SubmissionStatus(raw)
		filters.Status = &status
	}
	if raw := c.Query("date_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateFrom = &t
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateTo = &t
		}
	}
	return filters
}
