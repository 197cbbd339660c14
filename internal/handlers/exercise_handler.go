package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coderbench/exercise-service/internal/services"
	"github.com/coderbench/exercise-service/internal/utils"
	"github.com/coderbench/exercise-service/internal/validator"
)

type ExerciseHandler struct {
	BaseHandler
	exerciseService services.ExerciseService
	validator       *validator.Validator
}

func NewExerciseHandler(
	exerciseService services.ExerciseService,
	validator *validator.Validator,
	logger utils.Logger,
) *ExerciseHandler {
	return &ExerciseHandler{
		BaseHandler:     NewBaseHandler(logger),
		exerciseService: exerciseService,
		validator:       validator,
	}
}

// CreateExercise creates a new exercise
// @Summary Create exercise
// @Description Creates an exercise with its correctness tests and group scopes
// @Tags exercises
// @Accept json
// @Produce json
// @Param exercise body services.ExerciseCreateRequest true "Exercise data"
// @Success 201 {object} models.Exercise
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req services.ExerciseCreateRequest
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

	exercise, err := h.exerciseService.Create(c.Request.Context(), principal.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exercise)
}

type publishExerciseBody struct {
	GroupID string `json:"group_id" binding:"required,uuid"`
}

// PublishExercise publishes an exercise to one of its scoped groups
// @Summary Publish exercise
// @Description Creates one assignment per student member of the target group
// @Tags exercises
// @Accept json
// @Produce json
// @Param id path string true "Exercise ID"
// @Param body body publishExerciseBody true "Target group"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id}/publish [post]
func (h *ExerciseHandler) PublishExercise(c *gin.Context) {
	exerciseID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var body publishExerciseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	groupID, err := uuid.Parse(body.GroupID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid group_id",
			Details: err.Error(),
		})
		return
	}

	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	req := services.PublishExerciseRequest{ExerciseID: exerciseID, GroupID: groupID}
	assignments, err := h.exerciseService.Publish(c.Request.Context(), principal.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Exercise published",
		Data: map[string]interface{}{
			"assignments_created": len(assignments),
			"assignments":         assignments,
		},
	})
}

// ListExercises lists the exercises visible to the current user
// @Summary List exercises
// @Description Lists exercises scoped by the caller's visibility
// @Tags exercises
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	exercises, err := h.exerciseService.ListForPrincipal(c.Request.Context(), principal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"exercises": exercises,
		"total":     len(exercises),
	})
}

// GetExercise retrieves one exercise, subject to visibility
// @Summary Get exercise
// @Tags exercises
// @Produce json
// @Param id path string true "Exercise ID"
// @Success 200 {object} models.Exercise
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	exercise, err := h.exerciseService.GetByID(c.Request.Context(), principal, exerciseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exercise)
}
