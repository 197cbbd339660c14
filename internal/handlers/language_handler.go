package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/utils"
	"github.com/coderbench/exercise-service/internal/validator"
)

// LanguageHandler manages the programming language registry. The registry is
// small and admin-curated, so it talks to the repository directly.
type LanguageHandler struct {
	BaseHandler
	languageRepo repositories.LanguageRepository
	validator    *validator.Validator
}

func NewLanguageHandler(
	languageRepo repositories.LanguageRepository,
	validator *validator.Validator,
	logger utils.Logger,
) *LanguageHandler {
	return &LanguageHandler{
		BaseHandler:  NewBaseHandler(logger),
		languageRepo: languageRepo,
		validator:    validator,
	}
}

// ListLanguages lists the registered programming languages
// @Summary List programming languages
// @Tags languages
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /languages [get]
func (h *LanguageHandler) ListLanguages(c *gin.Context) {
	languages, err := h.languageRepo.List(c.Request.Context(), nil)
	if err != nil {
		h.LogError(c, err, "Failed to list languages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to list languages",
		})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"languages": languages,
		"total":     len(languages),
	})
}

// CreateLanguage registers a programming language and its compiler backend
// @Summary Register programming language
// @Tags languages
// @Accept json
// @Produce json
// @Param language body validator.LanguageCreateRequest true "Language data"
// @Success 201 {object} models.ProgrammingLanguage
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /languages [post]
func (h *LanguageHandler) CreateLanguage(c *gin.Context) {
	var req validator.LanguageCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	language := &models.ProgrammingLanguage{
		Name:        req.Name,
		Version:     req.Version,
		CompilerURL: req.CompilerURL,
	}
	if err := h.languageRepo.Create(c.Request.Context(), nil, language); err != nil {
		h.LogError(c, err, "Failed to create language")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to create language",
		})
		return
	}

	c.JSON(http.StatusCreated, language)
}
