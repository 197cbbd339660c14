package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userRepo repositories.UserRepository
}

func NewUserHandler(userRepo repositories.UserRepository, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userRepo:    userRepo,
	}
}

// ListUsers lists users known to the identity provider
// @Summary List users
// @Tags users
// @Produce json
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (student, lecturer, main_lecturer, administrator)"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	if _, ok := h.requirePrincipal(c); !ok {
		return
	}

	users, err := h.userRepo.List(c.Request.Context())
	if err != nil {
		h.LogError(c, err, "Failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to list users",
		})
		return
	}

	query := strings.ToLower(c.Query("q"))
	role := models.UserRole(c.Query("role"))

	filtered := make([]*models.User, 0, len(users))
	for _, u := range users {
		if role != "" && u.Role != role {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(u.FullName), query) &&
			!strings.Contains(strings.ToLower(u.Email), query) {
			continue
		}
		filtered = append(filtered, u)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"users": filtered,
		"total": len(filtered),
	})
}

// GetUser retrieves one user by id
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	if _, ok := h.requirePrincipal(c); !ok {
		return
	}

	userID := c.Param("id")
	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Message: "User not found",
			})
			return
		}
		h.LogError(c, err, "Failed to get user", "user_id", userID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to get user",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Me returns the authenticated user's profile
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	if user, exists := c.Get("user"); exists {
		c.JSON(http.StatusOK, user)
		return
	}

	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), principal.ID)
	if err != nil {
		h.LogError(c, err, "Failed to load current user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to load current user",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}
