package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coderbench/exercise-service/internal/config"
	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/services"
	"github.com/coderbench/exercise-service/internal/utils"
	"github.com/coderbench/exercise-service/internal/validator"
)

type HandlerManager struct {
	exerciseHandler   *ExerciseHandler
	evaluationHandler *EvaluationHandler
	gradingHandler    *GradingHandler
	exportHandler     *ExportHandler
	courseHandler     *CourseHandler
	languageHandler   *LanguageHandler
	userHandler       *UserHandler
	authMiddleware    *CasdoorAuthMiddleware
	serviceManager    services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	repo repositories.Repository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, repo.User())

	return &HandlerManager{
		exerciseHandler:   NewExerciseHandler(serviceManager.Exercise(), validator, logger),
		evaluationHandler: NewEvaluationHandler(serviceManager.Evaluation(), validator, logger),
		gradingHandler:    NewGradingHandler(serviceManager.Grading(), validator, logger),
		exportHandler:     NewExportHandler(serviceManager.Export(), logger),
		courseHandler:     NewCourseHandler(serviceManager.Visibility(), logger),
		languageHandler:   NewLanguageHandler(repo.Language(), validator, logger),
		userHandler:       NewUserHandler(repo.User(), logger),
		authMiddleware:    authMiddleware,
		serviceManager:    serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint, outside authentication
	router.GET("/health", hm.healthCheck)

	lecturerRoles := []models.UserRole{models.RoleLecturer, models.RoleMainLecturer}

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Exercise routes
		exercises := v1.Group("/exercises")
		{
			// Authoring and publishing - lecturers only
			exercises.POST("", hm.authMiddleware.RequireRoleMiddleware(lecturerRoles...), hm.exerciseHandler.CreateExercise)
			exercises.POST("/:id/publish", hm.authMiddleware.RequireRoleMiddleware(lecturerRoles...), hm.exerciseHandler.PublishExercise)

			// Viewing - all authenticated users, scoped by visibility
			exercises.GET("", hm.exerciseHandler.ListExercises)
			exercises.GET("/:id", hm.exerciseHandler.GetExercise)

			// Submission history per exercise
			exercises.GET("/:id/submissions", hm.evaluationHandler.History)
			exercises.GET("/:id/submissions/latest", hm.evaluationHandler.Latest)
		}

		// Submission evaluation
		submissions := v1.Group("/submissions")
		{
			submissions.POST("", hm.evaluationHandler.Evaluate)
		}

		// Assignment and grading routes
		assignments := v1.Group("/assignments")
		{
			assignments.GET("", hm.gradingHandler.ListAssignments)
			assignments.PUT("/:id/grade", hm.authMiddleware.RequireRoleMiddleware(lecturerRoles...), hm.gradingHandler.GradeAssignment)
			assignments.POST("/:id/auto-grade", hm.authMiddleware.RequireRoleMiddleware(lecturerRoles...), hm.gradingHandler.AutoGradeAssignment)
		}

		// Course and group listings, scoped by visibility
		courses := v1.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
		}
		groups := v1.Group("/groups")
		{
			groups.GET("", hm.courseHandler.ListGroups)
			groups.GET("/:id/grade-sheet", hm.authMiddleware.RequireRoleMiddleware(lecturerRoles...), hm.exportHandler.ExportGradeSheet)
		}

		// Programming language registry
		languages := v1.Group("/languages")
		{
			languages.GET("", hm.languageHandler.ListLanguages)
			languages.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdministrator), hm.languageHandler.CreateLanguage)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}

		// Current user
		me := v1.Group("/me")
		{
			me.GET("", hm.userHandler.Me)
			me.GET("/scope", hm.courseHandler.GetScope)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "exercise-service",
	})
}
