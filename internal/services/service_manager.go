package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coderbench/exercise-service/internal/cache"
	"github.com/coderbench/exercise-service/internal/events"
	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/runner"
	"github.com/coderbench/exercise-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	LogLevel slog.Level

	// Execution limits applied to every test run.
	Limits runner.ResourceLimits

	// Grade derived from an evaluation result; used when no custom policy
	// is provided.
	AutoGradePass float64
	AutoGradeFail float64

	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo           repositories.Repository
	runner         runner.Runner
	eventPublisher events.EventPublisher
	cache          *cache.CacheManager
	logger         *slog.Logger
	validator      *validator.Validator
	policy         GradePolicy
	config         ServiceManagerConfig

	// Service instances
	visibilityService VisibilityService
	evaluationService EvaluationService
	gradingService    GradingService
	exerciseService   ExerciseService
	exportService     ExportService
	notificationSvc   NotificationEventService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, r runner.Runner, publisher events.EventPublisher, cacheManager *cache.CacheManager, logger *slog.Logger, v *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:           repo,
		runner:         r,
		eventPublisher: publisher,
		cache:          cacheManager,
		logger:         logger,
		validator:      v,
		config:         config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(repo repositories.Repository, r runner.Runner, publisher events.EventPublisher, cacheManager *cache.CacheManager, logger *slog.Logger, v *validator.Validator) ServiceManager {
	config := ServiceManagerConfig{
		LogLevel:       slog.LevelInfo,
		Limits:         DefaultResourceLimits,
		AutoGradePass:  5.0,
		AutoGradeFail:  2.0,
		DefaultTimeout: 30 * time.Second,
	}
	return NewServiceManager(repo, r, publisher, cacheManager, logger, v, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.policy = &PassFailPolicy{Pass: sm.config.AutoGradePass, Fail: sm.config.AutoGradeFail}

	sm.notificationSvc = NewNotificationEventService(sm.eventPublisher, sm.logger)
	sm.visibilityService = NewVisibilityService(sm.repo, sm.cache, sm.logger)

	evaluation := NewEvaluationService(sm.repo, sm.runner, sm.validator, sm.visibilityService, sm.notificationSvc, sm.logger).(*evaluationService)
	if sm.config.Limits.WallClock > 0 {
		evaluation.limits = sm.config.Limits
	}
	sm.evaluationService = evaluation

	sm.gradingService = NewGradingService(sm.repo, sm.validator, sm.policy, sm.notificationSvc, sm.logger)
	sm.exerciseService = NewExerciseService(sm.repo, sm.visibilityService, sm.validator, sm.cache, sm.notificationSvc, sm.logger)
	sm.exportService = NewExportService(sm.repo, sm.visibilityService, sm.logger)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository unhealthy: %w", err)
	}

	// Cache is optional; degraded cache is not a failure.
	if sm.cache != nil {
		if err := sm.cache.HealthCheck(ctx); err != nil {
			sm.logger.Warn("Cache health check failed", "error", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.eventPublisher != nil {
		if err := sm.eventPublisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if err := sm.repo.Close(); err != nil {
		sm.logger.Error("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down")

	return nil
}

// Service getters

func (sm *serviceManager) Visibility() VisibilityService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.visibilityService
}

func (sm *serviceManager) Evaluation() EvaluationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.evaluationService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.gradingService
}

func (sm *serviceManager) Exercise() ExerciseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.exerciseService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.exportService
}

func (sm *serviceManager) Notification() NotificationEventService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.notificationSvc
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}
