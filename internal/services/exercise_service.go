package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/coderbench/exercise-service/internal/cache"
	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/validator"
)

type exerciseService struct {
	repo       repositories.Repository
	visibility VisibilityService
	validator  *validator.Validator
	cache      *cache.CacheManager
	notifier   NotificationEventService
	logger     *slog.Logger
}

func NewExerciseService(repo repositories.Repository, visibility VisibilityService, v *validator.Validator, cacheManager *cache.CacheManager, notifier NotificationEventService, logger *slog.Logger) ExerciseService {
	return &exerciseService{
		repo:       repo,
		visibility: visibility,
		validator:  v,
		cache:      cacheManager,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *exerciseService) Create(ctx context.Context, authorID string, req *ExerciseCreateRequest) (*models.Exercise, error) {
	s.logger.Info("Creating exercise", "author_id", authorID, "name", req.Name, "course_id", req.CourseID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateExerciseCreate(req); len(errs) > 0 {
		return nil, errs
	}

	author, err := s.repo.User().GetByID(ctx, authorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewUnauthorizedError(authorID)
		}
		return nil, fmt.Errorf("failed to resolve author: %w", err)
	}
	if author.Role == models.RoleStudent {
		return nil, NewPermissionError(authorID, req.CourseID, "exercise", "create",
			"students cannot author exercises")
	}

	if _, err := s.repo.Course().GetByID(ctx, nil, req.CourseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", req.CourseID)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	if _, err := s.repo.Language().GetByID(ctx, nil, req.ProgrammingLanguageID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("programming language", req.ProgrammingLanguageID)
		}
		return nil, fmt.Errorf("failed to load programming language: %w", err)
	}

	// Every scope group must belong to the exercise's course.
	for _, groupID := range req.GroupIDs {
		group, err := s.repo.Group().GetByID(ctx, nil, groupID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewNotFoundError("group", groupID)
			}
			return nil, fmt.Errorf("failed to load group: %w", err)
		}
		if group.CourseID != req.CourseID {
			return nil, NewValidationError("group_ids",
				fmt.Sprintf("group %s belongs to a different course", groupID), groupID)
		}
	}

	exercise := &models.Exercise{
		CourseID:              req.CourseID,
		AuthorID:              authorID,
		Name:                  req.Name,
		Content:               req.Content,
		InitialCode:           req.InitialCode,
		ProgrammingLanguageID: req.ProgrammingLanguageID,
	}
	for _, groupID := range req.GroupIDs {
		exercise.GroupScopes = append(exercise.GroupScopes, models.ExerciseGroup{GroupID: groupID})
	}
	for _, testReq := range req.Tests {
		test := models.CorrectnessTest{}
		for i, content := range testReq.Inputs {
			test.Inputs = append(test.Inputs, models.CorrectnessTestInput{Position: i, Content: content})
		}
		for i, content := range testReq.Outputs {
			test.Outputs = append(test.Outputs, models.CorrectnessTestOutput{Position: i, Content: content})
		}
		exercise.Tests = append(exercise.Tests, test)
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Exercise().Create(ctx, nil, exercise)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}

	if s.cache != nil {
		cache.InvalidateExerciseCache(ctx, s.cache, exercise.ID.String())
	}

	return exercise, nil
}

// Publish fans an exercise out to one of its scoped groups, creating one
// assignment per student member. The publishing lecturer becomes the
// designated grader of every created assignment.
func (s *exerciseService) Publish(ctx context.Context, lecturerID string, req *PublishExerciseRequest) ([]models.ExerciseAssignment, error) {
	s.logger.Info("Publishing exercise", "exercise_id", req.ExerciseID, "group_id", req.GroupID, "lecturer_id", lecturerID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lecturer, err := s.repo.User().GetByID(ctx, lecturerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewUnauthorizedError(lecturerID)
		}
		return nil, fmt.Errorf("failed to resolve lecturer: %w", err)
	}
	if lecturer.Role == models.RoleStudent {
		return nil, NewPermissionError(lecturerID, req.ExerciseID, "exercise", "publish",
			"students cannot publish exercises")
	}

	exercise, err := s.repo.Exercise().GetByID(ctx, nil, req.ExerciseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exercise", req.ExerciseID)
		}
		return nil, fmt.Errorf("failed to load exercise: %w", err)
	}

	scopes, err := s.repo.Exercise().GetScopes(ctx, nil, exercise.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercise scopes: %w", err)
	}
	inScope := false
	for _, eg := range scopes {
		if eg.GroupID == req.GroupID {
			inScope = true
			break
		}
	}
	if !inScope {
		return nil, NewValidationError("group_id", "exercise is not scoped to this group", req.GroupID)
	}

	if lecturer.Role != models.RoleAdministrator {
		canAccess, err := s.visibility.CanAccessGroup(ctx, models.Principal{ID: lecturerID, Role: lecturer.Role}, req.GroupID)
		if err != nil {
			return nil, err
		}
		if !canAccess {
			return nil, NewPermissionError(lecturerID, req.GroupID, "group", "publish",
				"group is outside the lecturer's visibility scope")
		}
	}

	members, err := s.repo.Group().GetMembers(ctx, nil, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}

	var assignments []*models.ExerciseAssignment
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for _, m := range members {
			member, err := s.repo.User().GetByID(ctx, m.UserID)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					continue
				}
				return fmt.Errorf("failed to resolve member %s: %w", m.UserID, err)
			}
			if member.Role != models.RoleStudent {
				continue
			}

			// Republishing must not duplicate a student's assignment.
			existing, err := txRepo.Assignment().GetByExerciseAndStudent(ctx, nil, exercise.ID, member.ID)
			if err != nil && !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to check existing assignment: %w", err)
			}
			if existing != nil {
				continue
			}

			assignments = append(assignments, &models.ExerciseAssignment{
				ExerciseID: exercise.ID,
				GroupID:    req.GroupID,
				StudentID:  member.ID,
				LecturerID: lecturerID,
			})
		}

		if len(assignments) == 0 {
			return nil
		}
		return txRepo.Assignment().CreateBatch(ctx, nil, assignments)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.PublishExercisePublished(ctx, exercise, len(assignments)); err != nil {
			s.logger.Warn("Failed to publish exercise event", "exercise_id", exercise.ID, "error", err)
		}
	}

	out := make([]models.ExerciseAssignment, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, *a)
	}
	return out, nil
}

func (s *exerciseService) ListForPrincipal(ctx context.Context, principal models.Principal) ([]models.Exercise, error) {
	return s.visibility.VisibleExercises(ctx, principal)
}

func (s *exerciseService) GetByID(ctx context.Context, principal models.Principal, exerciseID uuid.UUID) (*models.Exercise, error) {
	exercise, err := s.repo.Exercise().GetByIDWithTests(ctx, nil, exerciseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exercise", exerciseID)
		}
		return nil, fmt.Errorf("failed to load exercise: %w", err)
	}

	if principal.Role == models.RoleAdministrator {
		return exercise, nil
	}

	scope, err := s.visibility.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	scopes, err := s.repo.Exercise().GetScopes(ctx, nil, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercise scopes: %w", err)
	}
	for _, eg := range scopes {
		if scope.ContainsGroup(eg.GroupID) {
			return exercise, nil
		}
	}

	return nil, NewPermissionError(principal.ID, exerciseID, "exercise", "read",
		"exercise is outside the principal's visibility scope")
}
