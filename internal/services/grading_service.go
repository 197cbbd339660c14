package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/validator"
)

type gradingService struct {
	repo      repositories.Repository
	validator *validator.Validator
	policy    GradePolicy
	notifier  NotificationEventService
	logger    *slog.Logger
	now       clock

	// One mutex per assignment id; writes to the same assignment are
	// serialized so a manual grade cannot race an automatic one. Entries
	// are released when the last writer finishes.
	locks *keyedMutex
}

func NewGradingService(repo repositories.Repository, v *validator.Validator, policy GradePolicy, notifier NotificationEventService, logger *slog.Logger) GradingService {
	if policy == nil {
		policy = DefaultGradePolicy()
	}
	return &gradingService{
		repo:      repo,
		validator: v,
		policy:    policy,
		notifier:  notifier,
		logger:    logger,
		now:       systemClock,
		locks:     newKeyedMutex(),
	}
}

func (s *gradingService) ApplyGrade(ctx context.Context, assignmentID uuid.UUID, source GradeSource) (*GradeResult, error) {
	unlock := s.locks.Lock(assignmentID)
	defer unlock()

	var out *GradeResult
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		assignment, err := txRepo.Assignment().GetByID(ctx, nil, assignmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError("assignment", assignmentID)
			}
			return fmt.Errorf("failed to load assignment: %w", err)
		}

		if source.Manual {
			out, err = s.applyManual(ctx, txRepo, assignment, source)
		} else {
			out, err = s.applyAutomatic(ctx, txRepo, assignment, source)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if out.Applied && s.notifier != nil {
		if err := s.notifier.PublishAssignmentGraded(ctx, out.Assignment, source.Manual); err != nil {
			s.logger.Warn("Failed to publish grading event", "assignment_id", assignmentID, "error", err)
		}
	}

	return out, nil
}

// applyManual always overwrites. Only the designated lecturer may grade;
// administrators bypass that check.
func (s *gradingService) applyManual(ctx context.Context, txRepo repositories.Repository, assignment *models.ExerciseAssignment, source GradeSource) (*GradeResult, error) {
	if source.LecturerID != assignment.LecturerID {
		user, err := s.repo.User().GetByID(ctx, source.LecturerID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewUnauthorizedError(source.LecturerID)
			}
			return nil, fmt.Errorf("failed to resolve grader: %w", err)
		}
		if user.Role != models.RoleAdministrator {
			return nil, NewPermissionError(source.LecturerID, assignment.ID, "assignment", "grade",
				"not the designated lecturer for this assignment")
		}
	}

	if errs := s.validator.GetBusinessValidator().ValidateGrade(source.Value); len(errs) > 0 {
		return nil, errs
	}

	grade := source.Value
	now := s.now()
	assignment.Grade = &grade
	assignment.DateOfAssessment = &now
	assignment.ManuallyGraded = true

	if err := txRepo.Assignment().Update(ctx, nil, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	s.logger.Info("Assignment graded manually",
		"assignment_id", assignment.ID, "lecturer_id", source.LecturerID, "grade", grade)

	return &GradeResult{Assignment: assignment, Applied: true}, nil
}

// applyAutomatic writes only when the assignment has never been graded. An
// existing grade, manual or automatic, is left untouched.
func (s *gradingService) applyAutomatic(ctx context.Context, txRepo repositories.Repository, assignment *models.ExerciseAssignment, source GradeSource) (*GradeResult, error) {
	if assignment.Graded() {
		s.logger.Info("Automatic grade skipped, assignment already graded",
			"assignment_id", assignment.ID, "grade", *assignment.Grade)
		return &GradeResult{Assignment: assignment, Applied: false}, nil
	}

	grade := s.policy.GradeFor(source.Result)
	now := s.now()
	assignment.Grade = &grade
	assignment.DateOfAssessment = &now
	assignment.ManuallyGraded = false

	if err := txRepo.Assignment().Update(ctx, nil, assignment); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	s.logger.Info("Assignment graded automatically",
		"assignment_id", assignment.ID, "grade", grade)

	return &GradeResult{Assignment: assignment, Applied: true}, nil
}

func (s *gradingService) AutoGrade(ctx context.Context, assignmentID uuid.UUID) (*GradeResult, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, nil, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assignment", assignmentID)
		}
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}

	latest, err := s.repo.Result().GetLatest(ctx, nil, assignment.ExerciseID, assignment.StudentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("submission result",
				fmt.Sprintf("%s/%s", assignment.ExerciseID, assignment.StudentID))
		}
		return nil, fmt.Errorf("failed to load latest result: %w", err)
	}

	return s.ApplyGrade(ctx, assignmentID, AutomaticGrade(latest))
}

func (s *gradingService) GradeManual(ctx context.Context, lecturerID string, req *ManualGradeRequest) (*GradeResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.ApplyGrade(ctx, req.AssignmentID, ManualGrade(lecturerID, req.Grade))
}

func (s *gradingService) ListAssignments(ctx context.Context, principal models.Principal, filters *repositories.AssignmentFilters) ([]models.ExerciseAssignment, error) {
	f := repositories.AssignmentFilters{}
	if filters != nil {
		f = *filters
	}

	switch principal.Role {
	case models.RoleAdministrator, models.RoleMainLecturer, models.RoleLecturer:
		// Lecturers browse assignments; scoping happens via the group filter
		// set by the handler after a visibility check.
	case models.RoleStudent:
		// Students only see their own rows.
		f.StudentID = &principal.ID
	default:
		return nil, NewPermissionError(principal.ID, nil, "assignment", "list",
			fmt.Sprintf("unknown role %q", principal.Role))
	}

	rows, err := s.repo.Assignment().List(ctx, nil, uuid.Nil, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	out := make([]models.ExerciseAssignment, 0, len(rows))
	for _, a := range rows {
		out = append(out, *a)
	}
	return out, nil
}
