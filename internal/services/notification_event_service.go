package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coderbench/exercise-service/internal/events"
	"github.com/coderbench/exercise-service/internal/models"
)

// Topics the service publishes to.
const (
	TopicExerciseEvents   = "exercise-events"
	TopicSubmissionEvents = "submission-events"
	TopicGradingEvents    = "grading-events"
)

// ExercisePublishedEvent announces an exercise fanned out to a group.
type ExercisePublishedEvent struct {
	ExerciseID      string                      `json:"exercise_id"`
	CourseID        string                      `json:"course_id"`
	Name            string                      `json:"name"`
	AssignmentCount int                         `json:"assignment_count"`
	Priority        models.NotificationPriority `json:"priority"`
}

// SubmissionEvaluatedEvent announces a finished evaluation.
type SubmissionEvaluatedEvent struct {
	ResultID    string                  `json:"result_id"`
	ExerciseID  string                  `json:"exercise_id"`
	StudentID   string                  `json:"student_id"`
	Status      models.SubmissionStatus `json:"status"`
	TestsPassed int                     `json:"tests_passed"`
	TestsTotal  int                     `json:"tests_total"`
}

// AssignmentGradedEvent announces a grade written to the ledger.
type AssignmentGradedEvent struct {
	AssignmentID string                      `json:"assignment_id"`
	ExerciseID   string                      `json:"exercise_id"`
	StudentID    string                      `json:"student_id"`
	Grade        float64                     `json:"grade"`
	Manual       bool                        `json:"manual"`
	Priority     models.NotificationPriority `json:"priority"`
}

type notificationEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewNotificationEventService(publisher events.EventPublisher, logger *slog.Logger) NotificationEventService {
	return &notificationEventService{
		eventPublisher: publisher,
		logger:         logger,
	}
}

func (s *notificationEventService) PublishExercisePublished(ctx context.Context, exercise *models.Exercise, assignmentCount int) error {
	event := &events.Event{
		Type: events.TypeExercisePublished,
		Data: ExercisePublishedEvent{
			ExerciseID:      exercise.ID.String(),
			CourseID:        exercise.CourseID.String(),
			Name:            exercise.Name,
			AssignmentCount: assignmentCount,
			Priority:        models.PriorityNormal,
		},
	}
	if err := s.eventPublisher.Publish(ctx, TopicExerciseEvents, event); err != nil {
		return fmt.Errorf("failed to publish exercise event: %w", err)
	}
	return nil
}

func (s *notificationEventService) PublishSubmissionEvaluated(ctx context.Context, result *models.SubmissionResult) error {
	event := &events.Event{
		Type: events.TypeSubmissionEvaluated,
		Data: SubmissionEvaluatedEvent{
			ResultID:    result.ID.String(),
			ExerciseID:  result.ExerciseID.String(),
			StudentID:   result.StudentID,
			Status:      result.Status,
			TestsPassed: result.TestsPassed,
			TestsTotal:  result.TestsTotal,
		},
	}
	if err := s.eventPublisher.Publish(ctx, TopicSubmissionEvents, event); err != nil {
		return fmt.Errorf("failed to publish submission event: %w", err)
	}
	return nil
}

func (s *notificationEventService) PublishAssignmentGraded(ctx context.Context, assignment *models.ExerciseAssignment, manual bool) error {
	var grade float64
	if assignment.Grade != nil {
		grade = *assignment.Grade
	}

	priority := models.PriorityNormal
	if manual {
		priority = models.PriorityHigh
	}

	event := &events.Event{
		Type: events.TypeAssignmentGraded,
		Data: AssignmentGradedEvent{
			AssignmentID: assignment.ID.String(),
			ExerciseID:   assignment.ExerciseID.String(),
			StudentID:    assignment.StudentID,
			Grade:        grade,
			Manual:       manual,
			Priority:     priority,
		},
	}
	if err := s.eventPublisher.Publish(ctx, TopicGradingEvents, event); err != nil {
		return fmt.Errorf("failed to publish grading event: %w", err)
	}
	return nil
}
