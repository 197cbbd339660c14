package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/coderbench/exercise-service/internal/events"
	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/validator"
)

func TestNotificationEventService_PublishEvents(t *testing.T) {
	logger := testLogger()
	mockPublisher := events.NewMockEventPublisher(logger)
	svc := NewNotificationEventService(mockPublisher, logger)
	ctx := context.Background()

	t.Run("ExercisePublished", func(t *testing.T) {
		mockPublisher.ClearEvents()
		exercise := &models.Exercise{ID: uuid.New(), CourseID: uuid.New(), Name: "Sorting"}

		if err := svc.PublishExercisePublished(ctx, exercise, 12); err != nil {
			t.Fatalf("Failed to publish: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}
		if published[0].Type != events.TypeExercisePublished {
			t.Errorf("Expected %s, got %s", events.TypeExercisePublished, published[0].Type)
		}
		data, ok := published[0].Data.(ExercisePublishedEvent)
		if !ok {
			t.Fatal("Unexpected event payload type")
		}
		if data.AssignmentCount != 12 {
			t.Errorf("Expected assignment count 12, got %d", data.AssignmentCount)
		}
	})

	t.Run("SubmissionEvaluated", func(t *testing.T) {
		mockPublisher.ClearEvents()
		result := &models.SubmissionResult{
			ID:          uuid.New(),
			ExerciseID:  uuid.New(),
			StudentID:   "alice",
			Status:      models.StatusAccepted,
			TestsPassed: 3,
			TestsTotal:  3,
		}

		if err := svc.PublishSubmissionEvaluated(ctx, result); err != nil {
			t.Fatalf("Failed to publish: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}
		data, ok := published[0].Data.(SubmissionEvaluatedEvent)
		if !ok {
			t.Fatal("Unexpected event payload type")
		}
		if data.Status != models.StatusAccepted {
			t.Errorf("Expected accepted status, got %s", data.Status)
		}
	})

	t.Run("AssignmentGraded_EnvelopeFilled", func(t *testing.T) {
		mockPublisher.ClearEvents()
		grade := 4.0
		assignment := &models.ExerciseAssignment{
			ID:         uuid.New(),
			ExerciseID: uuid.New(),
			StudentID:  "alice",
			Grade:      &grade,
		}

		if err := svc.PublishAssignmentGraded(ctx, assignment, true); err != nil {
			t.Fatalf("Failed to publish: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}
		event := published[0]
		if event.ID == "" || event.Source != events.EventSource || event.Timestamp.IsZero() {
			t.Error("Event envelope defaults were not filled")
		}
		data, ok := event.Data.(AssignmentGradedEvent)
		if !ok {
			t.Fatal("Unexpected event payload type")
		}
		if !data.Manual || data.Grade != 4.0 {
			t.Errorf("Unexpected payload: %+v", data)
		}
		if data.Priority != models.PriorityHigh {
			t.Errorf("Manual grading should publish with high priority, got %s", data.Priority)
		}
	})
}

func TestNewServiceManager(t *testing.T) {
	repo := newMockRepository()
	sm := NewDefaultServiceManager(repo, nil, events.NewMockEventPublisher(testLogger()), nil, testLogger(), validator.New())

	if err := sm.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := sm.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if sm.Visibility() == nil || sm.Evaluation() == nil || sm.Grading() == nil ||
		sm.Exercise() == nil || sm.Export() == nil || sm.Notification() == nil {
		t.Error("Expected all services wired after initialization")
	}
	if err := sm.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}
