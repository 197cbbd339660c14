package events

import (
	"context"
	"time"
)

// Event is the envelope every message published by this service carries.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

const (
	EventSource  = "exercise-service"
	EventVersion = "1.0"
)

// Event types emitted by the service.
const (
	TypeExercisePublished   = "exercise.published"
	TypeSubmissionEvaluated = "submission.evaluated"
	TypeAssignmentGraded    = "assignment.graded"
)

// EventPublisher publishes service events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}
