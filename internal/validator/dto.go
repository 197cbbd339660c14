package validator

import (
	"github.com/google/uuid"
)

// CorrectnessTestRequest carries one test's positionally paired inputs and
// expected outputs.
type CorrectnessTestRequest struct {
	Inputs  []string `json:"inputs" validate:"required,min=1"`
	Outputs []string `json:"outputs" validate:"required,min=1"`
}

// ExerciseCreateRequest represents the request structure for creating
// exercises. An exercise must be scoped to at least one group of its course.
type ExerciseCreateRequest struct {
	CourseID              uuid.UUID                `json:"course_id" validate:"required"`
	Name                  string                   `json:"name" validate:"required,min=1,max=200"`
	Content               string                   `json:"content" validate:"required"`
	InitialCode           string                   `json:"initial_code"`
	ProgrammingLanguageID uuid.UUID                `json:"programming_language_id" validate:"required"`
	GroupIDs              []uuid.UUID              `json:"group_ids" validate:"required,min=1"`
	Tests                 []CorrectnessTestRequest `json:"tests" validate:"omitempty,dive"`
}

// PublishExerciseRequest publishes an exercise to one of its scoped groups,
// creating an assignment per student member.
type PublishExerciseRequest struct {
	ExerciseID uuid.UUID `json:"exercise_id" validate:"required"`
	GroupID    uuid.UUID `json:"group_id" validate:"required"`
}

// EvaluateRequest represents a submission for evaluation.
type EvaluateRequest struct {
	ExerciseID uuid.UUID `json:"exercise_id" validate:"required"`
	Code       string    `json:"code" validate:"required"`
}

// ManualGradeRequest represents a lecturer grading an assignment by hand.
type ManualGradeRequest struct {
	AssignmentID uuid.UUID `json:"assignment_id" validate:"required"`
	Grade        float64   `json:"grade" validate:"required,min=2,max=5"`
}

// LanguageCreateRequest registers a programming language and its compiler
// backend.
type LanguageCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Version     string `json:"version" validate:"omitempty,max=50"`
	CompilerURL string `json:"compiler_url" validate:"required,url"`
}
