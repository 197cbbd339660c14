package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	StatusAccepted            SubmissionStatus = "accepted"
	StatusWrongAnswer         SubmissionStatus = "wrong_answer"
	StatusCompileError        SubmissionStatus = "compile_error"
	StatusTimeLimitExceeded   SubmissionStatus = "time_limit_exceeded"
	StatusMemoryLimitExceeded SubmissionStatus = "memory_limit_exceeded"
	StatusRuntimeError        SubmissionStatus = "runtime_error"
	StatusNoTests             SubmissionStatus = "no_tests"
)

// Terminal reports whether the status is a final grading outcome. All
// statuses produced by an evaluation are terminal; the constant set exists
// so callers do not retry in-band outcomes.
func (s SubmissionStatus) Terminal() bool {
	switch s {
	case StatusAccepted, StatusWrongAnswer, StatusCompileError,
		StatusTimeLimitExceeded, StatusMemoryLimitExceeded,
		StatusRuntimeError, StatusNoTests:
		return true
	}
	return false
}

// SubmissionResult records the outcome of evaluating one code submission
// against an exercise's correctness tests. Results are append-only history;
// a student accumulates one row per submission.
type SubmissionResult struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExerciseID uuid.UUID `json:"exercise_id" gorm:"type:uuid;not null;index"`
	StudentID  string    `json:"student_id" gorm:"not null;size:255;index"`

	Status        SubmissionStatus `json:"status" gorm:"not null;size:32;index"`
	CompileOutput *string          `json:"compile_output" gorm:"type:text"`
	Error         *string          `json:"error" gorm:"type:text"`
	Message       *string          `json:"message" gorm:"type:text"`

	// Worst-case resource usage across the test runs, not the sum.
	MemoryKB int `json:"memory_kb"`
	TimeMs   int `json:"time_ms"`

	TestsPassed int `json:"tests_passed"`
	TestsTotal  int `json:"tests_total"`

	// Per-test diagnostics (verdict, time, memory per test).
	TestDetails datatypes.JSON `json:"test_details" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Exercise Exercise `json:"exercise" gorm:"foreignKey:ExerciseID"`
	Student  User     `json:"student" gorm:"foreignKey:StudentID"`
}

// ExerciseAssignment links one student, one grading lecturer, one group and
// one exercise, and carries the eventual grade. One row is created per
// student member when an exercise is published to a group.
type ExerciseAssignment struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExerciseID uuid.UUID `json:"exercise_id" gorm:"type:uuid;not null;index"`
	GroupID    uuid.UUID `json:"group_id" gorm:"type:uuid;not null;index"`
	StudentID  string    `json:"student_id" gorm:"not null;size:255;index"`
	LecturerID string    `json:"lecturer_id" gorm:"size:255;index"`

	Grade            *float64   `json:"grade" gorm:"type:decimal(18,2)"`
	DateOfAssessment *time.Time `json:"date_of_assessment"`

	// Graded manually at least once; automatic grading must not clobber it.
	ManuallyGraded bool `json:"manually_graded" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exercise Exercise `json:"exercise" gorm:"foreignKey:ExerciseID"`
	Group    Group    `json:"group" gorm:"foreignKey:GroupID"`
	Student  User     `json:"student" gorm:"foreignKey:StudentID"`
	Lecturer User     `json:"lecturer" gorm:"foreignKey:LecturerID"`
}

// Graded reports whether a grade has been recorded.
func (a *ExerciseAssignment) Graded() bool {
	return a.Grade != nil
}

func (SubmissionResult) TableName() string {
	return "submission_results"
}

func (ExerciseAssignment) TableName() string {
	return "exercise_assignments"
}
