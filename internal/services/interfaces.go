package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/validator"
)

// Request DTOs are defined next to their validation tags.
type (
	ExerciseCreateRequest  = validator.ExerciseCreateRequest
	PublishExerciseRequest = validator.PublishExerciseRequest
	EvaluateRequest        = validator.EvaluateRequest
	ManualGradeRequest     = validator.ManualGradeRequest
	LanguageCreateRequest  = validator.LanguageCreateRequest
	CorrectnessTestRequest = validator.CorrectnessTestRequest
)

// VisibilityScope is the resolved set of courses and groups a principal may
// see. Group membership in the scope implies membership of the owning course.
type VisibilityScope struct {
	Courses []models.Course `json:"courses"`
	Groups  []models.Group  `json:"groups"`
}

// CourseIDs returns the course identifiers in the scope.
func (s *VisibilityScope) CourseIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Courses))
	for _, c := range s.Courses {
		ids = append(ids, c.ID)
	}
	return ids
}

// GroupIDs returns the group identifiers in the scope.
func (s *VisibilityScope) GroupIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Groups))
	for _, g := range s.Groups {
		ids = append(ids, g.ID)
	}
	return ids
}

// ContainsGroup reports whether the scope includes the group.
func (s *VisibilityScope) ContainsGroup(groupID uuid.UUID) bool {
	for _, g := range s.Groups {
		if g.ID == groupID {
			return true
		}
	}
	return false
}

// GradeSource identifies where a grade came from. Automatic grades are
// derived from an evaluation result and never overwrite an existing grade;
// manual grades always do.
type GradeSource struct {
	Manual     bool
	LecturerID string
	Value      float64
	Result     *models.SubmissionResult
}

// AutomaticGrade builds a source from a finished evaluation.
func AutomaticGrade(result *models.SubmissionResult) GradeSource {
	return GradeSource{Result: result}
}

// ManualGrade builds a source for a lecturer-entered grade.
func ManualGrade(lecturerID string, value float64) GradeSource {
	return GradeSource{Manual: true, LecturerID: lecturerID, Value: value}
}

// GradeResult reports the assignment after grading. Applied is false when an
// automatic grade was skipped because the assignment was already graded.
type GradeResult struct {
	Assignment *models.ExerciseAssignment `json:"assignment"`
	Applied    bool                       `json:"applied"`
}

// GradePolicy maps an evaluation result to a grade value.
type GradePolicy interface {
	GradeFor(result *models.SubmissionResult) float64
}

// PassFailPolicy grades accepted submissions with the top mark and everything
// else with the bottom one.
type PassFailPolicy struct {
	Pass float64
	Fail float64
}

func DefaultGradePolicy() GradePolicy {
	return &PassFailPolicy{Pass: 5.0, Fail: 2.0}
}

func (p *PassFailPolicy) GradeFor(result *models.SubmissionResult) float64 {
	if result != nil && result.Status == models.StatusAccepted {
		return p.Pass
	}
	return p.Fail
}

// VisibilityService resolves what a principal may see.
type VisibilityService interface {
	Resolve(ctx context.Context, principal models.Principal) (*VisibilityScope, error)
	VisibleExercises(ctx context.Context, principal models.Principal) ([]models.Exercise, error)
	CanAccessGroup(ctx context.Context, principal models.Principal, groupID uuid.UUID) (bool, error)
}

// EvaluationService compiles and runs a submission against an exercise's
// correctness tests and records the outcome. Every operation authorizes the
// principal against the exercise's scope first; an exercise outside the
// caller's visibility yields PermissionDenied, never a result.
type EvaluationService interface {
	Evaluate(ctx context.Context, principal models.Principal, req *EvaluateRequest) (*models.SubmissionResult, error)
	History(ctx context.Context, principal models.Principal, exerciseID uuid.UUID, studentID string, filters *repositories.ResultFilters) ([]models.SubmissionResult, error)
	GetLatest(ctx context.Context, principal models.Principal, exerciseID uuid.UUID, studentID string) (*models.SubmissionResult, error)
}

// GradingService applies grades to assignments.
type GradingService interface {
	ApplyGrade(ctx context.Context, assignmentID uuid.UUID, source GradeSource) (*GradeResult, error)
	// AutoGrade looks up the student's latest submission result for the
	// assignment's exercise and applies it as an automatic grade.
	AutoGrade(ctx context.Context, assignmentID uuid.UUID) (*GradeResult, error)
	GradeManual(ctx context.Context, lecturerID string, req *ManualGradeRequest) (*GradeResult, error)
	ListAssignments(ctx context.Context, principal models.Principal, filters *repositories.AssignmentFilters) ([]models.ExerciseAssignment, error)
}

// ExerciseService manages exercise authoring, publication, and listing.
type ExerciseService interface {
	Create(ctx context.Context, authorID string, req *ExerciseCreateRequest) (*models.Exercise, error)
	Publish(ctx context.Context, lecturerID string, req *PublishExerciseRequest) ([]models.ExerciseAssignment, error)
	ListForPrincipal(ctx context.Context, principal models.Principal) ([]models.Exercise, error)
	GetByID(ctx context.Context, principal models.Principal, exerciseID uuid.UUID) (*models.Exercise, error)
}

// ExportService renders grade sheets.
type ExportService interface {
	GradeSheet(ctx context.Context, principal models.Principal, groupID uuid.UUID) ([]byte, string, error)
}

// NotificationEventService publishes domain events for downstream consumers.
type NotificationEventService interface {
	PublishExercisePublished(ctx context.Context, exercise *models.Exercise, assignmentCount int) error
	PublishSubmissionEvaluated(ctx context.Context, result *models.SubmissionResult) error
	PublishAssignmentGraded(ctx context.Context, assignment *models.ExerciseAssignment, manual bool) error
}

// ServiceManager wires and owns all services.
type ServiceManager interface {
	Visibility() VisibilityService
	Evaluation() EvaluationService
	Grading() GradingService
	Exercise() ExerciseService
	Export() ExportService
	Notification() NotificationEventService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// clock indirection for tests.
type clock func() time.Time

func systemClock() time.Time { return time.Now() }
