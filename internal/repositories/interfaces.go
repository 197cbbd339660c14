package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coderbench/exercise-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ResultFilters struct {
	Status   *models.SubmissionStatus `json:"status"`
	DateFrom *time.Time               `json:"date_from"`
	DateTo   *time.Time               `json:"date_to"`
	Limit    int                      `json:"limit"`
	Offset   int                      `json:"offset"`
}

type AssignmentFilters struct {
	Graded    *bool      `json:"graded"`
	GroupID   *uuid.UUID `json:"group_id"`
	StudentID *string    `json:"student_id"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// ===== ENTITY REPOSITORIES =====
//
// The tx parameter carries an open transaction through a call chain; nil
// means "use the repository's own connection".

type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Course, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Course, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	AddMainLecturer(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, lecturerID string) error
	GetMainLecturerAssignments(ctx context.Context, tx *gorm.DB, lecturerID string) ([]*models.CourseMainLecturer, error)
}

type GroupRepository interface {
	Create(ctx context.Context, tx *gorm.DB, group *models.Group) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Group, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Group, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Group, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	AddMember(ctx context.Context, tx *gorm.DB, groupID uuid.UUID, userID string) error
	RemoveMember(ctx context.Context, tx *gorm.DB, groupID uuid.UUID, userID string) error
	GetMembers(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) ([]*models.UserGroup, error)
	GetMembershipsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserGroup, error)
}

type LanguageRepository interface {
	Create(ctx context.Context, tx *gorm.DB, language *models.ProgrammingLanguage) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ProgrammingLanguage, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.ProgrammingLanguage, error)
}

type ExerciseRepository interface {
	// Create persists the exercise together with its correctness tests and
	// group scopes in one write.
	Create(ctx context.Context, tx *gorm.DB, exercise *models.Exercise) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Exercise, error)
	GetByIDWithTests(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Exercise, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Exercise, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	GetScopes(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID) ([]*models.ExerciseGroup, error)
	GetScopesByGroups(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID) ([]*models.ExerciseGroup, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assignment *models.ExerciseAssignment) error
	CreateBatch(ctx context.Context, tx *gorm.DB, assignments []*models.ExerciseAssignment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ExerciseAssignment, error)
	Update(ctx context.Context, tx *gorm.DB, assignment *models.ExerciseAssignment) error
	List(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, filters AssignmentFilters) ([]*models.ExerciseAssignment, error)
	GetByExerciseAndStudent(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, studentID string) (*models.ExerciseAssignment, error)
}

type ResultRepository interface {
	// Create appends a new result; prior results are never mutated.
	Create(ctx context.Context, tx *gorm.DB, result *models.SubmissionResult) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.SubmissionResult, error)
	ListByExerciseAndStudent(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, studentID string, filters ResultFilters) ([]*models.SubmissionResult, error)
	GetLatest(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, studentID string) (*models.SubmissionResult, error)
}

// UserRepository is read-only for this service; identity lives in Casdoor.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}
