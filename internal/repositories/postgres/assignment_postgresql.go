package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
)

type AssignmentPostgreSQL struct {
	db *gorm.DB
	// txBound marks a repository whose db is an open transaction, as built
	// by WithTransaction. GetByID locks rows only inside a transaction.
	txBound bool
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: db}
}

// NewTxAssignmentPostgreSQL wraps an already-open transaction.
func NewTxAssignmentPostgreSQL(tx *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: tx, txBound: true}
}

func (a *AssignmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AssignmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assignment *models.ExerciseAssignment) error {
	if err := a.getDB(tx).WithContext(ctx).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (a *AssignmentPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, assignments []*models.ExerciseAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	if err := a.getDB(tx).WithContext(ctx).Create(&assignments).Error; err != nil {
		return fmt.Errorf("failed to create assignments: %w", err)
	}
	return nil
}

// GetByID loads the assignment row with a row lock when called inside a
// transaction, so grading read-check-write cycles do not interleave.
func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ExerciseAssignment, error) {
	query := a.getDB(tx).WithContext(ctx)
	if tx != nil || a.txBound {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var assignment models.ExerciseAssignment
	if err := query.First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assignment *models.ExerciseAssignment) error {
	result := a.getDB(tx).WithContext(ctx).
		Model(&models.ExerciseAssignment{}).
		Where("id = ?", assignment.ID).
		Updates(map[string]interface{}{
			"grade":              assignment.Grade,
			"date_of_assessment": assignment.DateOfAssessment,
			"manually_graded":    assignment.ManuallyGraded,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// List returns assignments for an exercise; uuid.Nil matches all exercises.
func (a *AssignmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, filters repositories.AssignmentFilters) ([]*models.ExerciseAssignment, error) {
	query := a.getDB(tx).WithContext(ctx).Model(&models.ExerciseAssignment{})
	if exerciseID != uuid.Nil {
		query = query.Where("exercise_id = ?", exerciseID)
	}
	query = ApplyAssignmentFilters(query, filters)

	var assignments []*models.ExerciseAssignment
	if err := query.Order("created_at ASC").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func (a *AssignmentPostgreSQL) GetByExerciseAndStudent(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, studentID string) (*models.ExerciseAssignment, error) {
	var assignment models.ExerciseAssignment
	err := a.getDB(tx).WithContext(ctx).
		Where("exercise_id = ? AND student_id = ?", exerciseID, studentID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &assignment, nil
}
