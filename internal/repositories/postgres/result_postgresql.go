package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
)

// ResultPostgreSQL stores submission results. Results are never updated or
// deleted; history only grows.
type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.SubmissionResult) error {
	if err := r.getDB(tx).WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to create result: %w", err)
	}
	return nil
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.SubmissionResult, error) {
	var result models.SubmissionResult
	if err := r.getDB(tx).WithContext(ctx).First(&result, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) ListByExerciseAndStudent(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, studentID string, filters repositories.ResultFilters) ([]*models.SubmissionResult, error) {
	query := r.getDB(tx).WithContext(ctx).
		Model(&models.SubmissionResult{}).
		Where("exercise_id = ? AND student_id = ?", exerciseID, studentID)
	query = ApplyResultFilters(query, filters)

	var results []*models.SubmissionResult
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

func (r *ResultPostgreSQL) GetLatest(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, studentID string) (*models.SubmissionResult, error) {
	var result models.SubmissionResult
	err := r.getDB(tx).WithContext(ctx).
		Where("exercise_id = ? AND student_id = ?", exerciseID, studentID).
		Order("created_at DESC").
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest result: %w", err)
	}
	return &result, nil
}
