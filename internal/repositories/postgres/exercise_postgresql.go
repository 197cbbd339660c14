package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coderbench/exercise-service/internal/cache"
	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
)

type ExercisePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExercisePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ExerciseRepository {
	return &ExercisePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (e *ExercisePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// Create persists the exercise with its tests and group scopes in one write.
// gorm cascades the associations from the struct graph.
func (e *ExercisePostgreSQL) Create(ctx context.Context, tx *gorm.DB, exercise *models.Exercise) error {
	if err := e.getDB(tx).WithContext(ctx).Create(exercise).Error; err != nil {
		return fmt.Errorf("failed to create exercise: %w", err)
	}
	cache.InvalidateExerciseCache(ctx, e.cacheManager, exercise.ID.String())
	return nil
}

// GetByID retrieves an exercise with its language, without the test set.
func (e *ExercisePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Exercise, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var exercise models.Exercise

	err := e.cacheManager.Exercise.CacheOrExecute(ctx, cacheKey, &exercise, cache.ExerciseCacheConfig.TTL, func() (interface{}, error) {
		var dbExercise models.Exercise
		err := e.getDB(tx).WithContext(ctx).
			Preload("ProgrammingLanguage").
			First(&dbExercise, "id = ?", id).Error
		if err != nil {
			return nil, err
		}
		return &dbExercise, nil
	})
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

// GetByIDWithTests retrieves an exercise with its full test set, inputs and
// outputs ordered by position.
func (e *ExercisePostgreSQL) GetByIDWithTests(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Exercise, error) {
	cacheKey := fmt.Sprintf("tests:%s", id)
	var exercise models.Exercise

	err := e.cacheManager.Exercise.CacheOrExecute(ctx, cacheKey, &exercise, cache.ExerciseCacheConfig.TTL, func() (interface{}, error) {
		var dbExercise models.Exercise
		err := e.getDB(tx).WithContext(ctx).
			Preload("ProgrammingLanguage").
			Preload("Tests").
			Preload("Tests.Inputs", func(db *gorm.DB) *gorm.DB {
				return db.Order("correctness_test_inputs.position ASC")
			}).
			Preload("Tests.Outputs", func(db *gorm.DB) *gorm.DB {
				return db.Order("correctness_test_outputs.position ASC")
			}).
			First(&dbExercise, "id = ?", id).Error
		if err != nil {
			return nil, err
		}
		return &dbExercise, nil
	})
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (e *ExercisePostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Exercise, error) {
	var exercises []*models.Exercise
	err := e.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&exercises).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises by course: %w", err)
	}
	return exercises, nil
}

// Delete removes an exercise; tests and scopes cascade.
func (e *ExercisePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	result := e.getDB(tx).WithContext(ctx).Delete(&models.Exercise{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete exercise: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.InvalidateExerciseCache(ctx, e.cacheManager, id.String())
	return nil
}

func (e *ExercisePostgreSQL) GetScopes(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID) ([]*models.ExerciseGroup, error) {
	var scopes []*models.ExerciseGroup
	err := e.getDB(tx).WithContext(ctx).
		Where("exercise_id = ?", exerciseID).
		Find(&scopes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise scopes: %w", err)
	}
	return scopes, nil
}

func (e *ExercisePostgreSQL) GetScopesByGroups(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID) ([]*models.ExerciseGroup, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var scopes []*models.ExerciseGroup
	err := e.getDB(tx).WithContext(ctx).
		Where("group_id IN ?", groupIDs).
		Find(&scopes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get scopes by groups: %w", err)
	}
	return scopes, nil
}
