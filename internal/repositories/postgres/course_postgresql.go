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

type CoursePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(tx).WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID.String())
	return nil
}

// GetByID retrieves a course by ID with caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Course, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		if err := c.getDB(tx).WithContext(ctx).First(&dbCourse, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &dbCourse, nil
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Course, error) {
	var courses []*models.Course
	if err := c.getDB(tx).WithContext(ctx).Order("created_at ASC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// Delete removes a course. Groups, main lecturer rows and exercises cascade
// at the database level.
func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	result := c.getDB(tx).WithContext(ctx).Delete(&models.Course{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, id.String())
	return nil
}

func (c *CoursePostgreSQL) AddMainLecturer(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, lecturerID string) error {
	edge := models.CourseMainLecturer{CourseID: courseID, MainLecturerID: lecturerID}
	if err := c.getDB(tx).WithContext(ctx).Create(&edge).Error; err != nil {
		return fmt.Errorf("failed to add main lecturer: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Visibility, "*")
	return nil
}

func (c *CoursePostgreSQL) GetMainLecturerAssignments(ctx context.Context, tx *gorm.DB, lecturerID string) ([]*models.CourseMainLecturer, error) {
	var rows []*models.CourseMainLecturer
	err := c.getDB(tx).WithContext(ctx).
		Where("main_lecturer_id = ?", lecturerID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get main lecturer assignments: %w", err)
	}
	return rows, nil
}
