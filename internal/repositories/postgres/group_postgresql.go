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

type GroupPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewGroupPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.GroupRepository {
	return &GroupPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (g *GroupPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return g.db
}

func (g *GroupPostgreSQL) Create(ctx context.Context, tx *gorm.DB, group *models.Group) error {
	if err := g.getDB(tx).WithContext(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	cache.InvalidateCourseCache(ctx, g.cacheManager, group.CourseID.String())
	return nil
}

func (g *GroupPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := g.getDB(tx).WithContext(ctx).
		Preload("Course").
		First(&group, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (g *GroupPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Group, error) {
	var groups []*models.Group
	if err := g.getDB(tx).WithContext(ctx).Order("created_at ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (g *GroupPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Group, error) {
	var groups []*models.Group
	err := g.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list groups by course: %w", err)
	}
	return groups, nil
}

// Delete removes a group. Exercise scopes referencing it are left in place
// and must be tolerated by readers.
func (g *GroupPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	result := g.getDB(tx).WithContext(ctx).Delete(&models.Group{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete group: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.InvalidateGroupCache(ctx, g.cacheManager, id.String())
	return nil
}

func (g *GroupPostgreSQL) AddMember(ctx context.Context, tx *gorm.DB, groupID uuid.UUID, userID string) error {
	edge := models.UserGroup{UserID: userID, GroupID: groupID}
	if err := g.getDB(tx).WithContext(ctx).Create(&edge).Error; err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	cache.InvalidateGroupCache(ctx, g.cacheManager, groupID.String())
	return nil
}

func (g *GroupPostgreSQL) RemoveMember(ctx context.Context, tx *gorm.DB, groupID uuid.UUID, userID string) error {
	result := g.getDB(tx).WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.UserGroup{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.InvalidateGroupCache(ctx, g.cacheManager, groupID.String())
	return nil
}

func (g *GroupPostgreSQL) GetMembers(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) ([]*models.UserGroup, error) {
	var members []*models.UserGroup
	err := g.getDB(tx).WithContext(ctx).
		Where("group_id = ?", groupID).
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	return members, nil
}

func (g *GroupPostgreSQL) GetMembershipsByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.UserGroup, error) {
	var memberships []*models.UserGroup
	err := g.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get memberships: %w", err)
	}
	return memberships, nil
}
