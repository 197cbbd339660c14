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

type LanguagePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewLanguagePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.LanguageRepository {
	return &LanguagePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (l *LanguagePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}

func (l *LanguagePostgreSQL) Create(ctx context.Context, tx *gorm.DB, language *models.ProgrammingLanguage) error {
	if err := l.getDB(tx).WithContext(ctx).Create(language).Error; err != nil {
		return fmt.Errorf("failed to create language: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, l.cacheManager.Fast, "languages:*")
	return nil
}

// GetByID resolves a language; the compiler URL changes rarely so the row is
// cached aggressively.
func (l *LanguagePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ProgrammingLanguage, error) {
	cacheKey := fmt.Sprintf("languages:id:%s", id)
	var language models.ProgrammingLanguage

	err := l.cacheManager.Fast.CacheOrExecute(ctx, cacheKey, &language, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		var dbLanguage models.ProgrammingLanguage
		if err := l.getDB(tx).WithContext(ctx).First(&dbLanguage, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &dbLanguage, nil
	})
	if err != nil {
		return nil, err
	}
	return &language, nil
}

func (l *LanguagePostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.ProgrammingLanguage, error) {
	var languages []*models.ProgrammingLanguage
	if err := l.getDB(tx).WithContext(ctx).Order("name ASC").Find(&languages).Error; err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	return languages, nil
}
