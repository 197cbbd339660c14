package postgres

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/coderbench/exercise-service/internal/cache"
	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/repositories/casdoor"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	course     repositories.CourseRepository
	group      repositories.GroupRepository
	language   repositories.LanguageRepository
	exercise   repositories.ExerciseRepository
	assignment repositories.AssignmentRepository
	result     repositories.ResultRepository
	user       repositories.UserRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	CasdoorConfig casdoor.CasdoorConfig
}

// NewPostgreSQLRepository creates a new repository manager with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}

	repo.course = NewCoursePostgreSQL(config.DB, cacheManager)
	repo.group = NewGroupPostgreSQL(config.DB, cacheManager)
	repo.language = NewLanguagePostgreSQL(config.DB, cacheManager)
	repo.exercise = NewExercisePostgreSQL(config.DB, cacheManager)
	repo.assignment = NewAssignmentPostgreSQL(config.DB)
	repo.result = NewResultPostgreSQL(config.DB)

	// User identity lives in Casdoor, not in our database.
	repo.user = casdoor.NewUserCasdoor(config.CasdoorConfig, config.RedisClient)

	return repo
}

func (r *PostgreSQLRepository) Course() repositories.CourseRepository         { return r.course }
func (r *PostgreSQLRepository) Group() repositories.GroupRepository           { return r.group }
func (r *PostgreSQLRepository) Language() repositories.LanguageRepository     { return r.language }
func (r *PostgreSQLRepository) Exercise() repositories.ExerciseRepository     { return r.exercise }
func (r *PostgreSQLRepository) Assignment() repositories.AssignmentRepository { return r.assignment }
func (r *PostgreSQLRepository) Result() repositories.ResultRepository         { return r.result }
func (r *PostgreSQLRepository) User() repositories.UserRepository             { return r.user }

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,

			course:     NewCoursePostgreSQL(tx, r.cacheManager),
			group:      NewGroupPostgreSQL(tx, r.cacheManager),
			language:   NewLanguagePostgreSQL(tx, r.cacheManager),
			exercise:   NewExercisePostgreSQL(tx, r.cacheManager),
			assignment: NewTxAssignmentPostgreSQL(tx),
			result:     NewResultPostgreSQL(tx),
			user:       r.user,
		}
		return fn(txRepo)
	})
}

// Ping checks database connectivity
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
