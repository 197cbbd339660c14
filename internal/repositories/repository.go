package repositories

import "context"

// Repository aggregates all entity repositories.
type Repository interface {
	// Course domain
	Course() CourseRepository
	Group() GroupRepository

	// Exercise domain
	Language() LanguageRepository
	Exercise() ExerciseRepository

	// Submission domain
	Assignment() AssignmentRepository
	Result() ResultRepository

	// User domain (read-only for this service)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}
