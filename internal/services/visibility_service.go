package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/coderbench/exercise-service/internal/cache"
	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
)

// graphSnapshot is one consistent read of the course/group graph plus the
// principal's edges, loaded inside a single transaction so the resolver
// never mixes states.
type graphSnapshot struct {
	courses     map[uuid.UUID]*models.Course
	courseOrder []uuid.UUID

	groups     map[uuid.UUID]*models.Group
	groupOrder []uuid.UUID

	// Edges of the principal being resolved.
	memberGroupIDs  []uuid.UUID
	mainedCourseIDs []uuid.UUID
}

type resolveFunc func(snap *graphSnapshot, principal models.Principal) (*VisibilityScope, error)

type visibilityService struct {
	repo   repositories.Repository
	cache  *cache.CacheManager
	logger *slog.Logger

	resolvers map[models.UserRole]resolveFunc
}

func NewVisibilityService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger) VisibilityService {
	s := &visibilityService{
		repo:   repo,
		cache:  cacheManager,
		logger: logger,
	}
	s.resolvers = map[models.UserRole]resolveFunc{
		models.RoleAdministrator: resolveAdministrator,
		models.RoleMainLecturer:  resolveMainLecturer,
		models.RoleLecturer:      resolveMember,
		models.RoleStudent:       resolveMember,
	}
	return s
}

func (s *visibilityService) Resolve(ctx context.Context, principal models.Principal) (*VisibilityScope, error) {
	resolver, ok := s.resolvers[principal.Role]
	if !ok {
		return nil, NewPermissionError(principal.ID, nil, "visibility", "resolve",
			fmt.Sprintf("unknown role %q", principal.Role))
	}

	if _, err := s.repo.User().GetByID(ctx, principal.ID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewUnauthorizedError(principal.ID)
		}
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}

	cacheKey := fmt.Sprintf("user:%s:role:%s", principal.ID, principal.Role)
	if s.cache != nil {
		var cached VisibilityScope
		if err := s.cache.Visibility.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	snap, err := s.loadSnapshot(ctx, principal)
	if err != nil {
		return nil, err
	}

	scope, err := resolver(snap, principal)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Visibility.Set(ctx, cacheKey, scope, cache.VisibilityCacheConfig.TTL); err != nil {
			s.logger.Warn("Failed to cache visibility scope", "user_id", principal.ID, "error", err)
		}
	}

	return scope, nil
}

func (s *visibilityService) VisibleExercises(ctx context.Context, principal models.Principal) ([]models.Exercise, error) {
	scope, err := s.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	groupIDs := scope.GroupIDs()
	if len(groupIDs) == 0 {
		return []models.Exercise{}, nil
	}

	scopes, err := s.repo.Exercise().GetScopesByGroups(ctx, nil, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercise scopes: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	exercises := make([]models.Exercise, 0, len(scopes))
	for _, eg := range scopes {
		if seen[eg.ExerciseID] {
			continue
		}
		seen[eg.ExerciseID] = true

		exercise, err := s.repo.Exercise().GetByID(ctx, nil, eg.ExerciseID)
		if err != nil {
			// Scope rows can outlive their exercise; skip rather than fail
			// the whole listing.
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to load exercise %s: %w", eg.ExerciseID, err)
		}
		exercises = append(exercises, *exercise)
	}

	return exercises, nil
}

func (s *visibilityService) CanAccessGroup(ctx context.Context, principal models.Principal, groupID uuid.UUID) (bool, error) {
	if principal.Role == models.RoleAdministrator {
		if _, err := s.repo.User().GetByID(ctx, principal.ID); err != nil {
			if repositories.IsNotFoundError(err) {
				return false, NewUnauthorizedError(principal.ID)
			}
			return false, fmt.Errorf("failed to resolve principal: %w", err)
		}
		return true, nil
	}

	scope, err := s.Resolve(ctx, principal)
	if err != nil {
		return false, err
	}
	return scope.ContainsGroup(groupID), nil
}

// loadSnapshot reads the structural graph and the principal's edges inside
// one transaction.
func (s *visibilityService) loadSnapshot(ctx context.Context, principal models.Principal) (*graphSnapshot, error) {
	snap := &graphSnapshot{
		courses: make(map[uuid.UUID]*models.Course),
		groups:  make(map[uuid.UUID]*models.Group),
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		courses, err := txRepo.Course().List(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to list courses: %w", err)
		}
		for _, c := range courses {
			snap.courses[c.ID] = c
			snap.courseOrder = append(snap.courseOrder, c.ID)
		}

		groups, err := txRepo.Group().List(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to list groups: %w", err)
		}
		for _, g := range groups {
			snap.groups[g.ID] = g
			snap.groupOrder = append(snap.groupOrder, g.ID)
		}

		memberships, err := txRepo.Group().GetMembershipsByUser(ctx, nil, principal.ID)
		if err != nil {
			return fmt.Errorf("failed to load memberships: %w", err)
		}
		for _, m := range memberships {
			snap.memberGroupIDs = append(snap.memberGroupIDs, m.GroupID)
		}

		if principal.Role == models.RoleMainLecturer {
			assignments, err := txRepo.Course().GetMainLecturerAssignments(ctx, nil, principal.ID)
			if err != nil {
				return fmt.Errorf("failed to load main lecturer assignments: %w", err)
			}
			for _, a := range assignments {
				snap.mainedCourseIDs = append(snap.mainedCourseIDs, a.CourseID)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// ===== PER-ROLE RESOLUTION =====
//
// The resolvers are pure functions over the snapshot, so resolving the same
// principal against the same graph always yields the same scope.

// resolveAdministrator grants the entire graph.
func resolveAdministrator(snap *graphSnapshot, _ models.Principal) (*VisibilityScope, error) {
	scope := &VisibilityScope{
		Courses: make([]models.Course, 0, len(snap.courseOrder)),
		Groups:  make([]models.Group, 0, len(snap.groupOrder)),
	}
	for _, id := range snap.courseOrder {
		scope.Courses = append(scope.Courses, *snap.courses[id])
	}
	for _, id := range snap.groupOrder {
		scope.Groups = append(scope.Groups, *snap.groups[id])
	}
	return scope, nil
}

// resolveMainLecturer grants every group of every course the principal is
// main lecturer of. A main lecturer with no course assignments is refused
// outright rather than given an empty scope.
func resolveMainLecturer(snap *graphSnapshot, principal models.Principal) (*VisibilityScope, error) {
	if len(snap.mainedCourseIDs) == 0 {
		return nil, NewPermissionError(principal.ID, nil, "course", "list",
			"main lecturer has no assigned courses")
	}

	mained := make(map[uuid.UUID]bool, len(snap.mainedCourseIDs))
	scope := &VisibilityScope{Courses: []models.Course{}, Groups: []models.Group{}}
	for _, id := range snap.mainedCourseIDs {
		if mained[id] {
			continue
		}
		mained[id] = true
		if c, ok := snap.courses[id]; ok {
			scope.Courses = append(scope.Courses, *c)
		}
	}

	for _, id := range snap.groupOrder {
		g := snap.groups[id]
		if mained[g.CourseID] {
			scope.Groups = append(scope.Groups, *g)
		}
	}

	return scope, nil
}

// resolveMember grants exactly the groups the principal belongs to plus the
// owning courses. Lecturers and students share this shape; no membership
// means an empty scope, not an error.
func resolveMember(snap *graphSnapshot, principal models.Principal) (*VisibilityScope, error) {
	scope := &VisibilityScope{Courses: []models.Course{}, Groups: []models.Group{}}
	if len(snap.memberGroupIDs) == 0 {
		return scope, nil
	}

	member := make(map[uuid.UUID]bool, len(snap.memberGroupIDs))
	for _, id := range snap.memberGroupIDs {
		member[id] = true
	}

	courseSeen := make(map[uuid.UUID]bool)
	for _, id := range snap.groupOrder {
		g := snap.groups[id]
		if !member[g.ID] {
			continue
		}
		scope.Groups = append(scope.Groups, *g)
		if !courseSeen[g.CourseID] {
			courseSeen[g.CourseID] = true
			if c, ok := snap.courses[g.CourseID]; ok {
				scope.Courses = append(scope.Courses, *c)
			}
		}
	}

	return scope, nil
}
