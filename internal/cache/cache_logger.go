package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateCourseCache invalidates course and group structure caches.
// Visibility scopes derive from that structure, so they go too.
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID string) {
	SafeDelete(ctx, cm.Course, fmt.Sprintf("id:%s", courseID))
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
	SafeInvalidatePattern(ctx, cm.Course, fmt.Sprintf("groups:%s:*", courseID))
	SafeInvalidatePattern(ctx, cm.Visibility, "*")
}

// InvalidateGroupCache invalidates one group's membership caches and all
// resolved visibility scopes.
func InvalidateGroupCache(ctx context.Context, cm *CacheManager, groupID string) {
	SafeDelete(ctx, cm.Course, fmt.Sprintf("group:%s", groupID))
	SafeInvalidatePattern(ctx, cm.Course, fmt.Sprintf("members:%s:*", groupID))
	SafeInvalidatePattern(ctx, cm.Visibility, "*")
}

// InvalidateExerciseCache invalidates an exercise together with its test set.
func InvalidateExerciseCache(ctx context.Context, cm *CacheManager, exerciseID string) {
	SafeDelete(ctx, cm.Exercise,
		fmt.Sprintf("id:%s", exerciseID),
		fmt.Sprintf("tests:%s", exerciseID))
	SafeInvalidatePattern(ctx, cm.Exercise, "list:*")
}
