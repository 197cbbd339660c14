package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/coderbench/exercise-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestVisibilityService_Resolve(t *testing.T) {
	ctx := context.Background()

	setup := func() (*mockRepository, VisibilityService) {
		repo := newMockRepository()
		return repo, NewVisibilityService(repo, nil, testLogger())
	}

	t.Run("Administrator_SeesEverything", func(t *testing.T) {
		repo, svc := setup()
		repo.addUser("admin-1", models.RoleAdministrator)
		c1 := repo.addCourse("Algorithms")
		c2 := repo.addCourse("Databases")
		repo.addGroup(c1.ID, "A1")
		repo.addGroup(c1.ID, "A2")
		repo.addGroup(c2.ID, "D1")

		scope, err := svc.Resolve(ctx, models.Principal{ID: "admin-1", Role: models.RoleAdministrator})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if len(scope.Courses) != 2 {
			t.Errorf("Expected 2 courses, got %d", len(scope.Courses))
		}
		if len(scope.Groups) != 3 {
			t.Errorf("Expected 3 groups, got %d", len(scope.Groups))
		}
	})

	t.Run("MainLecturer_NoCourses_PermissionDenied", func(t *testing.T) {
		repo, svc := setup()
		repo.addUser("ml-1", models.RoleMainLecturer)
		repo.addCourse("Algorithms")

		_, err := svc.Resolve(ctx, models.Principal{ID: "ml-1", Role: models.RoleMainLecturer})
		if err == nil {
			t.Fatal("Expected error for main lecturer without courses")
		}
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("Expected permission denied, got %v", err)
		}
	})

	t.Run("MainLecturer_SeesOwnCourseGroups", func(t *testing.T) {
		repo, svc := setup()
		repo.addUser("ml-1", models.RoleMainLecturer)
		mained := repo.addCourse("Algorithms")
		other := repo.addCourse("Databases")
		g1 := repo.addGroup(mained.ID, "A1")
		g2 := repo.addGroup(mained.ID, "A2")
		repo.addGroup(other.ID, "D1")
		repo.addMainLecturer(mained.ID, "ml-1")

		scope, err := svc.Resolve(ctx, models.Principal{ID: "ml-1", Role: models.RoleMainLecturer})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if len(scope.Courses) != 1 || scope.Courses[0].ID != mained.ID {
			t.Errorf("Expected exactly the mained course, got %v", scope.CourseIDs())
		}
		if len(scope.Groups) != 2 {
			t.Fatalf("Expected 2 groups, got %d", len(scope.Groups))
		}
		if !scope.ContainsGroup(g1.ID) || !scope.ContainsGroup(g2.ID) {
			t.Error("Scope is missing a group of the mained course")
		}
	})

	t.Run("Lecturer_NoMemberships_EmptyScope", func(t *testing.T) {
		repo, svc := setup()
		repo.addUser("lect-1", models.RoleLecturer)
		c := repo.addCourse("Algorithms")
		repo.addGroup(c.ID, "A1")

		scope, err := svc.Resolve(ctx, models.Principal{ID: "lect-1", Role: models.RoleLecturer})
		if err != nil {
			t.Fatalf("Empty scope must not be an error: %v", err)
		}
		if len(scope.Courses) != 0 || len(scope.Groups) != 0 {
			t.Errorf("Expected empty scope, got %d courses / %d groups", len(scope.Courses), len(scope.Groups))
		}
	})

	t.Run("Student_SoundAndComplete", func(t *testing.T) {
		repo, svc := setup()
		repo.addUser("alice", models.RoleStudent)
		c1 := repo.addCourse("Algorithms")
		c2 := repo.addCourse("Databases")
		g1 := repo.addGroup(c1.ID, "A1")
		g2 := repo.addGroup(c1.ID, "A2")
		g3 := repo.addGroup(c2.ID, "D1")
		repo.addMember(g1.ID, "alice")
		repo.addMember(g3.ID, "alice")
		_ = g2

		scope, err := svc.Resolve(ctx, models.Principal{ID: "alice", Role: models.RoleStudent})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}

		// Soundness: every group in scope has a membership row.
		member := map[uuid.UUID]bool{g1.ID: true, g3.ID: true}
		for _, g := range scope.Groups {
			if !member[g.ID] {
				t.Errorf("Group %s in scope without membership", g.ID)
			}
		}
		// Completeness: every membership appears in the scope.
		if !scope.ContainsGroup(g1.ID) || !scope.ContainsGroup(g3.ID) {
			t.Error("A member group is missing from the scope")
		}
		// Owning courses come with the groups.
		if len(scope.Courses) != 2 {
			t.Errorf("Expected both owning courses, got %v", scope.CourseIDs())
		}
		_ = c1
		_ = c2
	})

	t.Run("Idempotent", func(t *testing.T) {
		repo, svc := setup()
		repo.addUser("alice", models.RoleStudent)
		c := repo.addCourse("Algorithms")
		g := repo.addGroup(c.ID, "A1")
		repo.addMember(g.ID, "alice")

		p := models.Principal{ID: "alice", Role: models.RoleStudent}
		first, err := svc.Resolve(ctx, p)
		if err != nil {
			t.Fatalf("First resolve failed: %v", err)
		}
		second, err := svc.Resolve(ctx, p)
		if err != nil {
			t.Fatalf("Second resolve failed: %v", err)
		}
		if len(first.Groups) != len(second.Groups) || len(first.Courses) != len(second.Courses) {
			t.Error("Repeated resolve returned different scopes")
		}
		for i := range first.Groups {
			if first.Groups[i].ID != second.Groups[i].ID {
				t.Error("Repeated resolve returned different group sets")
			}
		}
	})

	t.Run("UnknownPrincipal_Unauthorized", func(t *testing.T) {
		_, svc := setup()

		_, err := svc.Resolve(ctx, models.Principal{ID: "ghost", Role: models.RoleStudent})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Expected unauthorized, got %v", err)
		}
	})

	t.Run("UnknownRole_PermissionDenied", func(t *testing.T) {
		repo, svc := setup()
		repo.addUser("odd", "auditor")

		_, err := svc.Resolve(ctx, models.Principal{ID: "odd", Role: "auditor"})
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("Expected permission denied for unknown role, got %v", err)
		}
	})
}

func TestVisibilityService_VisibleExercises(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := NewVisibilityService(repo, nil, testLogger())

	repo.addUser("alice", models.RoleStudent)
	course := repo.addCourse("Algorithms")
	lang := repo.addLanguage("go", "http://runner.local")
	g1 := repo.addGroup(course.ID, "A1")
	g2 := repo.addGroup(course.ID, "A2")
	repo.addMember(g1.ID, "alice")

	visible := repo.addExercise(course.ID, lang.ID, "Sorting", []uuid.UUID{g1.ID})
	repo.addExercise(course.ID, lang.ID, "Hidden", []uuid.UUID{g2.ID})

	// A scope row whose exercise is gone must be skipped, not fail the list.
	repo.scopes = append(repo.scopes, models.ExerciseGroup{ExerciseID: uuid.New(), GroupID: g1.ID})

	exercises, err := svc.VisibleExercises(ctx, models.Principal{ID: "alice", Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("VisibleExercises failed: %v", err)
	}
	if len(exercises) != 1 {
		t.Fatalf("Expected 1 visible exercise, got %d", len(exercises))
	}
	if exercises[0].ID != visible.ID {
		t.Errorf("Expected exercise %s, got %s", visible.ID, exercises[0].ID)
	}
}

func TestVisibilityService_CanAccessGroup(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := NewVisibilityService(repo, nil, testLogger())

	repo.addUser("admin-1", models.RoleAdministrator)
	repo.addUser("bob", models.RoleLecturer)
	course := repo.addCourse("Algorithms")
	g1 := repo.addGroup(course.ID, "A1")
	g2 := repo.addGroup(course.ID, "A2")
	repo.addMember(g1.ID, "bob")

	if ok, err := svc.CanAccessGroup(ctx, models.Principal{ID: "admin-1", Role: models.RoleAdministrator}, g2.ID); err != nil || !ok {
		t.Errorf("Administrator must access any group, got ok=%v err=%v", ok, err)
	}
	if ok, err := svc.CanAccessGroup(ctx, models.Principal{ID: "bob", Role: models.RoleLecturer}, g1.ID); err != nil || !ok {
		t.Errorf("Member lecturer must access their group, got ok=%v err=%v", ok, err)
	}
	if ok, err := svc.CanAccessGroup(ctx, models.Principal{ID: "bob", Role: models.RoleLecturer}, g2.ID); err != nil || ok {
		t.Errorf("Non-member lecturer must not access the group, got ok=%v err=%v", ok, err)
	}
}
