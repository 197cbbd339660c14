package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/validator"
)

type exerciseFixture struct {
	repo   *mockRepository
	svc    ExerciseService
	course *models.Course
	lang   *models.ProgrammingLanguage
	g1     *models.Group
	g2     *models.Group
}

func newExerciseFixture(t *testing.T) *exerciseFixture {
	t.Helper()
	repo := newMockRepository()
	repo.addUser("alice", models.RoleStudent)
	repo.addUser("bob", models.RoleLecturer)
	repo.addUser("root", models.RoleAdministrator)

	course := repo.addCourse("Algorithms")
	lang := repo.addLanguage("go", "http://runner.local")
	g1 := repo.addGroup(course.ID, "A1")
	g2 := repo.addGroup(course.ID, "A2")
	repo.addMember(g1.ID, "alice")
	repo.addMember(g1.ID, "bob")

	visibility := NewVisibilityService(repo, nil, testLogger())
	svc := NewExerciseService(repo, visibility, validator.New(), nil, nil, testLogger())
	return &exerciseFixture{repo: repo, svc: svc, course: course, lang: lang, g1: g1, g2: g2}
}

func (f *exerciseFixture) createRequest(groupIDs ...uuid.UUID) *ExerciseCreateRequest {
	return &ExerciseCreateRequest{
		CourseID:              f.course.ID,
		Name:                  "Sorting",
		Content:               "Sort the input.",
		ProgrammingLanguageID: f.lang.ID,
		GroupIDs:              groupIDs,
		Tests: []CorrectnessTestRequest{
			{Inputs: []string{"3 1 2"}, Outputs: []string{"1 2 3"}},
		},
	}
}

func TestExerciseService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("OK", func(t *testing.T) {
		f := newExerciseFixture(t)

		exercise, err := f.svc.Create(ctx, "bob", f.createRequest(f.g1.ID))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if exercise.ID == uuid.Nil {
			t.Error("Expected an assigned exercise id")
		}
		if len(exercise.GroupScopes) != 1 || exercise.GroupScopes[0].GroupID != f.g1.ID {
			t.Error("Expected the exercise scoped to g1")
		}
		if len(exercise.Tests) != 1 || len(exercise.Tests[0].Inputs) != 1 {
			t.Error("Expected the test set persisted with the exercise")
		}
	})

	t.Run("ZeroGroupScope_Rejected", func(t *testing.T) {
		f := newExerciseFixture(t)

		_, err := f.svc.Create(ctx, "bob", f.createRequest())
		if err == nil {
			t.Fatal("An exercise without group scope must be rejected")
		}
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("Expected validation errors, got %v", err)
		}
	})

	t.Run("GroupFromOtherCourse_Rejected", func(t *testing.T) {
		f := newExerciseFixture(t)
		other := f.repo.addCourse("Databases")
		foreign := f.repo.addGroup(other.ID, "D1")

		_, err := f.svc.Create(ctx, "bob", f.createRequest(foreign.ID))
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("Expected validation error for foreign group, got %v", err)
		}
	})

	t.Run("StudentAuthor_PermissionDenied", func(t *testing.T) {
		f := newExerciseFixture(t)

		_, err := f.svc.Create(ctx, "alice", f.createRequest(f.g1.ID))
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("Expected permission denied, got %v", err)
		}
	})

	t.Run("UnknownAuthor_Unauthorized", func(t *testing.T) {
		f := newExerciseFixture(t)

		_, err := f.svc.Create(ctx, "ghost", f.createRequest(f.g1.ID))
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Expected unauthorized, got %v", err)
		}
	})
}

func TestExerciseService_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("OneAssignmentPerStudentMember", func(t *testing.T) {
		f := newExerciseFixture(t)
		f.repo.addUser("carol", models.RoleStudent)
		f.repo.addMember(f.g1.ID, "carol")
		exercise := f.repo.addExercise(f.course.ID, f.lang.ID, "Sorting", []uuid.UUID{f.g1.ID})

		assignments, err := f.svc.Publish(ctx, "bob", &PublishExerciseRequest{ExerciseID: exercise.ID, GroupID: f.g1.ID})
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
		// alice and carol are students; bob the lecturer member gets nothing.
		if len(assignments) != 2 {
			t.Fatalf("Expected 2 assignments, got %d", len(assignments))
		}
		for _, a := range assignments {
			if a.LecturerID != "bob" {
				t.Errorf("Expected bob as designated lecturer, got %s", a.LecturerID)
			}
			if a.StudentID == "bob" {
				t.Error("Lecturer member must not receive an assignment")
			}
		}
	})

	t.Run("Republish_NoDuplicates", func(t *testing.T) {
		f := newExerciseFixture(t)
		exercise := f.repo.addExercise(f.course.ID, f.lang.ID, "Sorting", []uuid.UUID{f.g1.ID})
		req := &PublishExerciseRequest{ExerciseID: exercise.ID, GroupID: f.g1.ID}

		if _, err := f.svc.Publish(ctx, "bob", req); err != nil {
			t.Fatalf("First publish failed: %v", err)
		}
		second, err := f.svc.Publish(ctx, "bob", req)
		if err != nil {
			t.Fatalf("Second publish failed: %v", err)
		}
		if len(second) != 0 {
			t.Errorf("Republish must not create duplicates, got %d new assignments", len(second))
		}
		if len(f.repo.assignments) != 1 {
			t.Errorf("Expected 1 assignment total, got %d", len(f.repo.assignments))
		}
	})

	t.Run("GroupOutsideScope_Rejected", func(t *testing.T) {
		f := newExerciseFixture(t)
		exercise := f.repo.addExercise(f.course.ID, f.lang.ID, "Sorting", []uuid.UUID{f.g1.ID})

		_, err := f.svc.Publish(ctx, "bob", &PublishExerciseRequest{ExerciseID: exercise.ID, GroupID: f.g2.ID})
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("Expected validation error for unscoped group, got %v", err)
		}
	})

	t.Run("StudentPublisher_PermissionDenied", func(t *testing.T) {
		f := newExerciseFixture(t)
		exercise := f.repo.addExercise(f.course.ID, f.lang.ID, "Sorting", []uuid.UUID{f.g1.ID})

		_, err := f.svc.Publish(ctx, "alice", &PublishExerciseRequest{ExerciseID: exercise.ID, GroupID: f.g1.ID})
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("Expected permission denied, got %v", err)
		}
	})

	t.Run("LecturerOutsideGroup_PermissionDenied", func(t *testing.T) {
		f := newExerciseFixture(t)
		f.repo.addUser("eve", models.RoleLecturer)
		exercise := f.repo.addExercise(f.course.ID, f.lang.ID, "Sorting", []uuid.UUID{f.g1.ID})

		_, err := f.svc.Publish(ctx, "eve", &PublishExerciseRequest{ExerciseID: exercise.ID, GroupID: f.g1.ID})
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("Expected permission denied for out-of-scope lecturer, got %v", err)
		}
	})
}

func TestExerciseService_GetByID(t *testing.T) {
	ctx := context.Background()
	f := newExerciseFixture(t)
	exercise := f.repo.addExercise(f.course.ID, f.lang.ID, "Sorting", []uuid.UUID{f.g1.ID})

	t.Run("MemberSeesIt", func(t *testing.T) {
		got, err := f.svc.GetByID(ctx, models.Principal{ID: "alice", Role: models.RoleStudent}, exercise.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.ID != exercise.ID {
			t.Errorf("Expected exercise %s, got %s", exercise.ID, got.ID)
		}
	})

	t.Run("OutsideScope_PermissionDeniedNotNotFound", func(t *testing.T) {
		f.repo.addUser("dave", models.RoleStudent)
		f.repo.addMember(f.g2.ID, "dave")

		_, err := f.svc.GetByID(ctx, models.Principal{ID: "dave", Role: models.RoleStudent}, exercise.ID)
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("Expected permission denied, got %v", err)
		}
		if errors.Is(err, ErrNotFound) {
			t.Error("Out-of-scope access must not look like not-found")
		}
	})

	t.Run("Missing_NotFound", func(t *testing.T) {
		_, err := f.svc.GetByID(ctx, models.Principal{ID: "root", Role: models.RoleAdministrator}, uuid.New())
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected not found, got %v", err)
		}
	})
}
