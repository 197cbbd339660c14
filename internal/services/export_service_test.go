package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/coderbench/exercise-service/internal/models"
)

func TestExportService_GradeSheet(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	repo.addUser("alice", models.RoleStudent)
	repo.addUser("bob", models.RoleLecturer)
	repo.addUser("eve", models.RoleLecturer)

	course := repo.addCourse("Algorithms")
	lang := repo.addLanguage("go", "http://runner.local")
	group := repo.addGroup(course.ID, "A1")
	repo.addMember(group.ID, "alice")
	repo.addMember(group.ID, "bob")
	exercise := repo.addExercise(course.ID, lang.ID, "Sorting", []uuid.UUID{group.ID})

	assignment := repo.addAssignment(exercise.ID, group.ID, "alice", "bob")
	grade := 4.5
	assignment.Grade = &grade
	assignment.ManuallyGraded = true

	visibility := NewVisibilityService(repo, nil, testLogger())
	svc := NewExportService(repo, visibility, testLogger())

	t.Run("MemberLecturer_GetsWorkbook", func(t *testing.T) {
		data, filename, err := svc.GradeSheet(ctx, models.Principal{ID: "bob", Role: models.RoleLecturer}, group.ID)
		if err != nil {
			t.Fatalf("GradeSheet failed: %v", err)
		}
		if filename == "" {
			t.Error("Expected a filename")
		}

		wb, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Exported bytes are not a valid workbook: %v", err)
		}
		defer wb.Close()

		rows, err := wb.GetRows("Grades")
		if err != nil {
			t.Fatalf("Failed to read sheet: %v", err)
		}
		// Header plus one assignment row.
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(rows))
		}
		if rows[1][0] != "alice" {
			t.Errorf("Expected student id alice, got %q", rows[1][0])
		}
		if rows[1][3] != "4.5" {
			t.Errorf("Expected grade 4.5, got %q", rows[1][3])
		}
	})

	t.Run("OutsideLecturer_PermissionDenied", func(t *testing.T) {
		_, _, err := svc.GradeSheet(ctx, models.Principal{ID: "eve", Role: models.RoleLecturer}, group.ID)
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("Expected permission denied, got %v", err)
		}
	})

	t.Run("Student_PermissionDenied", func(t *testing.T) {
		_, _, err := svc.GradeSheet(ctx, models.Principal{ID: "alice", Role: models.RoleStudent}, group.ID)
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("Expected permission denied, got %v", err)
		}
	})
}
