package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
)

type exportService struct {
	repo       repositories.Repository
	visibility VisibilityService
	logger     *slog.Logger
	now        clock
}

func NewExportService(repo repositories.Repository, visibility VisibilityService, logger *slog.Logger) ExportService {
	return &exportService{
		repo:       repo,
		visibility: visibility,
		logger:     logger,
		now:        systemClock,
	}
}

// GradeSheet renders every assignment of the group as an xlsx workbook.
// Students cannot export; lecturers must have the group in scope.
func (s *exportService) GradeSheet(ctx context.Context, principal models.Principal, groupID uuid.UUID) ([]byte, string, error) {
	if principal.Role == models.RoleStudent {
		return nil, "", NewPermissionError(principal.ID, groupID, "grade sheet", "export",
			"students cannot export grade sheets")
	}

	canAccess, err := s.visibility.CanAccessGroup(ctx, principal, groupID)
	if err != nil {
		return nil, "", err
	}
	if !canAccess {
		return nil, "", NewPermissionError(principal.ID, groupID, "grade sheet", "export",
			"group is outside the principal's visibility scope")
	}

	group, err := s.repo.Group().GetByID(ctx, nil, groupID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", NewNotFoundError("group", groupID)
		}
		return nil, "", fmt.Errorf("failed to load group: %w", err)
	}

	assignments, err := s.repo.Assignment().List(ctx, nil, uuid.Nil, repositories.AssignmentFilters{GroupID: &groupID})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list assignments: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Grades"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Student ID", "Student Name", "Exercise", "Grade", "Manually Graded", "Date of Assessment"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		f.SetRowStyle(sheet, 1, 1, headerStyle)
	}

	studentNames := make(map[string]string)
	exerciseNames := make(map[uuid.UUID]string)

	for row, a := range assignments {
		name, ok := studentNames[a.StudentID]
		if !ok {
			if u, err := s.repo.User().GetByID(ctx, a.StudentID); err == nil {
				name = u.FullName
			}
			studentNames[a.StudentID] = name
		}

		exName, ok := exerciseNames[a.ExerciseID]
		if !ok {
			if ex, err := s.repo.Exercise().GetByID(ctx, nil, a.ExerciseID); err == nil {
				exName = ex.Name
			}
			exerciseNames[a.ExerciseID] = exName
		}

		values := []interface{}{a.StudentID, name, exName, "", a.ManuallyGraded, ""}
		if a.Grade != nil {
			values[3] = *a.Grade
		}
		if a.DateOfAssessment != nil {
			values[5] = a.DateOfAssessment.Format(time.RFC3339)
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render grade sheet: %w", err)
	}

	filename := fmt.Sprintf("grades_%s_%s.xlsx", group.Name, s.now().Format("2006-01-02"))
	s.logger.Info("Grade sheet exported", "group_id", groupID, "rows", len(assignments), "by", principal.ID)

	return buf.Bytes(), filename, nil
}
