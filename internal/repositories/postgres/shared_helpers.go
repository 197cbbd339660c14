package postgres

import (
	"gorm.io/gorm"

	"github.com/coderbench/exercise-service/internal/repositories"
)

// ApplyResultFilters applies common filters to submission result queries
func ApplyResultFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return applyPagination(query, filters.Limit, filters.Offset)
}

// ApplyAssignmentFilters applies common filters to assignment queries
func ApplyAssignmentFilters(query *gorm.DB, filters repositories.AssignmentFilters) *gorm.DB {
	if filters.Graded != nil {
		if *filters.Graded {
			query = query.Where("grade IS NOT NULL")
		} else {
			query = query.Where("grade IS NULL")
		}
	}
	if filters.GroupID != nil {
		query = query.Where("group_id = ?", *filters.GroupID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	return applyPagination(query, filters.Limit, filters.Offset)
}

func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
