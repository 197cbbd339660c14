package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coderbench/exercise-service/internal/services"
	"github.com/coderbench/exercise-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportGradeSheet downloads the group's grade sheet as an xlsx workbook
// @Summary Export grade sheet
// @Description Renders all assignments of the group into an xlsx workbook
// @Tags exports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Group ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /groups/{id}/grade-sheet [get]
func (h *ExportHandler) ExportGradeSheet(c *gin.Context) {
	groupID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	principal, ok := h.requirePrincipal(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting grade sheet", "group_id", groupID, "user_id", principal.ID)

	data, filename, err := h.exportService.GradeSheet(c.Request.Context(), principal, groupID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
