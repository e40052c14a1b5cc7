package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/service"
	"github.com/noah-isme/lakgs-api/pkg/response"
)

// DataManagementService is the teacher's data tool surface.
type DataManagementService interface {
	DeleteAllActivities(ctx context.Context) (int, error)
	DeleteStudent(ctx context.Context, studentID string) (models.DeleteResult, error)
	FixFieldNames(ctx context.Context) (models.FieldMigrationResult, error)
	ExportActivities(ctx context.Context, format string) (*service.ExportFile, error)
}

// DataHandler exposes destructive maintenance and exports.
type DataHandler struct {
	data DataManagementService
}

// NewDataHandler constructs the data handler.
func NewDataHandler(data DataManagementService) *DataHandler {
	return &DataHandler{data: data}
}

// DeleteAllActivities godoc
// @Summary Delete every activity
// @Tags Data
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/activities [delete]
func (h *DataHandler) DeleteAllActivities(c *gin.Context) {
	n, err := h.data.DeleteAllActivities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": n})
}

// DeleteStudent removes a student and their activities.
func (h *DataHandler) DeleteStudent(c *gin.Context) {
	result, err := h.data.DeleteStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// FixFieldNames runs the legacy field migration.
func (h *DataHandler) FixFieldNames(c *gin.Context) {
	result, err := h.data.FixFieldNames(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// ExportActivities godoc
// @Summary Export the activity log
// @Tags Data
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /admin/exports/activities [get]
func (h *DataHandler) ExportActivities(c *gin.Context) {
	var query dto.ExportQuery
	if !bindQuery(c, &query) {
		return
	}
	file, err := h.data.ExportActivities(c.Request.Context(), query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
