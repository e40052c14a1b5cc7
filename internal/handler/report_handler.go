package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/middleware"
	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/service"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/response"
)

// ReportService generates reports and resolves signed downloads.
type ReportService interface {
	Generate(ctx context.Context, req dto.ReportRequest) (*models.Report, error)
	Download(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes report generation and download.
type ReportHandler struct {
	reports ReportService
}

// NewReportHandler constructs the report handler.
func NewReportHandler(reports ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Generate godoc
// @Summary Generate a learning report
// @Description Scope is student, module or overall; key names the student or module
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportRequest true "Report request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	var req dto.ReportRequest
	if !bindJSON(c, &req, "invalid report payload") {
		return
	}
	report, err := h.reports.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err, middleware.ExtractMeta(c))
		return
	}
	middleware.SetDegraded(c, report.Degraded)
	ok(c, http.StatusOK, report)
}

// Download godoc
// @Summary Download a stored report
// @Tags Reports
// @Produce text/markdown
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Field("token", "is required"))
		return
	}
	result, err := h.reports.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", result.Data)
}
