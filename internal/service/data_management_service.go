package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/export"
)

const exportActivityLimit = 10000

// ActivityAdmin is the destructive and bulk surface of the activity log.
type ActivityAdmin interface {
	DeleteAllActivities(ctx context.Context) (int, error)
	DeleteStudent(ctx context.Context, studentID string) (models.DeleteResult, error)
	FixFieldNames(ctx context.Context) (models.FieldMigrationResult, error)
	AllActivities(ctx context.Context, limit int) ([]models.Activity, error)
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DataManagementService implements the teacher's data tools: bulk deletes,
// the legacy field migration and activity exports.
type DataManagementService struct {
	repo   ActivityAdmin
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
	now    func() time.Time
}

// NewDataManagementService constructs a DataManagementService.
func NewDataManagementService(repo ActivityAdmin, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *DataManagementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(export.WithFormulaGuard())
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &DataManagementService{repo: repo, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// DeleteAllActivities removes every activity and returns how many were deleted.
func (s *DataManagementService) DeleteAllActivities(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteAllActivities(ctx)
	if err != nil {
		return 0, storeError(err, "no activities")
	}
	s.logger.Info("all activities deleted", zap.Int("count", n))
	return n, nil
}

// DeleteStudent removes a student and their activities.
func (s *DataManagementService) DeleteStudent(ctx context.Context, studentID string) (models.DeleteResult, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return models.DeleteResult{}, appErrors.Field("student_id", "is required")
	}
	result, err := s.repo.DeleteStudent(ctx, studentID)
	if err != nil {
		return models.DeleteResult{}, storeError(err, "student not found")
	}
	s.logger.Info("student deleted", zap.String("student_id", studentID), zap.Int("activities", result.Activities))
	return result, nil
}

// FixFieldNames runs the idempotent legacy field migration.
func (s *DataManagementService) FixFieldNames(ctx context.Context) (models.FieldMigrationResult, error) {
	result, err := s.repo.FixFieldNames(ctx)
	if err != nil {
		return models.FieldMigrationResult{}, storeError(err, "nothing to migrate")
	}
	s.logger.Info("field names migrated",
		zap.Int("module_renamed", result.ModuleRenamed),
		zap.Int("type_renamed", result.TypeRenamed),
		zap.Int("tags_migrated", result.TagsMigrated))
	return result, nil
}

var activityColumns = []export.Column{
	{Key: "timestamp", Title: "时间"},
	{Key: "student_id", Title: "学号"},
	{Key: "activity_type", Title: "活动类型"},
	{Key: "module_name", Title: "模块"},
	{Key: "content_id", Title: "内容ID"},
	{Key: "content_name", Title: "内容"},
	{Key: "details", Title: "详情"},
}

// ExportActivities renders the activity log as csv (default) or pdf.
func (s *DataManagementService) ExportActivities(ctx context.Context, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Field("format", "must be one of csv, pdf")
	}
	activities, err := s.repo.AllActivities(ctx, exportActivityLimit)
	if err != nil {
		return nil, storeError(err, "no activities")
	}

	dataset := export.Dataset{Columns: activityColumns, Rows: make([]map[string]string, 0, len(activities))}
	for _, a := range activities {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"timestamp":     a.Timestamp.In(time.Local).Format("2006-01-02 15:04:05"),
			"student_id":    a.StudentID,
			"activity_type": a.ActivityType,
			"module_name":   a.ModuleName,
			"content_id":    a.ContentID,
			"content_name":  a.ContentName,
			"details":       a.Details,
		})
	}

	stamp := s.now().Format("20060102-150405")
	switch format {
	case "pdf":
		data, err := s.pdf.Render(dataset, "学习活动记录")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to render pdf")
		}
		return &ExportFile{Filename: fmt.Sprintf("activities-%s.pdf", stamp), ContentType: "application/pdf", Data: data}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to render csv")
		}
		return &ExportFile{Filename: fmt.Sprintf("activities-%s.csv", stamp), ContentType: "text/csv; charset=utf-8", Data: data}, nil
	}
}
