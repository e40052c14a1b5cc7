package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/repository"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/graphdb"
)

type fakeActivityAdmin struct {
	activities []models.Activity
	deleted    int
	err        error
}

func (f *fakeActivityAdmin) DeleteAllActivities(context.Context) (int, error) {
	return f.deleted, f.err
}

func (f *fakeActivityAdmin) DeleteStudent(_ context.Context, id string) (models.DeleteResult, error) {
	if f.err != nil {
		return models.DeleteResult{}, f.err
	}
	if id != "2024001" {
		return models.DeleteResult{}, repository.ErrNoRows
	}
	return models.DeleteResult{Students: 1, Activities: 4}, nil
}

func (f *fakeActivityAdmin) FixFieldNames(context.Context) (models.FieldMigrationResult, error) {
	return models.FieldMigrationResult{ModuleRenamed: 2}, f.err
}

func (f *fakeActivityAdmin) AllActivities(context.Context, int) ([]models.Activity, error) {
	return f.activities, f.err
}

func TestExportActivitiesCSV(t *testing.T) {
	admin := &fakeActivityAdmin{activities: []models.Activity{{
		StudentID: "2024001", ActivityType: models.ActivityViewContent, ModuleName: "案例库",
		ContentID: "c1", ContentName: "Case 1", Timestamp: time.Date(2024, 5, 10, 9, 0, 0, 0, time.Local),
	}}}
	svc := NewDataManagementService(admin, nil, nil, zap.NewNop())

	file, err := svc.ExportActivities(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,student_id,activity_type,module_name,content_id,content_name,details", lines[0])
	assert.Equal(t, "2024-05-10 09:00:00,2024001,view-content,案例库,c1,Case 1,", lines[1])

	_, err = svc.ExportActivities(context.Background(), "xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestExportActivitiesPDF(t *testing.T) {
	admin := &fakeActivityAdmin{activities: []models.Activity{{StudentID: "s1", ActivityType: "interact", ModuleName: "m"}}}
	file, err := NewDataManagementService(admin, nil, nil, zap.NewNop()).ExportActivities(context.Background(), "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestDataManagementErrors(t *testing.T) {
	svc := NewDataManagementService(&fakeActivityAdmin{}, nil, nil, zap.NewNop())

	result, err := svc.DeleteStudent(context.Background(), "2024001")
	require.NoError(t, err)
	assert.Equal(t, 4, result.Activities)

	_, err = svc.DeleteStudent(context.Background(), "nobody")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	offline := NewDataManagementService(&fakeActivityAdmin{err: graphdb.ErrUnavailable}, nil, nil, zap.NewNop())
	_, err = offline.DeleteAllActivities(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrStoreUnavailable))
	_, err = offline.FixFieldNames(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrStoreUnavailable))
}
