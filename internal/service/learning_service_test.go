package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/content"
	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

type stubActivityReader struct {
	activities []models.Activity
	err        error
	limit      int
	module     string
}

func (s *stubActivityReader) ActivitiesOf(_ context.Context, _ string, module string, limit int) ([]models.Activity, error) {
	s.module, s.limit = module, limit
	return s.activities, s.err
}

func TestEnterModuleRecordsAndReturnsLanding(t *testing.T) {
	sink := &recordingSink{}
	reader := &stubActivityReader{activities: []models.Activity{{ID: "a1"}}}
	svc := NewLearningService(content.Load(contentFixture, zap.NewNop()), sink, reader, nil, zap.NewNop())

	landing, err := svc.EnterModule(context.Background(), student, models.LegacyModuleAssessment)
	require.NoError(t, err)
	assert.Equal(t, models.ModuleAssessment, landing.Module)
	assert.Len(t, landing.Textbooks, 2)
	assert.Len(t, landing.RecentActivities, 1)
	assert.Equal(t, recentOnLanding, reader.limit)

	recorded := sink.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, models.ActivityEnterModule, recorded[0].ActivityType)
	assert.Equal(t, models.ModuleAssessment, recorded[0].ModuleName)
	assert.Equal(t, student.StudentID, recorded[0].StudentID)

	_, err = svc.EnterModule(context.Background(), student, "  ")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestPagesStillServeWithBrokenStore(t *testing.T) {
	broken := &memoryActivityLog{err: errors.New("database offline")}
	recorder := NewActivityRecorder(broken, NewMetricsService(), zap.NewNop(), 4)
	reader := &stubActivityReader{err: errors.New("database offline")}
	svc := NewLearningService(content.Load(contentFixture, zap.NewNop()), recorder, reader, nil, zap.NewNop())

	landing, err := svc.EnterModule(context.Background(), student, "案例库")
	require.NoError(t, err)
	assert.Empty(t, landing.RecentActivities)
	assert.NotNil(t, landing.RecentActivities)

	detail, err := svc.ViewLesson(context.Background(), student, "l2", "")
	require.NoError(t, err)
	assert.Equal(t, "l2", detail.Lesson.ID)

	require.NoError(t, svc.SaveNote(context.Background(), student, dto.SaveNoteRequest{ModuleName: "案例库", Note: "笔记"}))
}

func TestViewLessonRecordsContent(t *testing.T) {
	sink := &recordingSink{}
	svc := NewLearningService(content.Load(contentFixture, zap.NewNop()), sink, nil, nil, zap.NewNop())

	detail, err := svc.ViewLesson(context.Background(), student, "l2", "知识图谱")
	require.NoError(t, err)
	assert.Len(t, detail.Events, 3)

	recorded := sink.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, models.ActivityViewContent, recorded[0].ActivityType)
	assert.Equal(t, "l2", recorded[0].ContentID)
	assert.Equal(t, "第3课 秦统一多民族封建国家的建立", recorded[0].ContentName)

	_, err = svc.ViewLesson(context.Background(), student, "missing", "")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Len(t, sink.recorded(), 1)
}

func TestSubmitAnswerEncodesDetails(t *testing.T) {
	sink := &recordingSink{}
	svc := NewLearningService(content.Load(contentFixture, zap.NewNop()), sink, nil, nil, zap.NewNop())
	correct := true

	err := svc.SubmitAnswer(context.Background(), student, dto.SubmitAnswerRequest{
		ModuleName: "知识点掌握评估", QuestionID: "q1", Question: "秦朝建立于？", Answer: " A ", Correct: &correct,
	})
	require.NoError(t, err)
	recorded := sink.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, models.ActivitySubmitAnswer, recorded[0].ActivityType)
	assert.JSONEq(t, `{"question":"秦朝建立于？","answer":"A","correct":true}`, recorded[0].Details)

	err = svc.SubmitAnswer(context.Background(), student, dto.SubmitAnswerRequest{ModuleName: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer")
}

func TestContentBrowse(t *testing.T) {
	svc := NewLearningService(content.Load(contentFixture, zap.NewNop()), &recordingSink{}, nil, nil, zap.NewNop())

	assert.Len(t, svc.Textbooks(), 2)

	units, err := svc.Units("b1")
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "u1", units[0].ID)

	_, err = svc.Units("missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, svc.Lessons("missing"))
}
