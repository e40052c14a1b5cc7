package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/repository"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
	"github.com/noah-isme/lakgs-api/pkg/graphdb"
)

// memoryClassroom keeps the one-active-question rule in memory.
type memoryClassroom struct {
	questions []*models.ClassroomQuestion
	replies   map[string][]models.Reply
	err       error
}

func (m *memoryClassroom) CreateQuestion(_ context.Context, text string) (*models.ClassroomQuestion, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, q := range m.questions {
		q.Status = models.QuestionClosed
	}
	q := &models.ClassroomQuestion{ID: "q" + string(rune('0'+len(m.questions)+1)), Text: text, Status: models.QuestionActive, CreatedAt: time.Now()}
	m.questions = append(m.questions, q)
	return q, nil
}

func (m *memoryClassroom) ActiveQuestion(context.Context) (*models.ClassroomQuestion, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, q := range m.questions {
		if q.Status == models.QuestionActive {
			return q, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (m *memoryClassroom) GetQuestion(_ context.Context, id string) (*models.ClassroomQuestion, error) {
	for _, q := range m.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (m *memoryClassroom) CloseQuestion(ctx context.Context, id string) error {
	q, err := m.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	q.Status = models.QuestionClosed
	return nil
}

func (m *memoryClassroom) AddReply(_ context.Context, questionID, studentID, content string) (*models.Reply, error) {
	if m.replies == nil {
		m.replies = map[string][]models.Reply{}
	}
	reply := models.Reply{StudentID: studentID, Content: content, Length: len([]rune(content))}
	m.replies[questionID] = append(m.replies[questionID], reply)
	return &reply, nil
}

func (m *memoryClassroom) Replies(_ context.Context, questionID string) ([]models.Reply, error) {
	return append([]models.Reply{}, m.replies[questionID]...), nil
}

func newTestClassroom(store *memoryClassroom, mediator *fakeMediator) (*ClassroomService, *recordingSink) {
	sink := &recordingSink{}
	return NewClassroomService(store, mediator, sink, "课中互动", nil, zap.NewNop()), sink
}

func TestClassroomQuestionUniqueness(t *testing.T) {
	store := &memoryClassroom{}
	svc, _ := newTestClassroom(store, &fakeMediator{})
	ctx := context.Background()

	_, err := svc.CreateQuestion(ctx, dto.CreateClassroomQuestionRequest{Text: "Q1"})
	require.NoError(t, err)
	_, err = svc.CreateQuestion(ctx, dto.CreateClassroomQuestionRequest{Text: "Q2"})
	require.NoError(t, err)

	active, err := svc.ActiveQuestion(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "Q2", active.Text)

	activeCount := 0
	for _, q := range store.questions {
		if q.Status == models.QuestionActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestReplyRules(t *testing.T) {
	store := &memoryClassroom{}
	svc, sink := newTestClassroom(store, &fakeMediator{})
	ctx := context.Background()

	_, err := svc.Reply(ctx, student, dto.ReplyRequest{QuestionID: "q1", Content: "答案"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	first, _ := svc.CreateQuestion(ctx, dto.CreateClassroomQuestionRequest{Text: "Q1"})
	second, _ := svc.CreateQuestion(ctx, dto.CreateClassroomQuestionRequest{Text: "Q2"})

	_, err = svc.Reply(ctx, student, dto.ReplyRequest{QuestionID: first.ID, Content: "答案"})
	require.Error(t, err)
	assert.Equal(t, "question is no longer active", appErrors.FromError(err).Message)

	_, err = svc.Reply(ctx, teacher, dto.ReplyRequest{QuestionID: second.ID, Content: "答案"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	reply, err := svc.Reply(ctx, student, dto.ReplyRequest{QuestionID: second.ID, Content: " 郡县制 "})
	require.NoError(t, err)
	assert.Equal(t, "郡县制", reply.Content)
	assert.Equal(t, 3, reply.Length)

	recorded := sink.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, models.ActivityInteract, recorded[0].ActivityType)
	assert.Equal(t, "课中互动", recorded[0].ModuleName)
	assert.Equal(t, second.ID, recorded[0].ContentID)
}

func TestNoActiveQuestionIsNotAnError(t *testing.T) {
	svc, _ := newTestClassroom(&memoryClassroom{}, &fakeMediator{})
	active, err := svc.ActiveQuestion(context.Background())
	require.NoError(t, err)
	assert.Nil(t, active)

	err = svc.CloseQuestion(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestClassroomStoreOffline(t *testing.T) {
	svc, _ := newTestClassroom(&memoryClassroom{err: graphdb.ErrUnavailable}, &fakeMediator{})
	_, err := svc.CreateQuestion(context.Background(), dto.CreateClassroomQuestionRequest{Text: "Q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrStoreUnavailable))
	assert.Equal(t, "database offline", appErrors.FromError(err).Message)
}

func TestSummariseReplies(t *testing.T) {
	store := &memoryClassroom{}
	mediator := &fakeMediator{reply: "大家都提到了郡县制"}
	svc, _ := newTestClassroom(store, mediator)
	ctx := context.Background()

	q, _ := svc.CreateQuestion(ctx, dto.CreateClassroomQuestionRequest{Text: "秦朝的制度？"})
	empty, err := svc.SummariseReplies(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Replies)
	assert.Equal(t, 0, mediator.calls)

	_, err = svc.Reply(ctx, student, dto.ReplyRequest{QuestionID: q.ID, Content: "郡县制"})
	require.NoError(t, err)
	summary, err := svc.SummariseReplies(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Replies)
	assert.Equal(t, "大家都提到了郡县制", summary.Summary)
	assert.Equal(t, []string{"秦朝的制度？"}, mediator.prompts)
}
