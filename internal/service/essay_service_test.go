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
	"github.com/noah-isme/lakgs-api/internal/llm"
	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/repository"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

func newTestEssay(t *testing.T, mediator *fakeMediator) (*EssayService, repository.SessionStore, models.Session) {
	t.Helper()
	sessions := repository.NewMemorySessionStore()
	session := models.Session{ID: "sess-1", User: student}
	require.NoError(t, sessions.Save(context.Background(), session, time.Hour))
	return NewEssayService(mediator, sessions, &recordingSink{}, nil, zap.NewNop()), sessions, session
}

func TestGradeLowScoreAddsToWrongQuestionBook(t *testing.T) {
	svc, _, session := newTestEssay(t, &fakeMediator{reply: "## 总分：45\n需要加强"})

	grade, err := svc.Grade(context.Background(), session, dto.GradeEssayRequest{Question: "评价秦朝", Answer: "秦朝很短"})
	require.NoError(t, err)
	require.NotNil(t, grade.Score)
	assert.Equal(t, 45, *grade.Score)
	assert.True(t, grade.AddedToBook)

	book, err := svc.WrongQuestions(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"评价秦朝"}, book.Questions)
}

func TestGradePassingOrUnparsedScoreLeavesBookAlone(t *testing.T) {
	for _, feedback := range []string{"## 总分: 85\n很好", "没有分数"} {
		svc, _, session := newTestEssay(t, &fakeMediator{reply: feedback})
		grade, err := svc.Grade(context.Background(), session, dto.GradeEssayRequest{Question: "q", Answer: "a"})
		require.NoError(t, err)
		assert.False(t, grade.AddedToBook)

		book, err := svc.WrongQuestions(context.Background(), session.ID)
		require.NoError(t, err)
		assert.Empty(t, book.Questions)
		assert.NotNil(t, book.Questions)
	}
}

func TestGradeSurfacesLLMErrors(t *testing.T) {
	svc, _, session := newTestEssay(t, &fakeMediator{err: llm.ErrMisconfigured})
	_, err := svc.Grade(context.Background(), session, dto.GradeEssayRequest{Question: "q", Answer: "a"})
	assert.True(t, errors.Is(err, appErrors.ErrLLMMisconfigured))

	_, err = svc.WrongQuestions(context.Background(), "unknown")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
