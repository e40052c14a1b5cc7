package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/noah-isme/lakgs-api/internal/llm"
	"github.com/noah-isme/lakgs-api/internal/models"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

type recordingSink struct {
	mu         sync.Mutex
	activities []models.Activity
}

func (r *recordingSink) Record(_ context.Context, user models.User, activity models.Activity) {
	if user.IsTeacher() {
		return
	}
	activity.StudentID = user.StudentID
	r.mu.Lock()
	r.activities = append(r.activities, activity)
	r.mu.Unlock()
}

func (r *recordingSink) recorded() []models.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Activity(nil), r.activities...)
}

type fakeMediator struct {
	reply     string
	err       error
	questions []models.Question
	prompts   []string
	calls     int
}

func (f *fakeMediator) answer(prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeMediator) Chat(_ context.Context, _ string, history []llm.Message, _ llm.Profile) (string, error) {
	return f.answer(history[len(history)-1].Content)
}

func (f *fakeMediator) GradeEssay(_ context.Context, question, _, _ string) (string, error) {
	return f.answer(question)
}

func (f *fakeMediator) GenerateQuestions(_ context.Context, req llm.QuestionRequest) ([]models.Question, error) {
	f.calls++
	return f.questions, f.err
}

func (f *fakeMediator) Explain(_ context.Context, topic string, _ models.ExplainLevel) (string, error) {
	return f.answer(topic)
}

func (f *fakeMediator) SummariseReplies(_ context.Context, question string, _ []models.Reply) (string, error) {
	return f.answer(question)
}

func (f *fakeMediator) SynthesiseReport(_ context.Context, prompt string) (string, error) {
	return f.answer(prompt)
}

type stubCacheRepo struct {
	store map[string][]byte
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest any) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

var (
	student = models.User{StudentID: "2024001", Name: "张三", Role: models.RoleStudent}
	teacher = models.User{Name: "teacher", Role: models.RoleTeacher}
)
