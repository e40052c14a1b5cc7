package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lakgs-api/internal/models"
)

type scriptedCompleter struct {
	replies  []string
	err      error
	calls    [][]Message
	profiles []Profile
}

func (s *scriptedCompleter) Complete(_ context.Context, messages []Message, profile Profile) (string, error) {
	s.calls = append(s.calls, messages)
	s.profiles = append(s.profiles, profile)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

const validSingle = `好的，题目如下：
[{"question":"秦朝在地方推行的制度是？","options":{"A":"分封制","B":"郡县制","C":"行省制","D":"宗法制"},
"answer":"b","explanation":"秦朝推行郡县制。","difficulty":"easy","type":"single_choice"}]
以上。`

func TestParseQuestionsNormalisesOptionsAndAnswers(t *testing.T) {
	qs, err := ParseQuestions(validSingle, QuestionRequest{Count: 1, Type: models.QuestionSingleChoice})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "B", qs[0].Answer)
	assert.Equal(t, "郡县制", qs[0].Options["B"])

	listForm := `[{"question":"q","options":["A. 甲","B. 乙","C. 丙","D. 丁"],"answer":["C","A"],
"explanation":"e","difficulty":"Medium","type":"multiple_choice"},
{"question":"extra","options":["1","2","3","4"],"answer":"AB","explanation":"e","difficulty":"hard","type":"multiple_choice"}]`
	qs, err = ParseQuestions(listForm, QuestionRequest{Count: 1, Type: models.QuestionMultipleChoice})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, map[string]string{"A": "甲", "B": "乙", "C": "丙", "D": "丁"}, qs[0].Options)
	assert.Equal(t, "AC", qs[0].Answer)
	assert.Equal(t, models.DifficultyMedium, qs[0].Difficulty)
}

func TestParseQuestionsRejectsInvalidItems(t *testing.T) {
	cases := []struct {
		name    string
		content string
		typ     models.QuestionType
	}{
		{"no array", "抱歉，我无法完成", models.QuestionSingleChoice},
		{"too few", `[]`, models.QuestionSingleChoice},
		{"missing explanation", `[{"question":"q","options":{"A":"1","B":"2","C":"3","D":"4"},"answer":"A","difficulty":"easy","type":"single_choice"}]`, models.QuestionSingleChoice},
		{"option E", `[{"question":"q","options":{"A":"1","B":"2","C":"3","E":"4"},"answer":"A","explanation":"e","difficulty":"easy","type":"single_choice"}]`, models.QuestionSingleChoice},
		{"answer E for single", `[{"question":"q","options":{"A":"1","B":"2","C":"3","D":"4"},"answer":"E","explanation":"e","difficulty":"easy","type":"single_choice"}]`, models.QuestionSingleChoice},
		{"two letters for single", `[{"question":"q","options":{"A":"1","B":"2","C":"3","D":"4"},"answer":"AB","explanation":"e","difficulty":"easy","type":"single_choice"}]`, models.QuestionSingleChoice},
		{"one letter for multiple", `[{"question":"q","options":{"A":"1","B":"2","C":"3","D":"4"},"answer":"A","explanation":"e","difficulty":"easy","type":"multiple_choice"}]`, models.QuestionMultipleChoice},
		{"material with options", `[{"question":"q","options":{"A":"1"},"answer":"prose","explanation":"e","difficulty":"easy","type":"material"}]`, models.QuestionMaterial},
		{"wrong type", `[{"question":"q","answer":"prose","explanation":"e","difficulty":"easy","type":"essay"}]`, models.QuestionMaterial},
		{"bad difficulty", `[{"question":"q","answer":"prose","explanation":"e","difficulty":"extreme","type":"material"}]`, models.QuestionMaterial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseQuestions(tc.content, QuestionRequest{Count: 1, Type: tc.typ})
			assert.Error(t, err)
		})
	}
}

func TestGenerateQuestionsRetriesWithStricterPrompt(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{`[{"question":"q"}]`, validSingle}}
	m := NewMediator(completer, nil)

	qs, err := m.GenerateQuestions(context.Background(), QuestionRequest{
		Topics: []string{"郡县制"}, Difficulty: models.DifficultyEasy, Count: 1, Type: models.QuestionSingleChoice,
	})
	require.NoError(t, err)
	assert.Len(t, qs, 1)
	require.Len(t, completer.calls, 2)
	assert.NotEqual(t, completer.calls[0][0].Content, completer.calls[1][0].Content)
	assert.Contains(t, completer.calls[1][0].Content, "上一次输出无法通过校验")
	assert.Equal(t, ProfileQuestion, completer.profiles[0])
}

func TestGenerateQuestionsSurfacesGenerationError(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{"not json", "still not json"}}
	m := NewMediator(completer, nil)

	_, err := m.GenerateQuestions(context.Background(), QuestionRequest{Count: 2, Type: models.QuestionMaterial, Difficulty: models.DifficultyHard})
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, 2, genErr.Attempts)
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestMediatorPassesTransportErrorsThrough(t *testing.T) {
	m := NewMediator(&scriptedCompleter{err: ErrRateLimited}, nil)
	_, err := m.GenerateQuestions(context.Background(), QuestionRequest{Count: 1, Type: models.QuestionMaterial})
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = m.Explain(context.Background(), "郡县制", models.ExplainSimple)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestCapabilityProfiles(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{"a", "b", "c", "d", "e"}}
	m := NewMediator(completer, nil)
	ctx := context.Background()

	_, _ = m.Chat(ctx, "", []Message{{Role: "user", Content: "秦朝"}}, Profile{})
	_, _ = m.GradeEssay(ctx, "q", "a", "")
	_, _ = m.Explain(ctx, "郡县制", models.ExplainAdvanced)
	_, _ = m.SummariseReplies(ctx, "q", []models.Reply{{StudentID: "s1", Content: "r"}})
	_, _ = m.SynthesiseReport(ctx, "prompt")

	names := make([]string, 0, len(completer.profiles))
	for _, p := range completer.profiles {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"chat", "grade", "chat", "chat", "default"}, names)
	assert.Equal(t, systemTutor, completer.calls[0][0].Content)
	assert.Equal(t, "秦朝", completer.calls[0][1].Content)
	assert.NotContains(t, completer.calls[1][1].Content, "参考答案")
}

func TestSummariseRepliesNeedsReplies(t *testing.T) {
	m := NewMediator(&scriptedCompleter{}, nil)
	_, err := m.SummariseReplies(context.Background(), "q", nil)
	assert.Error(t, err)
}

func TestParseScore(t *testing.T) {
	score, ok := ParseScore("## 总分：85\n## 史实准确性")
	assert.True(t, ok)
	assert.Equal(t, 85, score)

	score, ok = ParseScore("总分: 42 分")
	assert.True(t, ok)
	assert.Equal(t, 42, score)

	_, ok = ParseScore("没有分数")
	assert.False(t, ok)
}
