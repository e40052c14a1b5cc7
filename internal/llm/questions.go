package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/lakgs-api/internal/models"
)

// QuestionRequest asks for Count questions of one type on the given topics.
type QuestionRequest struct {
	Topics     []string
	Difficulty models.Difficulty
	Count      int
	Type       models.QuestionType
}

var (
	optionPrefix = regexp.MustCompile(`^\s*[A-Da-d]\s*[.、:：)）]\s*`)
	answerSplit  = regexp.MustCompile(`[\s,，、;；/]+`)
	scorePattern = regexp.MustCompile(`总分\s*[：:]\s*(\d{1,3})`)
)

// ParseScore extracts the integer after the 总分 heading of a grading report.
func ParseScore(markdown string) (int, bool) {
	m := scorePattern.FindStringSubmatch(markdown)
	if m == nil {
		return 0, false
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return score, true
}

// ParseQuestions decodes the JSON array between the first '[' and the last ']'
// of content, normalises each item and validates it against req. Extra items
// are dropped; fewer than req.Count is an error.
func ParseQuestions(content string, req QuestionRequest) ([]models.Question, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("decode question array: %w", err)
	}
	if len(items) < req.Count {
		return nil, fmt.Errorf("expected %d questions, got %d", req.Count, len(items))
	}

	out := make([]models.Question, 0, req.Count)
	for i, item := range items[:req.Count] {
		q, err := normaliseQuestion(item, req.Type)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func normaliseQuestion(item map[string]any, want models.QuestionType) (models.Question, error) {
	q := models.Question{
		Question:    stringField(item["question"]),
		Explanation: stringField(item["explanation"]),
		Difficulty:  models.Difficulty(strings.ToLower(stringField(item["difficulty"]))),
		Type:        models.QuestionType(strings.ToLower(stringField(item["type"]))),
	}
	required := []struct{ name, value string }{
		{"question", q.Question},
		{"explanation", q.Explanation},
		{"difficulty", string(q.Difficulty)},
		{"type", string(q.Type)},
	}
	for _, f := range required {
		if f.value == "" {
			return q, fmt.Errorf("missing field %q", f.name)
		}
	}
	switch q.Difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return q, fmt.Errorf("invalid difficulty %q", q.Difficulty)
	}
	if q.Type != want {
		return q, fmt.Errorf("type %q, want %q", q.Type, want)
	}

	switch q.Type {
	case models.QuestionSingleChoice, models.QuestionMultipleChoice:
		options, err := normaliseOptions(item["options"])
		if err != nil {
			return q, err
		}
		q.Options = options
		letters, err := answerLetters(item["answer"])
		if err != nil {
			return q, err
		}
		if q.Type == models.QuestionSingleChoice && len(letters) != 1 {
			return q, fmt.Errorf("single choice answer needs one letter, got %q", strings.Join(letters, ""))
		}
		if q.Type == models.QuestionMultipleChoice && (len(letters) < 2 || len(letters) > 4) {
			return q, fmt.Errorf("multiple choice answer needs 2-4 letters, got %q", strings.Join(letters, ""))
		}
		q.Answer = strings.Join(letters, "")
	case models.QuestionMaterial:
		if hasOptions(item["options"]) {
			return q, fmt.Errorf("material question must not have options")
		}
		q.Answer = stringField(item["answer"])
		if q.Answer == "" {
			return q, fmt.Errorf("missing field %q", "answer")
		}
	default:
		return q, fmt.Errorf("unknown type %q", q.Type)
	}
	return q, nil
}

// normaliseOptions accepts {"A": ...} objects or four-element lists.
func normaliseOptions(raw any) (map[string]string, error) {
	out := make(map[string]string, len(models.OptionKeys))
	switch v := raw.(type) {
	case map[string]any:
		for key, val := range v {
			k := strings.ToUpper(strings.Trim(strings.TrimSpace(key), ".、:：)）"))
			out[k] = optionText(val)
		}
	case []any:
		if len(v) != len(models.OptionKeys) {
			return nil, fmt.Errorf("options list needs %d entries, got %d", len(models.OptionKeys), len(v))
		}
		for i, val := range v {
			out[models.OptionKeys[i]] = optionText(val)
		}
	default:
		return nil, fmt.Errorf("missing options")
	}
	if len(out) != len(models.OptionKeys) {
		return nil, fmt.Errorf("options must be exactly A-D")
	}
	for _, key := range models.OptionKeys {
		if out[key] == "" {
			return nil, fmt.Errorf("option %s missing or empty", key)
		}
	}
	return out, nil
}

func optionText(v any) string {
	return strings.TrimSpace(optionPrefix.ReplaceAllString(stringField(v), ""))
}

// answerLetters returns the sorted distinct option letters of an answer.
func answerLetters(raw any) ([]string, error) {
	var parts []string
	switch v := raw.(type) {
	case []any:
		for _, p := range v {
			parts = append(parts, stringField(p))
		}
	default:
		s := strings.ToUpper(stringField(v))
		if answerSplit.MatchString(s) {
			parts = answerSplit.Split(s, -1)
		} else {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		}
	}

	seen := map[string]struct{}{}
	letters := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !isOptionKey(p) {
			return nil, fmt.Errorf("answer letter %q not in A-D", p)
		}
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("answer letter %q repeated", p)
		}
		seen[p] = struct{}{}
		letters = append(letters, p)
	}
	if len(letters) == 0 {
		return nil, fmt.Errorf("missing field %q", "answer")
	}
	sort.Strings(letters)
	return letters, nil
}

func isOptionKey(s string) bool {
	for _, k := range models.OptionKeys {
		if s == k {
			return true
		}
	}
	return false
}

func hasOptions(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return true
	}
}

func stringField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
