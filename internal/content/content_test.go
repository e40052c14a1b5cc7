package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/models"
)

func loadFixture(t *testing.T) *Repository {
	t.Helper()
	return Load(filepath.Join("testdata", "snapshot"), zap.NewNop())
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, id(item))
	}
	return out
}

func TestParseYear(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"公元前221年", -221, true},
		{"前221年", -221, true},
		{"221年", 221, true},
		{"1840年", 1840, true},
		{"公元1840年", 1840, true},
		{"1840年6月", 1840, true},
		{"-221", -221, true},
		{"1840", 1840, true},
		{" 605年 ", 605, true},
		{"秦朝末年", 0, false},
		{"十九世纪", 0, false},
		{"", 0, false},
		{"12345", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseYear(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadNormalisesAndIndexes(t *testing.T) {
	repo := loadFixture(t)

	assert.Equal(t, models.ContentStats{Textbooks: 2, Units: 3, Lessons: 3, Events: 5, Figures: 2, Concepts: 0}, repo.Stats())
	assert.Equal(t, []string{"b1", "2"}, ids(repo.ListTextbooks(), func(b models.Textbook) string { return b.ID }))
	assert.Equal(t, []string{"u1", "u2"}, ids(repo.UnitsOf("b1"), func(u models.Unit) string { return u.ID }))
	assert.Equal(t, []string{"u3"}, ids(repo.UnitsOf("2"), func(u models.Unit) string { return u.ID }))
	assert.Equal(t, []string{"l1", "l2"}, ids(repo.LessonsOf("u1"), func(l models.Lesson) string { return l.ID }))
	assert.Empty(t, repo.LessonsOf("missing"))

	e2, ok := repo.Event("e2")
	require.True(t, ok)
	require.NotNil(t, e2.Year)
	assert.Equal(t, -213, *e2.Year)
	assert.Equal(t, "公元前213年", e2.YearText)

	e4, ok := repo.Event("e4")
	require.True(t, ok)
	assert.Nil(t, e4.Year)
	assert.Equal(t, "秦朝末年", e4.YearText)

	var lessonsStatus, conceptsStatus FileStatus
	for _, f := range repo.Files() {
		switch f.Name {
		case FileLessons:
			lessonsStatus = f
		case FileConcepts:
			conceptsStatus = f
		}
	}
	assert.Equal(t, 3, lessonsStatus.Records)
	assert.Equal(t, 1, lessonsStatus.Skipped)
	assert.False(t, conceptsStatus.Present)
}

func TestLoadToleratesMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileLessons), []byte(`{"not": "a list"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileFigures), []byte(`[{"id":"f1","lesson_id":"l1","name":"孔子","description":"儒家创始人"}]`), 0o644))

	repo := Load(dir, nil)
	assert.Equal(t, 0, repo.Stats().Lessons)
	assert.Equal(t, 1, repo.Stats().Figures)

	for _, f := range repo.Files() {
		if f.Name == FileLessons {
			assert.True(t, f.Present)
			assert.Error(t, f.Err)
		}
	}
}

func TestLessonDetail(t *testing.T) {
	repo := loadFixture(t)

	detail, ok := repo.LessonDetail("l2")
	require.True(t, ok)
	assert.Equal(t, "第3课 秦统一多民族封建国家的建立", detail.Lesson.Title)
	require.NotNil(t, detail.Unit)
	assert.Equal(t, "u1", detail.Unit.ID)
	assert.Equal(t, []string{"e1", "e2", "e4"}, ids(detail.Events, func(e models.Event) string { return e.ID }))
	assert.Equal(t, []string{"f1", "f2"}, ids(detail.Figures, func(f models.Figure) string { return f.ID }))
	assert.NotNil(t, detail.Concepts)

	_, ok = repo.LessonDetail("nope")
	assert.False(t, ok)
}

func TestSearchRanksByWeightedBigramFrequency(t *testing.T) {
	repo := loadFixture(t)

	hits := repo.Search("秦朝", models.KindEvent, 10)
	require.Len(t, hits, 3)
	assert.Equal(t, []string{"e4", "e1", "e2"}, ids(hits, func(h models.SearchHit) string { return h.ID }))
	assert.Equal(t, 3.0, hits[0].Score)
	assert.Equal(t, 1.0, hits[1].Score)

	all := repo.Search("中央集权", models.KindAll, 10)
	assert.Equal(t, []string{"e1", "f1", "l2"}, ids(all, func(h models.SearchHit) string { return h.ID }))
	for _, h := range all {
		assert.Equal(t, 3.0, h.Score)
	}

	assert.Len(t, repo.Search("中央集权", models.KindAll, 2), 2)
	assert.Empty(t, repo.Search("   ", models.KindAll, 10))
	assert.Empty(t, repo.Search("集中央", models.KindAll, 10))
}

func TestSearchSingleRune(t *testing.T) {
	repo := loadFixture(t)
	hits := repo.Search("隋", models.KindLesson, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "l3", hits[0].ID)
}

func TestEventsInRange(t *testing.T) {
	repo := loadFixture(t)

	events := repo.EventsInRange(-300, 700, 0)
	assert.Equal(t, []string{"e1", "e2", "e3"}, ids(events, func(e models.Event) string { return e.ID }))

	swapped := repo.EventsInRange(700, -300, 2)
	assert.Equal(t, []string{"e1", "e2"}, ids(swapped, func(e models.Event) string { return e.ID }))
}

func TestSearchByTopicFiltersEventsByPeriod(t *testing.T) {
	repo := loadFixture(t)
	table := DefaultTopicTable()
	topic := models.Topic{Name: "测试", Keywords: []string{"秦朝", "科举制"}, Periods: []string{"秦汉"}}

	bundle := repo.SearchByTopic(topic, table.PeriodsOf(topic), DefaultTopicLimits)
	assert.Equal(t, []string{"e4", "e1", "e2"}, ids(bundle.Events, func(e models.Event) string { return e.ID }))
	assert.Contains(t, ids(bundle.Lessons, func(l models.Lesson) string { return l.ID }), "l3")
	assert.Equal(t, []string{"秦朝", "科举制"}, bundle.Keywords)

	capped := repo.SearchByTopic(topic, nil, TopicLimits{Lessons: 1, Events: 1, Figures: 1, Concepts: 1})
	assert.Len(t, capped.Events, 1)
	assert.Len(t, capped.Lessons, 1)
}

func TestLoadTopics(t *testing.T) {
	table, err := LoadTopics("")
	require.NoError(t, err)
	_, ok := table.Topic("中央集权制度")
	assert.True(t, ok)

	path := filepath.Join(t.TempDir(), "topics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
periods:
  - {name: 秦汉, start: -221, end: 220}
topics:
  - name: 中央集权制度
    description: 秦汉的制度创新
    keywords: [秦朝, 中央集权]
    periods: [秦汉]
`), 0o644))
	table, err = LoadTopics(path)
	require.NoError(t, err)
	topic, ok := table.Topic("中央集权制度")
	require.True(t, ok)
	assert.Equal(t, []string{"秦朝", "中央集权"}, topic.Keywords)
	require.Len(t, table.PeriodsOf(topic), 1)
	assert.Equal(t, -221, table.PeriodsOf(topic)[0].StartYear)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("topics:\n  - {name: x, keywords: [a], periods: [唐]}\n"), 0o644))
	_, err = LoadTopics(bad)
	assert.Error(t, err)
}

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("评价秦朝中央集权制度")
	assert.Contains(t, kws, "秦朝")
	assert.Contains(t, kws, "中央集权")

	kws = ExtractKeywords("分析秦朝统一中国的意义")
	assert.Equal(t, []string{"秦朝", "秦朝统一中国"}, kws)

	kws = ExtractKeywords("公元前221年发生了什么")
	assert.Equal(t, []string{"公元前221年"}, kws)

	kws = ExtractKeywords("北宋与南宋")
	assert.ElementsMatch(t, []string{"北宋", "南宋"}, kws)
}
