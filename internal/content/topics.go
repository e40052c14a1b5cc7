package content

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/lakgs-api/internal/models"
)

// TopicTable maps named topics to keyword seeds and eligible periods.
type TopicTable struct {
	Periods []models.Period `yaml:"periods"`
	Topics  []models.Topic  `yaml:"topics"`
}

// TopicLimits truncates topic search results per kind.
type TopicLimits struct {
	Lessons  int
	Events   int
	Figures  int
	Concepts int
}

// DefaultTopicLimits are the per-kind caps applied to topic searches.
var DefaultTopicLimits = TopicLimits{Lessons: 15, Events: 20, Figures: 15, Concepts: 15}

// LoadTopics reads a YAML topic table. An empty path yields DefaultTopicTable.
func LoadTopics(path string) (TopicTable, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTopicTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return TopicTable{}, fmt.Errorf("read topic table: %w", err)
	}
	var table TopicTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return TopicTable{}, fmt.Errorf("parse topic table: %w", err)
	}
	if err := table.validate(); err != nil {
		return TopicTable{}, err
	}
	return table, nil
}

func (t TopicTable) validate() error {
	periods := make(map[string]struct{}, len(t.Periods))
	for _, p := range t.Periods {
		if p.Name == "" || p.StartYear > p.EndYear {
			return fmt.Errorf("topic table: invalid period %q", p.Name)
		}
		periods[p.Name] = struct{}{}
	}
	seen := map[string]struct{}{}
	for _, topic := range t.Topics {
		if topic.Name == "" || len(topic.Keywords) == 0 {
			return fmt.Errorf("topic table: topic %q needs a name and keywords", topic.Name)
		}
		if _, dup := seen[topic.Name]; dup {
			return fmt.Errorf("topic table: duplicate topic %q", topic.Name)
		}
		seen[topic.Name] = struct{}{}
		for _, name := range topic.Periods {
			if _, ok := periods[name]; !ok {
				return fmt.Errorf("topic table: topic %q references unknown period %q", topic.Name, name)
			}
		}
	}
	return nil
}

// Topic looks up a topic by name.
func (t TopicTable) Topic(name string) (models.Topic, bool) {
	for _, topic := range t.Topics {
		if topic.Name == name {
			return topic, true
		}
	}
	return models.Topic{}, false
}

// PeriodsOf resolves a topic's period names.
func (t TopicTable) PeriodsOf(topic models.Topic) []models.Period {
	out := make([]models.Period, 0, len(topic.Periods))
	for _, name := range topic.Periods {
		for _, p := range t.Periods {
			if p.Name == name {
				out = append(out, p)
			}
		}
	}
	return out
}

// SearchByTopic unions keyword matches per kind. Events with a known year must
// fall inside one of the periods; events without a year are kept.
func (r *Repository) SearchByTopic(topic models.Topic, periods []models.Period, limits TopicLimits) models.KnowledgeBundle {
	perKeyword := len(r.docs)
	var hits []models.SearchHit
	for _, kw := range topic.Keywords {
		hits = append(hits, r.Search(kw, models.KindAll, perKeyword)...)
	}
	bundle := r.Bundle(hits)

	if len(periods) > 0 {
		kept := bundle.Events[:0]
		for _, e := range bundle.Events {
			if e.Year == nil || inAnyPeriod(*e.Year, periods) {
				kept = append(kept, e)
			}
		}
		bundle.Events = kept
	}

	bundle.Keywords = append([]string(nil), topic.Keywords...)
	bundle.Lessons = truncate(bundle.Lessons, limits.Lessons)
	bundle.Events = truncate(bundle.Events, limits.Events)
	bundle.Figures = truncate(bundle.Figures, limits.Figures)
	bundle.Concepts = truncate(bundle.Concepts, limits.Concepts)
	return bundle
}

func inAnyPeriod(year int, periods []models.Period) bool {
	for _, p := range periods {
		if p.Contains(year) {
			return true
		}
	}
	return false
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// DefaultTopicTable is the history deployment's built-in table.
func DefaultTopicTable() TopicTable {
	return TopicTable{
		Periods: []models.Period{
			{Name: "先秦", StartYear: -2070, EndYear: -222},
			{Name: "秦汉", StartYear: -221, EndYear: 220},
			{Name: "魏晋南北朝", StartYear: 220, EndYear: 589},
			{Name: "隋唐", StartYear: 581, EndYear: 907},
			{Name: "宋元", StartYear: 960, EndYear: 1368},
			{Name: "明清", StartYear: 1368, EndYear: 1840},
			{Name: "晚清", StartYear: 1840, EndYear: 1911},
			{Name: "民国", StartYear: 1912, EndYear: 1949},
			{Name: "现代", StartYear: 1949, EndYear: 2100},
		},
		Topics: []models.Topic{
			{
				Name:        "中央集权制度",
				Description: "从秦朝建立皇帝制度、郡县制到明清君主专制的强化",
				Keywords:    []string{"中央集权", "秦朝", "郡县制", "皇帝", "三省六部", "行省", "君主专制", "军机处"},
				Periods:     []string{"秦汉", "隋唐", "宋元", "明清"},
			},
			{
				Name:        "思想文化",
				Description: "百家争鸣与儒学的发展",
				Keywords:    []string{"百家争鸣", "儒家", "孔子", "法家", "道家", "理学"},
				Periods:     []string{"先秦", "秦汉", "宋元", "明清"},
			},
			{
				Name:        "中外交流",
				Description: "丝绸之路与海上交往",
				Keywords:    []string{"丝绸之路", "张骞", "郑和", "遣唐使"},
				Periods:     []string{"秦汉", "隋唐", "明清"},
			},
			{
				Name:        "近代化探索",
				Description: "晚清至民国的救亡图存与近代化道路",
				Keywords:    []string{"洋务运动", "戊戌变法", "辛亥革命", "新文化运动", "维新"},
				Periods:     []string{"晚清", "民国"},
			},
			{
				Name:        "反侵略斗争",
				Description: "近代以来反抗外来侵略的斗争",
				Keywords:    []string{"鸦片战争", "甲午", "抗日", "八国联军"},
				Periods:     []string{"晚清", "民国"},
			},
			{
				Name:        "改革与发展",
				Description: "新中国的建设与改革开放",
				Keywords:    []string{"改革开放", "新中国", "社会主义建设"},
				Periods:     []string{"现代"},
			},
		},
	}
}
