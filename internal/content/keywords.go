package content

import (
	"regexp"
	"sort"
	"strings"
)

var (
	yearKeywordPattern = regexp.MustCompile(`(公元前|前)?\d{1,4}年`)
	dePhrasePattern    = regexp.MustCompile(`(\p{Han}{2,8})的`)
)

// Dictionaries used by ExtractKeywords.
var (
	dynastyTerms = []string{
		"夏朝", "商朝", "西周", "东周", "周朝", "春秋", "战国", "秦朝", "西汉", "东汉", "汉朝",
		"三国", "西晋", "东晋", "晋朝", "南北朝", "隋朝", "唐朝", "北宋", "南宋", "宋朝",
		"元朝", "明朝", "清朝", "中华民国",
	}
	historyTerms = []string{
		"中央集权", "君主专制", "郡县制", "分封制", "宗法制", "礼乐制度", "皇帝制度", "三省六部制",
		"科举制", "行省制度", "内阁", "军机处", "重农抑商", "闭关锁国", "百家争鸣", "儒家", "法家",
		"道家", "理学", "丝绸之路", "变法", "土地改革", "改革开放", "一国两制",
	}
	figureTerms = []string{
		"秦始皇", "汉武帝", "孔子", "孟子", "商鞅", "李斯", "张骞", "唐太宗", "武则天", "朱元璋",
		"郑和", "康熙", "乾隆", "林则徐", "曾国藩", "李鸿章", "康有为", "梁启超", "孙中山",
		"毛泽东", "邓小平",
	}
	eventTerms = []string{
		"商鞅变法", "焚书坑儒", "安史之乱", "鸦片战争", "洋务运动", "甲午战争", "戊戌变法",
		"义和团运动", "辛亥革命", "新文化运动", "五四运动", "北伐战争", "抗日战争", "解放战争",
	}
)

// Leading verbs stripped from 的-phrases: they start questions, not topics.
var questionVerbs = []string{"请评价", "请分析", "评价", "分析", "简述", "说明", "概括", "论述", "试述", "如何", "为什么", "谈谈"}

// ExtractKeywords pulls searchable keywords out of a free-text question:
// year expressions, dictionary hits and 2-8 character Han phrases before 的.
// The result keeps first-seen order without duplicates.
func ExtractKeywords(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		if len([]rune(kw)) < 2 {
			return
		}
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}

	for _, m := range yearKeywordPattern.FindAllString(text, -1) {
		add(m)
	}
	for _, dict := range [][]string{dynastyTerms, historyTerms, figureTerms, eventTerms} {
		matchDictionary(text, dict, add)
	}
	for _, m := range dePhrasePattern.FindAllStringSubmatch(text, -1) {
		add(stripQuestionVerb(m[1]))
	}
	return out
}

// matchDictionary reports dictionary words found in text, skipping words that
// are contained in a longer match from the same dictionary.
func matchDictionary(text string, dict []string, add func(string)) {
	terms := append([]string(nil), dict...)
	sort.SliceStable(terms, func(i, j int) bool { return len([]rune(terms[i])) > len([]rune(terms[j])) })
	var matched []string
	for _, term := range terms {
		if !strings.Contains(text, term) {
			continue
		}
		covered := false
		for _, m := range matched {
			if strings.Contains(m, term) {
				covered = true
				break
			}
		}
		if !covered {
			matched = append(matched, term)
			add(term)
		}
	}
}

func stripQuestionVerb(phrase string) string {
	for _, verb := range questionVerbs {
		if strings.HasPrefix(phrase, verb) {
			return strings.TrimPrefix(phrase, verb)
		}
	}
	return phrase
}
