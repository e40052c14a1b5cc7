package content

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	signedYearPattern  = regexp.MustCompile(`^[+-]?\d{1,4}$`)
	chineseYearPattern = regexp.MustCompile(`^约?(公元前|前|公元)?(\d{1,4})年(\d{1,2}月(\d{1,2}日)?)?$`)
)

// ParseYear converts year text into a signed year. BCE years are negative.
// Accepted forms: "公元前221年", "前221年", "221年", "1840年", "-221", "1840".
func ParseYear(text string) (int, bool) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return 0, false
	}
	if signedYearPattern.MatchString(raw) {
		year, err := strconv.Atoi(raw)
		return year, err == nil
	}
	m := chineseYearPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	if m[1] == "公元前" || m[1] == "前" {
		year = -year
	}
	return year, true
}

// FormatYear renders a signed year the way the content snapshot writes it.
func FormatYear(year int) string {
	if year < 0 {
		return "公元前" + strconv.Itoa(-year) + "年"
	}
	return strconv.Itoa(year) + "年"
}
