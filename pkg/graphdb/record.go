package graphdb

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Query is a named Cypher template. Labels are written as `:#Label` and get the
// deployment prefix at execution time; user input only travels through Params.
type Query struct {
	Name   string
	Cypher string
	Params map[string]any
}

// Record is one result row keyed by the RETURN aliases.
type Record map[string]any

func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (r Record) Bool(key string) bool {
	v, _ := r[key].(bool)
	return v
}

// Strings returns a list property, skipping non-string items.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// TimeLayout is the stored timestamp format. The fraction is fixed-width so
// string order matches time order, and the numeric offset keeps the first ten
// characters on the local calendar day.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t in local time for a query parameter. Zone names never
// reach the driver; the server only accepts IANA ids.
func FormatTime(t time.Time) string {
	return t.In(time.Local).Format(TimeLayout)
}

// timeLayouts covers values written by older deployments as plain strings.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time converts driver temporal values and legacy strings into local time.
func (r Record) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v.In(time.Local)
	case dbtype.LocalDateTime:
		return v.Time()
	case dbtype.Date:
		return v.Time()
	case string:
		raw := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				return t.In(time.Local)
			}
		}
	}
	return time.Time{}
}

// Map returns a nested map value such as a node's properties.
func (r Record) Map(key string) Record {
	switch v := r[key].(type) {
	case map[string]any:
		return Record(v)
	case dbtype.Node:
		return Record(v.Props)
	case dbtype.Relationship:
		return Record(v.Props)
	default:
		return Record{}
	}
}
