package graphdb

import (
	"context"
	"fmt"
	"strings"
)

// Bare labels used by the service. The deployment prefix is added on render.
const (
	LabelStudent  = "Student"
	LabelActivity = "Activity"
	LabelQuestion = "Question"
	LabelTextbook = "Textbook"
	LabelUnit     = "Unit"
	LabelLesson   = "Lesson"
	LabelEvent    = "Event"
	LabelFigure   = "Figure"
	LabelConcept  = "Concept"
)

// CoreLabels must exist for the activity and classroom features to work.
var CoreLabels = []string{LabelStudent, LabelActivity, LabelQuestion}

// ContentLabels are written by the content sync tool.
var ContentLabels = []string{LabelTextbook, LabelUnit, LabelLesson, LabelEvent, LabelFigure, LabelConcept}

// IndexSpec names one index or uniqueness constraint the service relies on.
type IndexSpec struct {
	Name     string
	Label    string
	Property string
	Unique   bool
}

// RequiredIndexes returns the schema objects for a prefix. Names embed the
// prefix so deployments sharing a store do not collide.
func RequiredIndexes(prefix string) []IndexSpec {
	name := func(label, prop string) string {
		return strings.ToLower(prefix + label + "_" + prop)
	}
	specs := []IndexSpec{
		{Name: name(LabelStudent, "student_id"), Label: LabelStudent, Property: "student_id", Unique: true},
		{Name: name(LabelQuestion, "id"), Label: LabelQuestion, Property: "id", Unique: true},
		{Name: name(LabelActivity, "timestamp"), Label: LabelActivity, Property: "timestamp"},
		{Name: name(LabelActivity, "module_name"), Label: LabelActivity, Property: "module_name"},
	}
	for _, label := range ContentLabels {
		specs = append(specs, IndexSpec{Name: name(label, "id"), Label: label, Property: "id", Unique: true})
	}
	return specs
}

func (s IndexSpec) createCypher() string {
	if s.Unique {
		return fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:#%s) REQUIRE n.%s IS UNIQUE", s.Name, s.Label, s.Property)
	}
	return fmt.Sprintf("CREATE INDEX %s IF NOT EXISTS FOR (n:#%s) ON (n.%s)", s.Name, s.Label, s.Property)
}

// EnsureSchema creates every missing index and constraint. Statements are
// idempotent, so this is safe on every start.
func EnsureSchema(ctx context.Context, r Runner) error {
	for _, spec := range RequiredIndexes(r.Prefix()) {
		if _, err := r.Write(ctx, Query{Name: "schema." + spec.Name, Cypher: spec.createCypher()}); err != nil {
			return err
		}
	}
	return nil
}

// Labels lists the labels present in the database.
func Labels(ctx context.Context, r Runner) ([]string, error) {
	rows, err := r.Read(ctx, Query{Name: "schema.labels", Cypher: "CALL db.labels() YIELD label RETURN label"})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.String("label"))
	}
	return out, nil
}

// IndexInfo is one row of SHOW INDEXES.
type IndexInfo struct {
	Name       string
	Labels     []string
	Properties []string
}

// Indexes lists the indexes known to the database, constraint-backed ones included.
func Indexes(ctx context.Context, r Runner) ([]IndexInfo, error) {
	rows, err := r.Read(ctx, Query{
		Name:   "schema.indexes",
		Cypher: "SHOW INDEXES YIELD name, labelsOrTypes, properties RETURN name, labelsOrTypes, properties",
	})
	if err != nil {
		return nil, err
	}
	out := make([]IndexInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, IndexInfo{
			Name:       row.String("name"),
			Labels:     row.Strings("labelsOrTypes"),
			Properties: row.Strings("properties"),
		})
	}
	return out, nil
}

// MissingIndexes compares the live index list against RequiredIndexes.
func MissingIndexes(prefix string, live []IndexInfo) []IndexSpec {
	have := make(map[string]struct{}, len(live))
	for _, idx := range live {
		for _, label := range idx.Labels {
			for _, prop := range idx.Properties {
				have[label+"."+prop] = struct{}{}
			}
		}
	}
	var missing []IndexSpec
	for _, spec := range RequiredIndexes(prefix) {
		if _, ok := have[prefix+spec.Label+"."+spec.Property]; !ok {
			missing = append(missing, spec)
		}
	}
	return missing
}
