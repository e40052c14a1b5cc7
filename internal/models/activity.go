package models

import "time"

// Conventional activity types.
const (
	ActivityEnterModule  = "enter-module"
	ActivityViewContent  = "view-content"
	ActivitySubmitAnswer = "submit-answer"
	ActivitySaveNote     = "save-note"
	ActivityInteract     = "interact"
	ActivityGenerateAI   = "generate-ai"
)

const (
	// ModuleOther collects activities whose module is outside the configured tag set.
	ModuleOther = "other"
	// ModuleAssessment is the canonical name of the assessment module.
	ModuleAssessment = "知识点掌握评估"
	// LegacyModuleAssessment is the retired spelling of ModuleAssessment.
	LegacyModuleAssessment = "能力推荐"
)

// CanonicalModule maps legacy module spellings to their current name.
func CanonicalModule(name string) string {
	if name == LegacyModuleAssessment {
		return ModuleAssessment
	}
	return name
}

// Activity is one append-only learning event.
type Activity struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	ActivityType string    `json:"activity_type"`
	ModuleName   string    `json:"module_name"`
	ContentID    string    `json:"content_id,omitempty"`
	ContentName  string    `json:"content_name,omitempty"`
	Details      string    `json:"details,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// FieldMigrationResult counts nodes touched by the legacy field migration.
type FieldMigrationResult struct {
	ModuleRenamed int `json:"module_renamed"`
	TypeRenamed   int `json:"type_renamed"`
	TagsMigrated  int `json:"tags_migrated"`
}

// DeleteResult counts nodes removed by an admin operation.
type DeleteResult struct {
	Activities int `json:"activities"`
	Students   int `json:"students"`
}
