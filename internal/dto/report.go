package dto

// ReportRequest asks for a generated learning report.
type ReportRequest struct {
	Scope string `json:"scope" validate:"required,oneof=student module overall"`
	Key   string `json:"key" validate:"required_unless=Scope overall,max=64"`
}

// ExportQuery selects the activity export format.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
