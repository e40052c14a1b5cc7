package models

import "time"

// ReportScope selects what a learning report covers.
type ReportScope string

const (
	ScopeStudent ReportScope = "student"
	ScopeModule  ReportScope = "module"
	ScopeOverall ReportScope = "overall"
)

// Report is a generated Markdown learning report.
type Report struct {
	ID          string      `json:"id"`
	Scope       ReportScope `json:"scope"`
	Key         string      `json:"key,omitempty"`
	Markdown    string      `json:"markdown"`
	DownloadURL string      `json:"download_url,omitempty"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	Degraded    bool        `json:"degraded"`
	GeneratedAt time.Time   `json:"generated_at"`
}
