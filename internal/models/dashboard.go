package models

// DashboardSummary holds the headline counters shown on the dashboard.
type DashboardSummary struct {
	Audits       int `json:"audits"`
	OpenFindings int `json:"open_findings"`
	Entities     int `json:"entities"`
	HighRisk     int `json:"high_risk"`
}
