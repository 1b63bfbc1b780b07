package models

import (
	"strings"
	"time"
)

// Finding statuses.
const (
	FindingStatusDraft      = "draft"
	FindingStatusOpen       = "open"
	FindingStatusInProgress = "in_progress"
	FindingStatusClosed     = "closed"
	FindingStatusAccepted   = "accepted"
	FindingStatusFollowUp   = "follow_up"
)

// Recommendation statuses.
const (
	RecommendationStatusOpen        = "open"
	RecommendationStatusInProgress  = "in_progress"
	RecommendationStatusImplemented = "implemented"
	RecommendationStatusClosed      = "closed"
)

// Finding is an issue raised during an audit.
type Finding struct {
	ID              string           `json:"id"`
	AuditID         string           `json:"audit_id"`
	Title           string           `json:"title"`
	Description     *string          `json:"description"`
	RiskLevel       string           `json:"risk_level"`
	Status          string           `json:"status"`
	CreatedBy       *string          `json:"created_by"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Audit           *AuditRef        `json:"audit,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

// FindingSummary is the shallow finding embedded in audit details.
type FindingSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	RiskLevel string `json:"risk_level"`
	Status    string `json:"status"`
}

// FindingInput is the payload for creating a finding.
type FindingInput struct {
	AuditID     *string `json:"audit_id" validate:"omitempty,uuid"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	RiskLevel   *string `json:"risk_level" validate:"omitempty,oneof=low medium high critical"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft open in_progress closed accepted follow_up"`
}

// Validate checks required fields and enums on FindingInput.
func (r *FindingInput) Validate() error {
	r.AuditID = trimIDPtr(r.AuditID)
	r.Title = strings.TrimSpace(r.Title)
	r.RiskLevel = trimPtr(r.RiskLevel)
	r.Status = trimPtr(r.Status)

	if r.AuditID == nil || r.Title == "" {
		return NewValidationError("Audit ID and title are required")
	}

	if len(r.Title) > maxNameLen {
		return ErrFieldTooLong("title", maxNameLen)
	}

	if err := checkLen("description", r.Description, maxTextLen); err != nil {
		return err
	}

	return checkStruct(r)
}

// ApplyDefaults fills server-side defaults for a new finding.
func (r *FindingInput) ApplyDefaults() {
	if r.RiskLevel == nil {
		r.RiskLevel = Ptr(RiskMedium)
	}

	if r.Status == nil {
		r.Status = Ptr(FindingStatusDraft)
	}
}

// FindingUpdate is the payload for replacing a finding. A finding cannot move
// between audits.
type FindingUpdate struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	RiskLevel   *string `json:"risk_level" validate:"omitempty,oneof=low medium high critical"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft open in_progress closed accepted follow_up"`
}

// Validate checks required fields and enums on FindingUpdate.
func (r *FindingUpdate) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.RiskLevel = trimPtr(r.RiskLevel)
	r.Status = trimPtr(r.Status)

	if r.Title == "" {
		return NewValidationError("Title is required")
	}

	if len(r.Title) > maxNameLen {
		return ErrFieldTooLong("title", maxNameLen)
	}

	if err := checkLen("description", r.Description, maxTextLen); err != nil {
		return err
	}

	return checkStruct(r)
}

// Recommendation is a corrective action attached to a finding.
type Recommendation struct {
	ID           string    `json:"id"`
	FindingID    string    `json:"finding_id"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	AssignedTo   *string   `json:"assigned_to"`
	DueDate      *string   `json:"due_date"`
	CreatedBy    *string   `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	AssignedUser *UserRef  `json:"assigned_user,omitempty"`
}

// RecommendationInput is the payload for creating or replacing a recommendation.
// FindingID comes from the request path on create and is ignored on update.
type RecommendationInput struct {
	FindingID   string  `json:"-"`
	Description string  `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=open in_progress implemented closed"`
	AssignedTo  *string `json:"assigned_to" validate:"omitempty,uuid"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// Validate checks required fields and enums on RecommendationInput.
func (r *RecommendationInput) Validate() error {
	r.Description = strings.TrimSpace(r.Description)
	r.Status = trimPtr(r.Status)
	r.AssignedTo = trimIDPtr(r.AssignedTo)
	r.DueDate = trimPtr(r.DueDate)

	if r.Description == "" {
		return NewValidationError("Description is required")
	}

	if len(r.Description) > maxTextLen {
		return ErrFieldTooLong("description", maxTextLen)
	}

	return checkStruct(r)
}

// ApplyDefaults fills server-side defaults for a new recommendation.
func (r *RecommendationInput) ApplyDefaults() {
	if r.Status == nil {
		r.Status = Ptr(RecommendationStatusOpen)
	}
}
