// Package models defines data types for auditdesk resources.
package models

import (
	"strings"
	"time"
)

// Risk levels for auditable entities.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Entity is an auditable unit or business area; entities form a tree via ParentID.
type Entity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	RiskLevel   *string   `json:"risk_level"`
	ParentID    *string   `json:"parent_id"`
	CreatedBy   *string   `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EntityRef is the shallow entity embedded in audit listings.
type EntityRef struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	RiskLevel *string `json:"risk_level"`
}

// EntityInput is the payload for creating or replacing an entity.
type EntityInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	RiskLevel   *string `json:"risk_level" validate:"omitempty,oneof=low medium high"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
}

// Validate checks required fields and enum values on EntityInput.
// An empty risk_level or parent_id is treated as null.
func (r *EntityInput) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.RiskLevel = trimPtr(r.RiskLevel)
	r.ParentID = trimIDPtr(r.ParentID)

	if r.Name == "" {
		return NewValidationError("Name is required")
	}

	if len(r.Name) > maxNameLen {
		return ErrFieldTooLong("name", maxNameLen)
	}

	if err := checkLen("description", r.Description, maxTextLen); err != nil {
		return err
	}

	return checkStruct(r)
}
