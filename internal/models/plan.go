package models

import (
	"strings"
	"time"
)

// Plan statuses.
const (
	PlanStatusDraft      = "draft"
	PlanStatusReview     = "review"
	PlanStatusApproved   = "approved"
	PlanStatusInProgress = "in_progress"
	PlanStatusCompleted  = "completed"
)

// Plan year bounds.
const (
	minPlanYear = 1900
	maxPlanYear = 2999
)

// Plan is an annual audit plan.
type Plan struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	Year            int       `json:"year"`
	Status          string    `json:"status"`
	ProjectName     *string   `json:"project_name"`
	AuditType       *string   `json:"audit_type"`
	Owner           *string   `json:"owner"`
	Location        *string   `json:"location"`
	Frequency       *string   `json:"frequency"`
	Processes       *string   `json:"processes"`
	Units           *string   `json:"units"`
	Personnel       []string  `json:"personnel"`
	Entities        []string  `json:"entities"`
	StartDate       *string   `json:"start_date"`
	EndDate         *string   `json:"end_date"`
	PeriodStartDate *string   `json:"period_start_date"`
	PeriodEndDate   *string   `json:"period_end_date"`
	CreatedBy       *string   `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PlanRef is the shallow plan embedded in audit listings.
type PlanRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Year  int    `json:"year"`
}

// PlanInput is the payload for creating or replacing a plan.
type PlanInput struct {
	Title           string   `json:"title"`
	Description     *string  `json:"description"`
	Year            *int     `json:"year"`
	Status          *string  `json:"status" validate:"omitempty,oneof=draft review approved in_progress completed"`
	ProjectName     *string  `json:"project_name"`
	AuditType       *string  `json:"audit_type" validate:"omitempty,oneof=risk-based compliance operational internal"`
	Owner           *string  `json:"owner"`
	Location        *string  `json:"location"`
	Frequency       *string  `json:"frequency" validate:"omitempty,oneof=quarterly bi-annually annually adhoc"`
	Processes       *string  `json:"processes"`
	Units           *string  `json:"units"`
	Personnel       []string `json:"personnel"`
	Entities        []string `json:"entities" validate:"dive,uuid"`
	StartDate       *string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate         *string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	PeriodStartDate *string  `json:"period_start_date" validate:"omitempty,datetime=2006-01-02"`
	PeriodEndDate   *string  `json:"period_end_date" validate:"omitempty,datetime=2006-01-02"`
}

// Validate checks required fields, enums, and date ranges on PlanInput.
func (r *PlanInput) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Status = trimPtr(r.Status)
	r.AuditType = trimPtr(r.AuditType)
	r.Frequency = trimPtr(r.Frequency)
	r.StartDate = trimPtr(r.StartDate)
	r.EndDate = trimPtr(r.EndDate)
	r.PeriodStartDate = trimPtr(r.PeriodStartDate)
	r.PeriodEndDate = trimPtr(r.PeriodEndDate)

	for i := range r.Entities {
		r.Entities[i] = strings.ToLower(strings.TrimSpace(r.Entities[i]))
	}

	if r.Title == "" || r.Year == nil {
		return NewValidationError("Title and year are required")
	}

	if *r.Year < minPlanYear || *r.Year > maxPlanYear {
		return NewValidationError("year must be between 1900 and 2999")
	}

	if len(r.Title) > maxNameLen {
		return ErrFieldTooLong("title", maxNameLen)
	}

	for field, v := range map[string]*string{
		"project_name": r.ProjectName,
		"owner":        r.Owner,
		"location":     r.Location,
	} {
		if err := checkLen(field, v, maxShortFieldLen); err != nil {
			return err
		}
	}

	if err := checkLen("description", r.Description, maxTextLen); err != nil {
		return err
	}

	if len(r.Personnel) > maxListFieldItems {
		return NewValidationError("personnel has too many entries")
	}

	if len(r.Entities) > maxListFieldItems {
		return NewValidationError("entities has too many entries")
	}

	if err := checkStruct(r); err != nil {
		return err
	}

	if err := checkDateOrder("start_date", r.StartDate, "end_date", r.EndDate); err != nil {
		return err
	}

	return checkDateOrder("period_start_date", r.PeriodStartDate, "period_end_date", r.PeriodEndDate)
}

// ApplyDefaults fills server-side defaults for a new plan.
func (r *PlanInput) ApplyDefaults() {
	if r.Status == nil {
		r.Status = Ptr(PlanStatusDraft)
	}
}
