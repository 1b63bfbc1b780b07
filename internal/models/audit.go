package models

import (
	"strings"
	"time"
)

// Audit statuses.
const (
	AuditStatusPlanned    = "planned"
	AuditStatusDraft      = "draft"
	AuditStatusInProgress = "in_progress"
	AuditStatusReview     = "review"
	AuditStatusCompleted  = "completed"
	AuditStatusFollowUp   = "follow_up"
	AuditStatusCancelled  = "cancelled"
)

// Audit is a single engagement against an entity, optionally under a plan.
type Audit struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Status      string           `json:"status"`
	StartDate   *string          `json:"start_date"`
	EndDate     *string          `json:"end_date"`
	EntityID    string           `json:"entity_id"`
	PlanID      *string          `json:"plan_id"`
	CreatedBy   *string          `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Plan        *PlanRef         `json:"plan,omitempty"`
	Entity      *EntityRef       `json:"entity,omitempty"`
	TeamMembers []TeamMember     `json:"team_members"`
	Findings    []FindingSummary `json:"findings"`
}

// AuditRef is the shallow audit embedded in finding listings.
type AuditRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TeamMember links a user to an audit with an engagement role.
type TeamMember struct {
	ID        string    `json:"id"`
	AuditID   string    `json:"audit_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	User      *UserRef  `json:"user,omitempty"`
}

// AuditInput is the payload for creating or replacing an audit.
// TeamMembers is honoured on create only.
type AuditInput struct {
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Status      *string           `json:"status" validate:"omitempty,oneof=planned draft in_progress review completed follow_up cancelled"`
	StartDate   *string           `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string           `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	EntityID    *string           `json:"entity_id" validate:"omitempty,uuid"`
	PlanID      *string           `json:"plan_id" validate:"omitempty,uuid"`
	TeamMembers []TeamMemberInput `json:"team_members"`
}

// Validate checks required fields, enums, and the date range on AuditInput.
func (r *AuditInput) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Status = trimPtr(r.Status)
	r.StartDate = trimPtr(r.StartDate)
	r.EndDate = trimPtr(r.EndDate)
	r.EntityID = trimIDPtr(r.EntityID)
	r.PlanID = trimIDPtr(r.PlanID)

	if r.Title == "" || r.EntityID == nil {
		return NewValidationError("Title and entity_id are required")
	}

	if len(r.Title) > maxNameLen {
		return ErrFieldTooLong("title", maxNameLen)
	}

	if err := checkLen("description", r.Description, maxTextLen); err != nil {
		return err
	}

	if err := checkStruct(r); err != nil {
		return err
	}

	if err := checkDateOrder("start_date", r.StartDate, "end_date", r.EndDate); err != nil {
		return err
	}

	return validateTeam(r.TeamMembers)
}

// ApplyDefaults fills server-side defaults for a new audit.
func (r *AuditInput) ApplyDefaults() {
	if r.Status == nil {
		r.Status = Ptr(AuditStatusPlanned)
	}
}

// TeamMemberInput assigns one user to an audit.
type TeamMemberInput struct {
	UserID string `json:"user_id" validate:"omitempty,uuid"`
	Role   string `json:"role"`
}

// Validate checks required fields on TeamMemberInput.
func (r *TeamMemberInput) Validate() error {
	r.UserID = strings.ToLower(strings.TrimSpace(r.UserID))
	r.Role = strings.TrimSpace(r.Role)

	if r.UserID == "" || r.Role == "" {
		return NewValidationError("User ID and role are required")
	}

	if len(r.Role) > maxNameLen {
		return ErrFieldTooLong("role", maxNameLen)
	}

	return checkStruct(r)
}

// TeamInput replaces an audit's whole team.
type TeamInput struct {
	TeamMembers *[]TeamMemberInput `json:"team_members"`
}

// Validate checks that the team list is present and well formed.
func (r *TeamInput) Validate() error {
	if r.TeamMembers == nil {
		return NewValidationError("Valid team_members array is required")
	}

	return validateTeam(*r.TeamMembers)
}

func validateTeam(members []TeamMemberInput) error {
	seen := make(map[string]struct{}, len(members))

	for i := range members {
		if err := members[i].Validate(); err != nil {
			return err
		}

		key := members[i].UserID
		if _, dup := seen[key]; dup {
			return NewValidationError("team_members contains duplicate user_id")
		}

		seen[key] = struct{}{}
	}

	return nil
}
