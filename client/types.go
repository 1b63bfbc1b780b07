package client

import (
	"net/url"
	"strconv"
	"time"

	"github.com/persistorai/auditdesk/internal/models"
)

// Resource and payload types shared with the server.
type (
	Entity              = models.Entity
	EntityRef           = models.EntityRef
	EntityInput         = models.EntityInput
	Plan                = models.Plan
	PlanRef             = models.PlanRef
	PlanInput           = models.PlanInput
	Audit               = models.Audit
	AuditRef            = models.AuditRef
	AuditInput          = models.AuditInput
	TeamMember          = models.TeamMember
	TeamMemberInput     = models.TeamMemberInput
	Finding             = models.Finding
	FindingInput        = models.FindingInput
	FindingUpdate       = models.FindingUpdate
	Recommendation      = models.Recommendation
	RecommendationInput = models.RecommendationInput
	DashboardSummary    = models.DashboardSummary
	ActivityEntry       = models.ActivityEntry
)

// Account and session types shared with the server.
type (
	User                 = models.User
	UserRef              = models.UserRef
	Role                 = models.Role
	Session              = models.Session
	SessionEvent         = models.SessionEvent
	SignUpRequest        = models.SignUpRequest
	LoginRequest         = models.LoginRequest
	CreateUserRequest    = models.CreateUserRequest
	UpdateProfileRequest = models.UpdateProfileRequest
)

// Role names.
const (
	RoleAdmin    = models.RoleAdmin
	RoleManager  = models.RoleManager
	RoleLead     = models.RoleLead
	RoleAuditor  = models.RoleAuditor
	RoleMember   = models.RoleMember
	RoleReviewer = models.RoleReviewer
	RoleViewer   = models.RoleViewer
)

// Session event types.
const (
	SessionUpdated   = models.SessionUpdated
	SessionSignedOut = models.SessionSignedOut
)

// HealthResponse is the liveness check body.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyResponse is the readiness check body.
type ReadyResponse struct {
	Status        string            `json:"status"`
	SchemaVersion int               `json:"schema_version"`
	Checks        map[string]string `json:"checks"`
}

// ListOptions narrows a list request with equality filters such as audit_id.
type ListOptions struct {
	Filters map[string]string
}

func (o *ListOptions) values() url.Values {
	if o == nil || len(o.Filters) == 0 {
		return nil
	}

	v := url.Values{}
	for key, val := range o.Filters {
		if val != "" {
			v.Set(key, val)
		}
	}

	return v
}

// ActivityOptions filters an activity log query.
type ActivityOptions struct {
	ResourceType string
	ResourceID   string
	Action       string
	Actor        string
	Since        *time.Time
	Limit        int
	Offset       int
}

func (o *ActivityOptions) values() url.Values {
	if o == nil {
		return nil
	}

	v := url.Values{}

	for key, val := range map[string]string{
		"resource_type": o.ResourceType,
		"resource_id":   o.ResourceID,
		"action":        o.Action,
		"actor":         o.Actor,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}

	if o.Since != nil {
		v.Set("since", o.Since.UTC().Format(time.RFC3339))
	}

	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}

	if o.Offset > 0 {
		v.Set("offset", strconv.Itoa(o.Offset))
	}

	return v
}
