// Package domain defines the canonical service interfaces consumed by the HTTP
// layer. Services implement them; handlers depend on them.
package domain

import (
	"context"
	"time"

	"github.com/persistorai/auditdesk/internal/models"
)

// Resource is the uniform CRUD contract served by the generic resource handler.
// T is the stored row, C the create payload and U the update payload.
type Resource[T, C, U any] interface {
	List(ctx context.Context, params models.ListParams) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, actorID string, in *C) (*T, error)
	Update(ctx context.Context, actorID, id string, in *U) (*T, error)
	Delete(ctx context.Context, actorID, id string) error
}

// EntityService manages auditable entities.
type EntityService interface {
	Resource[models.Entity, models.EntityInput, models.EntityInput]
}

// PlanService manages audit plans.
type PlanService interface {
	Resource[models.Plan, models.PlanInput, models.PlanInput]
}

// AuditService manages audits and their teams.
type AuditService interface {
	Resource[models.Audit, models.AuditInput, models.AuditInput]
	Exists(ctx context.Context, id string) error
	ListTeam(ctx context.Context, auditID string) ([]models.TeamMember, error)
	AssignTeamMember(ctx context.Context, actorID, auditID string, in models.TeamMemberInput) (*models.TeamMember, error)
	ReplaceTeam(ctx context.Context, actorID, auditID string, members []models.TeamMemberInput) ([]models.TeamMember, error)
	RemoveTeamMember(ctx context.Context, actorID, auditID, userID string) error
}

// FindingService manages findings. Findings cannot move between audits, so
// updates take a narrower payload.
type FindingService interface {
	Resource[models.Finding, models.FindingInput, models.FindingUpdate]
}

// RecommendationService manages recommendations attached to findings.
type RecommendationService interface {
	Resource[models.Recommendation, models.RecommendationInput, models.RecommendationInput]
}

// TokenVerifier turns a bearer token into the identity it was issued to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.Identity, error)
}

// RoleResolver returns the caller's primary role, "user" when none is assigned.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (string, error)
}

// AuthService covers sign-in, sessions, profiles and role administration.
type AuthService interface {
	TokenVerifier
	RoleResolver
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.Session, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.Session, error)
	Logout(ctx context.Context, ident models.Identity) error
	Session(ctx context.Context, ident models.Identity) (*models.Session, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, actorID string, req models.CreateUserRequest) (*models.User, error)
	AssignRole(ctx context.Context, actorID, userID string, roleID int) (*models.User, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
}

// DashboardService computes the dashboard counters.
type DashboardService interface {
	Summary(ctx context.Context) (*models.DashboardSummary, error)
}

// ActivityService queries and maintains the write-activity log.
type ActivityService interface {
	ActivityRecorder
	QueryActivity(ctx context.Context, opts models.ActivityQueryOpts) ([]models.ActivityEntry, bool, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// ActivityRecorder is the minimal interface for recording activity entries.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, action, resourceType, resourceID, actor string, detail map[string]any) error
}
