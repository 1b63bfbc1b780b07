package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/persistorai/auditdesk/internal/dbpool"
	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/middleware"
	"github.com/persistorai/auditdesk/internal/models"
	"github.com/persistorai/auditdesk/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log             *logrus.Logger
	Pool            *dbpool.Pool
	Redis           Pinger
	Hub             *ws.Hub
	Entities        domain.EntityService
	Plans           domain.PlanService
	Audits          domain.AuditService
	Findings        domain.FindingService
	Recommendations domain.RecommendationService
	Auth            domain.AuthService
	Dashboard       domain.DashboardService
	Activity        domain.ActivityService
	CORSOrigins     []string
	TrustedProxies  []string
	ServiceName     string
	Tracing         bool
	Version         string
}

// Router-level limits.
const (
	rateLimit = 50  // requests per second per IP
	rateBurst = 100 // token bucket burst size
)

// Role groups used by the route table.
var (
	adminOnly      = []string{models.RoleAdmin}
	adminManager   = []string{models.RoleAdmin, models.RoleManager}
	adminLead      = []string{models.RoleAdmin, models.RoleLead}
	auditManagers  = []string{models.RoleAdmin, models.RoleManager, models.RoleLead}
	findingWriters = []string{models.RoleAdmin, models.RoleManager, models.RoleLead, models.RoleMember}
)

var (
	entityResource = resourceDescriptor{
		Path: "/entities", Name: "Entity", Kind: "entity",
		Roles: verbRoles{PublicRead: true, Create: anyRole, Update: anyRole, Delete: adminManager},
	}
	planResource = resourceDescriptor{
		Path: "/plans", Name: "Plan", Kind: "plan",
		Roles: verbRoles{Read: anyRole, Create: adminManager, Update: adminManager, Delete: adminOnly},
	}
	auditResource = resourceDescriptor{
		Path: "/audits", Name: "Audit", Kind: "audit",
		Roles: verbRoles{Read: anyRole, Create: auditManagers, Update: auditManagers, Delete: adminOnly},
	}
	findingResource = resourceDescriptor{
		Path: "/findings", Name: "Finding", Kind: "finding", Filters: []string{"audit_id"},
		Roles: verbRoles{Read: anyRole, Create: findingWriters, Update: findingWriters, Delete: adminLead},
	}
	recommendationResource = resourceDescriptor{
		Path: "/recommendations", Name: "Recommendation", Kind: "recommendation", Filters: []string{"finding_id"},
		Roles:        verbRoles{Read: anyRole, Update: findingWriters, Delete: adminLead},
		NestedCreate: true,
	}
)

// setupMiddleware configures the global middleware chain.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(deps.TrustedProxies) //nolint:errcheck // validated by config.
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	if deps.Tracing {
		r.Use(otelgin.Middleware(deps.ServiceName))
	}

	r.Use(ginLogger(deps.Log))
	r.Use(middleware.SecurityHeaders())

	// cors.New panics on an empty origin list; no origins means same-origin only.
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
			MaxAge:           1 * time.Hour,
			AllowCredentials: false,
		}))
	}

	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes mounts every /api route.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log
	authn := middleware.Authenticate(deps.Auth, log)

	health := NewHealthHandler(deps.Pool, deps.Redis, log, deps.Version)
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	api.Use(middleware.MaxBodySize(middleware.DefaultMaxBody))

	// Resources.
	NewResourceHandler(deps.Entities, entityResource, log).Register(api, authn)
	NewResourceHandler(deps.Plans, planResource, log).Register(api, authn)
	NewResourceHandler(deps.Audits, auditResource, log).Register(api, authn)
	NewResourceHandler(deps.Findings, findingResource, log).Register(api, authn)
	NewResourceHandler(deps.Recommendations, recommendationResource, log).Register(api, authn)

	// Audit team and findings.
	team := NewAuditTeamHandler(deps.Audits, deps.Findings, log)
	api.GET("/audits/:id/team", authn, team.ListTeam)
	api.POST("/audits/:id/team", authn, middleware.RequireRoles(auditManagers...), team.AssignTeamMember)
	api.PUT("/audits/:id/team", authn, middleware.RequireRoles(auditManagers...), team.ReplaceTeam)
	api.DELETE("/audits/:id/team/:userId", authn, middleware.RequireRoles(auditManagers...), team.RemoveTeamMember)
	api.GET("/audits/:id/findings", authn, team.ListFindings)
	api.POST("/audits/:id/findings", authn, middleware.RequireRoles(findingWriters...), team.CreateFinding)

	// Recommendations under a finding.
	recs := NewRecommendationHandler(deps.Findings, deps.Recommendations, log)
	api.GET("/findings/:id/recommendations", authn, recs.List)
	api.POST("/findings/:id/recommendations", authn, middleware.RequireRoles(findingWriters...), recs.Create)

	// Auth.
	auth := NewAuthHandler(deps.Auth, log)
	api.POST("/auth/signup", auth.SignUp)
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/logout", authn, auth.Logout)
	api.GET("/auth/session", authn, auth.Session)
	api.GET("/auth/profile", authn, auth.Profile)
	api.PUT("/auth/profile", authn, auth.UpdateProfile)
	api.GET("/auth/roles", authn, auth.ListRoles)
	api.GET("/auth/users", authn, middleware.RequireRoles(adminOnly...), auth.ListUsers)
	api.POST("/auth/users", authn, middleware.RequireRoles(adminOnly...), auth.CreateUser)
	api.POST("/auth/users/:id/role", authn, middleware.RequireRoles(adminOnly...), auth.AssignRole)

	if deps.Hub != nil {
		api.GET("/auth/events", authn, eventsHandler(ctx, log, deps.Hub, deps.Auth, deps.CORSOrigins))
	}

	// Dashboard and activity log.
	api.GET("/dashboard", authn, NewDashboardHandler(deps.Dashboard, log).Summary)
	api.GET("/activity", authn, middleware.RequireRoles(adminOnly...), NewActivityHandler(deps.Activity, log).Query)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api"), deps)

	return r
}
