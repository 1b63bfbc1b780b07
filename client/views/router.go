package views

import (
	"strings"

	"github.com/persistorai/auditdesk/client"
	"github.com/persistorai/auditdesk/client/session"
)

// Top-level routes.
const (
	RouteLogin      = "/login"
	RouteDashboard  = "/dashboard"
	RouteEntities   = "/entities"
	RoutePlans      = "/plans"
	RouteAudits     = "/audits"
	RouteFindings   = "/findings"
	RouteAdminUsers = "/admin/users"
)

// Page names a screen of the client.
type Page string

// Pages.
const (
	PageLoading           Page = "loading"
	PageLogin             Page = "login"
	PageDashboard         Page = "dashboard"
	PageEntityList        Page = "entity-list"
	PageEntityNew         Page = "entity-new"
	PageEntityEdit        Page = "entity-edit"
	PagePlanList          Page = "plan-list"
	PagePlanNew           Page = "plan-new"
	PagePlanEdit          Page = "plan-edit"
	PageAuditList         Page = "audit-list"
	PageAuditNew          Page = "audit-new"
	PageAuditDetail       Page = "audit-detail"
	PageAuditEdit         Page = "audit-edit"
	PageFindingList       Page = "finding-list"
	PageFindingNew        Page = "finding-new"
	PageFindingDetail     Page = "finding-detail"
	PageFindingEdit       Page = "finding-edit"
	PageRecommendationNew Page = "recommendation-new"
	PageAdminUsers        Page = "admin-users"
)

// Viewer is what the router needs to know about the caller.
// *session.Context implements it.
type Viewer interface {
	State() session.State
	HasRole(roles ...string) bool
}

// Resolution is the outcome of resolving a path. When Redirect is set the
// caller navigates there instead of rendering Page.
type Resolution struct {
	Page     Page
	Params   map[string]string
	Redirect string
}

type route struct {
	pattern []string
	page    Page
	public  bool
	roles   []string
}

// Router maps paths to pages and applies the sign-in and role guards.
type Router struct {
	routes []route
}

// NewRouter returns the client route map. Literal segments win over
// parameters because "new" routes are registered first.
func NewRouter() *Router {
	r := &Router{}

	r.add("/login", PageLogin, true)
	r.add("/dashboard", PageDashboard, false)

	r.add("/entities", PageEntityList, false)
	r.add("/entities/new", PageEntityNew, false)
	r.add("/entities/:id", PageEntityEdit, false)

	r.add("/plans", PagePlanList, false)
	r.add("/plans/new", PagePlanNew, false)
	r.add("/plans/:id", PagePlanEdit, false)

	r.add("/audits", PageAuditList, false)
	r.add("/audits/new", PageAuditNew, false)
	r.add("/audits/:id", PageAuditDetail, false)
	r.add("/audits/:id/edit", PageAuditEdit, false)
	r.add("/audits/:auditId/findings/new", PageFindingNew, false)

	r.add("/findings", PageFindingList, false)
	r.add("/findings/:id", PageFindingDetail, false)
	r.add("/findings/:id/edit", PageFindingEdit, false)
	r.add("/findings/:id/recommendations/new", PageRecommendationNew, false)

	r.add("/admin/users", PageAdminUsers, false, client.RoleAdmin)

	return r
}

func (r *Router) add(pattern string, page Page, public bool, roles ...string) {
	r.routes = append(r.routes, route{
		pattern: split(pattern),
		page:    page,
		public:  public,
		roles:   roles,
	})
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}

	return strings.Split(path, "/")
}

func (rt *route) match(segs []string) (map[string]string, bool) {
	if len(segs) != len(rt.pattern) {
		return nil, false
	}

	params := map[string]string{}

	for i, p := range rt.pattern {
		if name, ok := strings.CutPrefix(p, ":"); ok {
			params[name] = segs[i]
			continue
		}

		if p != segs[i] {
			return nil, false
		}
	}

	return params, true
}

// Resolve picks the page for path. While the session is still loading every
// protected path resolves to PageLoading. Signed-out callers are sent to
// /login, callers without an allowed role to /dashboard, and unknown paths to
// whichever of the two applies.
func (r *Router) Resolve(path string, v Viewer) Resolution {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	segs := split(path)
	state := v.State()

	for i := range r.routes {
		rt := &r.routes[i]

		params, ok := rt.match(segs)
		if !ok {
			continue
		}

		if rt.public {
			if rt.page == PageLogin && state == session.Authenticated {
				return Resolution{Redirect: RouteDashboard}
			}

			return Resolution{Page: rt.page, Params: params}
		}

		switch {
		case state == session.Loading:
			return Resolution{Page: PageLoading}
		case state != session.Authenticated:
			return Resolution{Redirect: RouteLogin}
		case len(rt.roles) > 0 && !v.HasRole(rt.roles...):
			return Resolution{Redirect: RouteDashboard}
		}

		return Resolution{Page: rt.page, Params: params}
	}

	switch state {
	case session.Loading:
		return Resolution{Page: PageLoading}
	case session.Authenticated:
		return Resolution{Redirect: RouteDashboard}
	default:
		return Resolution{Redirect: RouteLogin}
	}
}

// NavItem is one sidebar entry.
type NavItem struct {
	Label string
	Route string
}

var navItems = []struct {
	NavItem
	roles []string
}{
	{NavItem: NavItem{Label: "Dashboard", Route: RouteDashboard}},
	{NavItem: NavItem{Label: "Audit Universe", Route: RouteEntities}},
	{NavItem: NavItem{Label: "Audit Planning", Route: RoutePlans}},
	{NavItem: NavItem{Label: "Audits", Route: RouteAudits}},
	{NavItem: NavItem{Label: "Findings & Recommendations", Route: RouteFindings}},
	{NavItem: NavItem{Label: "User Management", Route: RouteAdminUsers}, roles: []string{client.RoleAdmin}},
}

// NavFor returns the sidebar entries visible to v. Signed-out callers get none.
func NavFor(v Viewer) []NavItem {
	if v.State() != session.Authenticated {
		return nil
	}

	items := make([]NavItem, 0, len(navItems))

	for _, it := range navItems {
		if len(it.roles) > 0 && !v.HasRole(it.roles...) {
			continue
		}

		items = append(items, it.NavItem)
	}

	return items
}

// CanDelete reports whether v's role may delete rows on the given list route,
// so the page can hide the action rather than surface a 403.
func CanDelete(route string, v Viewer) bool {
	roles, ok := deleteRoles[route]

	return ok && v.HasRole(roles...)
}

var deleteRoles = map[string][]string{
	RouteEntities: {client.RoleAdmin, client.RoleManager},
	RoutePlans:    {client.RoleAdmin},
	RouteAudits:   {client.RoleAdmin},
	RouteFindings: {client.RoleAdmin, client.RoleLead},
}
