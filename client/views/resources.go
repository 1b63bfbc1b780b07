package views

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/persistorai/auditdesk/client"
)

var errReadOnly = errors.New("views: resource cannot be deleted here")

// Column renders one table cell for a row.
type Column[T any] struct {
	Header string
	Value  func(row *T) string
}

// Resource describes how one resource type is listed, shown and removed.
type Resource[T any] struct {
	// Route is the list page path, e.g. "/entities".
	Route   string
	Columns []Column[T]
	ID      func(row *T) string
	List    func(ctx context.Context) ([]T, error)
	Get     func(ctx context.Context, id string) (*T, error)
	Delete  func(ctx context.Context, id string) error
	// Detail overrides the default Route + "/" + id row page.
	Detail  func(id string) string
}

// DetailRoute returns the page path for one row.
func (r *Resource[T]) DetailRoute(id string) string {
	if r.Detail != nil {
		return r.Detail(id)
	}

	return r.Route + "/" + id
}

func str(p *string) string {
	if p == nil {
		return ""
	}

	return *p
}

// Entities describes the entity list and detail pages.
func Entities(c *client.Client) *Resource[client.Entity] {
	return &Resource[client.Entity]{
		Route: RouteEntities,
		Columns: []Column[client.Entity]{
			{Header: "ID", Value: func(e *client.Entity) string { return e.ID }},
			{Header: "NAME", Value: func(e *client.Entity) string { return e.Name }},
			{Header: "RISK", Value: func(e *client.Entity) string { return str(e.RiskLevel) }},
			{Header: "PARENT", Value: func(e *client.Entity) string { return str(e.ParentID) }},
		},
		ID:     func(e *client.Entity) string { return e.ID },
		List:   func(ctx context.Context) ([]client.Entity, error) { return c.Entities.List(ctx, nil) },
		Get:    c.Entities.Get,
		Delete: c.Entities.Delete,
	}
}

// Plans describes the plan list and detail pages.
func Plans(c *client.Client) *Resource[client.Plan] {
	return &Resource[client.Plan]{
		Route: RoutePlans,
		Columns: []Column[client.Plan]{
			{Header: "ID", Value: func(p *client.Plan) string { return p.ID }},
			{Header: "TITLE", Value: func(p *client.Plan) string { return p.Title }},
			{Header: "YEAR", Value: func(p *client.Plan) string { return strconv.Itoa(p.Year) }},
			{Header: "STATUS", Value: func(p *client.Plan) string { return p.Status }},
		},
		ID:     func(p *client.Plan) string { return p.ID },
		List:   func(ctx context.Context) ([]client.Plan, error) { return c.Plans.List(ctx, nil) },
		Get:    c.Plans.Get,
		Delete: c.Plans.Delete,
	}
}

// Audits describes the audit list and detail pages. Entity and plan names come
// joined from the server.
func Audits(c *client.Client) *Resource[client.Audit] {
	return &Resource[client.Audit]{
		Route: RouteAudits,
		Columns: []Column[client.Audit]{
			{Header: "ID", Value: func(a *client.Audit) string { return a.ID }},
			{Header: "TITLE", Value: func(a *client.Audit) string { return a.Title }},
			{Header: "STATUS", Value: func(a *client.Audit) string { return a.Status }},
			{Header: "ENTITY", Value: func(a *client.Audit) string {
				if a.Entity == nil {
					return a.EntityID
				}

				return a.Entity.Name
			}},
			{Header: "PLAN", Value: func(a *client.Audit) string {
				if a.Plan == nil {
					return ""
				}

				return a.Plan.Title
			}},
			{Header: "START", Value: func(a *client.Audit) string { return str(a.StartDate) }},
		},
		ID:     func(a *client.Audit) string { return a.ID },
		List:   func(ctx context.Context) ([]client.Audit, error) { return c.Audits.List(ctx, nil) },
		Get:    c.Audits.Get,
		Delete: c.Audits.Delete,
	}
}

// Findings describes the finding list and detail pages. When auditID is set
// the list is limited to that audit.
func Findings(c *client.Client, auditID string) *Resource[client.Finding] {
	return &Resource[client.Finding]{
		Route: RouteFindings,
		Columns: []Column[client.Finding]{
			{Header: "ID", Value: func(f *client.Finding) string { return f.ID }},
			{Header: "TITLE", Value: func(f *client.Finding) string { return f.Title }},
			{Header: "RISK", Value: func(f *client.Finding) string { return f.RiskLevel }},
			{Header: "STATUS", Value: func(f *client.Finding) string { return f.Status }},
			{Header: "AUDIT", Value: func(f *client.Finding) string {
				if f.Audit == nil {
					return f.AuditID
				}

				return f.Audit.Title
			}},
		},
		ID: func(f *client.Finding) string { return f.ID },
		List: func(ctx context.Context) ([]client.Finding, error) {
			if auditID != "" {
				return c.Audits.Findings(ctx, auditID)
			}

			return c.Findings.List(ctx, nil)
		},
		Get:    c.Findings.Get,
		Delete: c.Findings.Delete,
	}
}

// Recommendations describes the recommendations raised against one finding.
// They are shown on the finding's page.
func Recommendations(c *client.Client, findingID string) *Resource[client.Recommendation] {
	page := RouteFindings + "/" + findingID

	return &Resource[client.Recommendation]{
		Route:  page,
		Detail: func(string) string { return page },
		Columns: []Column[client.Recommendation]{
			{Header: "ID", Value: func(r *client.Recommendation) string { return r.ID }},
			{Header: "DESCRIPTION", Value: func(r *client.Recommendation) string { return r.Description }},
			{Header: "STATUS", Value: func(r *client.Recommendation) string { return r.Status }},
			{Header: "ASSIGNED", Value: func(r *client.Recommendation) string {
				if r.AssignedUser != nil {
					return r.AssignedUser.Email
				}

				return str(r.AssignedTo)
			}},
			{Header: "DUE", Value: func(r *client.Recommendation) string { return str(r.DueDate) }},
		},
		ID:     func(r *client.Recommendation) string { return r.ID },
		List:   func(ctx context.Context) ([]client.Recommendation, error) { return c.Recommendations.List(ctx, findingID) },
		Get:    c.Recommendations.Get,
		Delete: c.Recommendations.Delete,
	}
}

// Users describes the admin user list. Users are not deleted from the client.
func Users(c *client.Client) *Resource[client.User] {
	return &Resource[client.User]{
		Route: RouteAdminUsers,
		Columns: []Column[client.User]{
			{Header: "ID", Value: func(u *client.User) string { return u.ID }},
			{Header: "EMAIL", Value: func(u *client.User) string { return u.Email }},
			{Header: "NAME", Value: func(u *client.User) string { return str(u.FullName) }},
			{Header: "ROLE", Value: func(u *client.User) string { return u.Role }},
		},
		ID:   func(u *client.User) string { return u.ID },
		List: c.Users.List,
		Get: func(ctx context.Context, id string) (*client.User, error) {
			users, err := c.Users.List(ctx)
			if err != nil {
				return nil, err
			}

			for i := range users {
				if users[i].ID == id {
					return &users[i], nil
				}
			}

			return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "User not found"}
		},
	}
}

func entityOptions(c *client.Client) OptionLoader {
	return func(ctx context.Context) ([]Option, error) {
		rows, err := c.Entities.List(ctx, nil)
		if err != nil {
			return nil, err
		}

		opts := make([]Option, len(rows))
		for i, e := range rows {
			opts[i] = Option{Value: e.ID, Label: e.Name}
		}

		return opts, nil
	}
}

func planOptions(c *client.Client) OptionLoader {
	return func(ctx context.Context) ([]Option, error) {
		rows, err := c.Plans.List(ctx, nil)
		if err != nil {
			return nil, err
		}

		opts := make([]Option, len(rows))
		for i, p := range rows {
			opts[i] = Option{Value: p.ID, Label: p.Title + " (" + strconv.Itoa(p.Year) + ")"}
		}

		return opts, nil
	}
}

// EntityForm creates an entity, or edits one when id is set. The parent
// dropdown lists every entity.
func EntityForm(c *client.Client, id string) *FormView[client.Entity, client.EntityInput] {
	return &FormView[client.Entity, client.EntityInput]{
		ID:      id,
		load:    c.Entities.Get,
		create:  c.Entities.Create,
		update:  c.Entities.Update,
		refs:    map[string]OptionLoader{"parent_id": entityOptions(c)},
		backFor: func(*client.Entity) string { return RouteEntities },
	}
}

// PlanForm creates a plan, or edits one when id is set. The entities field
// lists every entity.
func PlanForm(c *client.Client, id string) *FormView[client.Plan, client.PlanInput] {
	return &FormView[client.Plan, client.PlanInput]{
		ID:      id,
		load:    c.Plans.Get,
		create:  c.Plans.Create,
		update:  c.Plans.Update,
		refs:    map[string]OptionLoader{"entities": entityOptions(c)},
		backFor: func(*client.Plan) string { return RoutePlans },
	}
}

// AuditForm creates an audit, or edits one when id is set. It offers every
// entity and plan as reference options.
func AuditForm(c *client.Client, id string) *FormView[client.Audit, client.AuditInput] {
	return &FormView[client.Audit, client.AuditInput]{
		ID:     id,
		load:   c.Audits.Get,
		create: c.Audits.Create,
		update: c.Audits.Update,
		refs: map[string]OptionLoader{
			"entity_id": entityOptions(c),
			"plan_id":   planOptions(c),
		},
		backFor: func(*client.Audit) string { return RouteAudits },
	}
}

// NewFindingForm raises a finding inside an audit and navigates back to it.
func NewFindingForm(c *client.Client, auditID string) *FormView[client.Finding, client.FindingInput] {
	return &FormView[client.Finding, client.FindingInput]{
		create: func(ctx context.Context, in *client.FindingInput) (*client.Finding, error) {
			return c.Audits.CreateFinding(ctx, auditID, in)
		},
		backFor: func(*client.Finding) string { return RouteAudits + "/" + auditID },
	}
}

// EditFindingForm edits a finding and navigates back to its audit.
func EditFindingForm(c *client.Client, id string) *FormView[client.Finding, client.FindingUpdate] {
	return &FormView[client.Finding, client.FindingUpdate]{
		ID:     id,
		load:   c.Findings.Get,
		update: c.Findings.Update,
		backFor: func(f *client.Finding) string {
			if f == nil || f.AuditID == "" {
				return RouteAudits
			}

			return RouteAudits + "/" + f.AuditID
		},
	}
}

// RecommendationForm adds a recommendation to a finding, or edits one when id
// is set. Either way it navigates back to the finding.
func RecommendationForm(c *client.Client, findingID, id string) *FormView[client.Recommendation, client.RecommendationInput] {
	return &FormView[client.Recommendation, client.RecommendationInput]{
		ID:   id,
		load: c.Recommendations.Get,
		create: func(ctx context.Context, in *client.RecommendationInput) (*client.Recommendation, error) {
			return c.Recommendations.Create(ctx, findingID, in)
		},
		update: c.Recommendations.Update,
		backFor: func(r *client.Recommendation) string {
			if findingID == "" && r != nil {
				return RouteFindings + "/" + r.FindingID
			}

			return RouteFindings + "/" + findingID
		},
	}
}
