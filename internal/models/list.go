package models

// ListParams carries equality filters accepted by list endpoints.
type ListParams struct {
	Filters map[string]string
}

// Filter returns the value for key, or "" when absent.
func (p ListParams) Filter(key string) string {
	if p.Filters == nil {
		return ""
	}

	return p.Filters[key]
}

// Identifiable is implemented by every stored resource row.
type Identifiable interface {
	ResourceID() string
}

// ResourceID implements Identifiable.
func (e *Entity) ResourceID() string { return e.ID }

// ResourceID implements Identifiable.
func (p *Plan) ResourceID() string { return p.ID }

// ResourceID implements Identifiable.
func (a *Audit) ResourceID() string { return a.ID }

// ResourceID implements Identifiable.
func (f *Finding) ResourceID() string { return f.ID }

// ResourceID implements Identifiable.
func (r *Recommendation) ResourceID() string { return r.ID }
