package client

import (
	"context"
	"net/url"
)

// ResourceService is the CRUD surface shared by every auditdesk resource.
type ResourceService[T, C, U any] struct {
	c    *Client
	path string
}

func newResource[T, C, U any](c *Client, path string) *ResourceService[T, C, U] {
	return &ResourceService[T, C, U]{c: c, path: path}
}

// List returns all rows matching opts, which may be nil.
func (s *ResourceService[T, C, U]) List(ctx context.Context, opts *ListOptions) ([]T, error) {
	var rows []T
	if err := s.c.get(ctx, s.path, opts.values(), &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// Get returns one row by id.
func (s *ResourceService[T, C, U]) Get(ctx context.Context, id string) (*T, error) {
	var row T
	if err := s.c.get(ctx, s.path+"/"+url.PathEscape(id), nil, &row); err != nil {
		return nil, err
	}

	return &row, nil
}

// Create inserts a row.
func (s *ResourceService[T, C, U]) Create(ctx context.Context, in *C) (*T, error) {
	var row T
	if err := s.c.post(ctx, s.path, in, &row); err != nil {
		return nil, err
	}

	return &row, nil
}

// Update replaces a row.
func (s *ResourceService[T, C, U]) Update(ctx context.Context, id string, in *U) (*T, error) {
	var row T
	if err := s.c.put(ctx, s.path+"/"+url.PathEscape(id), in, &row); err != nil {
		return nil, err
	}

	return &row, nil
}

// Delete removes a row.
func (s *ResourceService[T, C, U]) Delete(ctx context.Context, id string) error {
	return s.c.del(ctx, s.path+"/"+url.PathEscape(id))
}

// EntityService handles entity operations.
type EntityService struct {
	*ResourceService[Entity, EntityInput, EntityInput]
}

// PlanService handles audit plan operations.
type PlanService struct {
	*ResourceService[Plan, PlanInput, PlanInput]
}

// AuditService handles audits and their team and findings.
type AuditService struct {
	*ResourceService[Audit, AuditInput, AuditInput]
}

// Team lists an audit's team members.
func (s *AuditService) Team(ctx context.Context, auditID string) ([]TeamMember, error) {
	var team []TeamMember
	if err := s.c.get(ctx, s.teamPath(auditID), nil, &team); err != nil {
		return nil, err
	}

	return team, nil
}

// AssignTeamMember adds one user to an audit's team.
func (s *AuditService) AssignTeamMember(ctx context.Context, auditID string, in *TeamMemberInput) (*TeamMember, error) {
	var tm TeamMember
	if err := s.c.post(ctx, s.teamPath(auditID), in, &tm); err != nil {
		return nil, err
	}

	return &tm, nil
}

// ReplaceTeam replaces an audit's whole team.
func (s *AuditService) ReplaceTeam(ctx context.Context, auditID string, members []TeamMemberInput) ([]TeamMember, error) {
	if members == nil {
		members = []TeamMemberInput{}
	}

	var team []TeamMember
	body := map[string][]TeamMemberInput{"team_members": members}

	if err := s.c.put(ctx, s.teamPath(auditID), body, &team); err != nil {
		return nil, err
	}

	return team, nil
}

// RemoveTeamMember removes one user from an audit's team.
func (s *AuditService) RemoveTeamMember(ctx context.Context, auditID, userID string) error {
	return s.c.del(ctx, s.teamPath(auditID)+"/"+url.PathEscape(userID))
}

// Findings lists the findings raised in one audit.
func (s *AuditService) Findings(ctx context.Context, auditID string) ([]Finding, error) {
	var rows []Finding
	if err := s.c.get(ctx, s.path+"/"+url.PathEscape(auditID)+"/findings", nil, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// CreateFinding raises a finding in one audit.
func (s *AuditService) CreateFinding(ctx context.Context, auditID string, in *FindingInput) (*Finding, error) {
	var f Finding
	if err := s.c.post(ctx, s.path+"/"+url.PathEscape(auditID)+"/findings", in, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

func (s *AuditService) teamPath(auditID string) string {
	return s.path + "/" + url.PathEscape(auditID) + "/team"
}

// FindingService handles findings.
type FindingService struct {
	*ResourceService[Finding, FindingInput, FindingUpdate]
}

// RecommendationService handles recommendations. They are listed and
// created under their finding.
type RecommendationService struct {
	res *ResourceService[Recommendation, RecommendationInput, RecommendationInput]
}

// List returns the recommendations of one finding.
func (s *RecommendationService) List(ctx context.Context, findingID string) ([]Recommendation, error) {
	var rows []Recommendation
	if err := s.res.c.get(ctx, findingPath(findingID), nil, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// Create adds a recommendation to a finding.
func (s *RecommendationService) Create(ctx context.Context, findingID string, in *RecommendationInput) (*Recommendation, error) {
	var r Recommendation
	if err := s.res.c.post(ctx, findingPath(findingID), in, &r); err != nil {
		return nil, err
	}

	return &r, nil
}

// Get returns one recommendation.
func (s *RecommendationService) Get(ctx context.Context, id string) (*Recommendation, error) {
	return s.res.Get(ctx, id)
}

// Update replaces a recommendation.
func (s *RecommendationService) Update(ctx context.Context, id string, in *RecommendationInput) (*Recommendation, error) {
	return s.res.Update(ctx, id, in)
}

// Delete removes a recommendation.
func (s *RecommendationService) Delete(ctx context.Context, id string) error {
	return s.res.Delete(ctx, id)
}

func findingPath(findingID string) string {
	return "/api/findings/" + url.PathEscape(findingID) + "/recommendations"
}
