package api_test

import (
	"context"
	"sync"
	"time"

	"github.com/persistorai/auditdesk/internal/models"
)

// mockResource implements domain.Resource with function fields. Unset
// functions behave like an empty store.
type mockResource[T, C, U any] struct {
	mu       sync.Mutex
	actors   []string
	listFn   func(ctx context.Context, params models.ListParams) ([]T, error)
	getFn    func(ctx context.Context, id string) (*T, error)
	createFn func(ctx context.Context, in *C) (*T, error)
	updateFn func(ctx context.Context, id string, in *U) (*T, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockResource[T, C, U]) record(actor string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors = append(m.actors, actor)
}

func (m *mockResource[T, C, U]) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.actors)
}

func (m *mockResource[T, C, U]) List(ctx context.Context, params models.ListParams) ([]T, error) {
	if m.listFn == nil {
		return nil, nil
	}

	return m.listFn(ctx, params)
}

func (m *mockResource[T, C, U]) Get(ctx context.Context, id string) (*T, error) {
	if m.getFn == nil {
		return nil, models.ErrNotFound
	}

	return m.getFn(ctx, id)
}

func (m *mockResource[T, C, U]) Create(ctx context.Context, actorID string, in *C) (*T, error) {
	m.record(actorID)

	if m.createFn == nil {
		return new(T), nil
	}

	return m.createFn(ctx, in)
}

func (m *mockResource[T, C, U]) Update(ctx context.Context, actorID, id string, in *U) (*T, error) {
	m.record(actorID)

	if m.updateFn == nil {
		return new(T), nil
	}

	return m.updateFn(ctx, id, in)
}

func (m *mockResource[T, C, U]) Delete(ctx context.Context, actorID, id string) error {
	m.record(actorID)

	if m.deleteFn == nil {
		return nil
	}

	return m.deleteFn(ctx, id)
}

// mockAudits adds the team operations to the generic audit mock.
type mockAudits struct {
	mockResource[models.Audit, models.AuditInput, models.AuditInput]
	assignFn  func(ctx context.Context, auditID string, in models.TeamMemberInput) (*models.TeamMember, error)
	replaceFn func(ctx context.Context, auditID string, members []models.TeamMemberInput) ([]models.TeamMember, error)
	removeFn  func(ctx context.Context, auditID, userID string) error
	team      []models.TeamMember
}

// Exists reports existence through getFn so tests configure one lookup.
func (m *mockAudits) Exists(ctx context.Context, id string) error {
	_, err := m.Get(ctx, id)
	return err
}

func (m *mockAudits) ListTeam(_ context.Context, _ string) ([]models.TeamMember, error) {
	return m.team, nil
}

func (m *mockAudits) AssignTeamMember(ctx context.Context, _, auditID string, in models.TeamMemberInput) (*models.TeamMember, error) {
	return m.assignFn(ctx, auditID, in)
}

func (m *mockAudits) ReplaceTeam(ctx context.Context, _, auditID string, members []models.TeamMemberInput) ([]models.TeamMember, error) {
	return m.replaceFn(ctx, auditID, members)
}

func (m *mockAudits) RemoveTeamMember(ctx context.Context, _, auditID, userID string) error {
	if m.removeFn == nil {
		return nil
	}

	return m.removeFn(ctx, auditID, userID)
}

// mockAuth implements domain.AuthService. Tokens map to identities whose
// role is resolved from roles on every request.
type mockAuth struct {
	tokens    map[string]string
	roles     map[string]string
	loginFn   func(ctx context.Context, req models.LoginRequest) (*models.Session, error)
	signUpFn  func(ctx context.Context, req models.SignUpRequest) (*models.Session, error)
	assignFn  func(ctx context.Context, userID string, roleID int) (*models.User, error)
	users     []models.User
	loggedOut []string
}

func newMockAuth() *mockAuth {
	m := &mockAuth{tokens: map[string]string{}, roles: map[string]string{}}

	for token, role := range map[string]string{
		adminToken:   models.RoleAdmin,
		managerToken: models.RoleManager,
		leadToken:    models.RoleLead,
		memberToken:  models.RoleMember,
		viewerToken:  models.RoleViewer,
		noRoleToken:  "",
	} {
		userID := "user-" + token
		m.tokens[token] = userID

		if role != "" {
			m.roles[userID] = role
		}
	}

	return m
}

func (m *mockAuth) VerifyToken(_ context.Context, token string) (*models.Identity, error) {
	id, ok := m.tokens[token]
	if !ok {
		return nil, models.ErrInvalidToken
	}

	return &models.Identity{ID: id, Email: id + "@example.com", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *mockAuth) ResolveRole(_ context.Context, userID string) (string, error) {
	if r, ok := m.roles[userID]; ok {
		return r, nil
	}

	return models.RoleUser, nil
}

func (m *mockAuth) SignUp(ctx context.Context, req models.SignUpRequest) (*models.Session, error) {
	return m.signUpFn(ctx, req)
}

func (m *mockAuth) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuth) Logout(_ context.Context, ident models.Identity) error {
	m.loggedOut = append(m.loggedOut, ident.ID)
	return nil
}

func (m *mockAuth) Session(_ context.Context, ident models.Identity) (*models.Session, error) {
	return &models.Session{ExpiresAt: ident.ExpiresAt, User: &models.User{ID: ident.ID, Email: ident.Email}}, nil
}

func (m *mockAuth) Profile(_ context.Context, userID string) (*models.User, error) {
	return &models.User{ID: userID, Role: m.roles[userID]}, nil
}

func (m *mockAuth) UpdateProfile(_ context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	return &models.User{ID: userID, Email: req.Email, FullName: req.FullName}, nil
}

func (m *mockAuth) ListUsers(context.Context) ([]models.User, error) {
	return m.users, nil
}

func (m *mockAuth) CreateUser(_ context.Context, _ string, req models.CreateUserRequest) (*models.User, error) {
	return &models.User{ID: testUserID, Email: req.Email, Role: req.RoleName()}, nil
}

func (m *mockAuth) AssignRole(ctx context.Context, _, userID string, roleID int) (*models.User, error) {
	return m.assignFn(ctx, userID, roleID)
}

func (m *mockAuth) ListRoles(context.Context) ([]models.Role, error) {
	return []models.Role{{ID: 1, Name: models.RoleAdmin, Permissions: []string{"*"}}}, nil
}

type dashboardStub struct{}

func (dashboardStub) Summary(context.Context) (*models.DashboardSummary, error) {
	return &models.DashboardSummary{Audits: 3, OpenFindings: 2, Entities: 5, HighRisk: 1}, nil
}

// mockActivity implements domain.ActivityService.
type mockActivity struct {
	lastOpts models.ActivityQueryOpts
}

func (m *mockActivity) RecordActivity(context.Context, string, string, string, string, map[string]any) error {
	return nil
}

func (m *mockActivity) QueryActivity(_ context.Context, opts models.ActivityQueryOpts) ([]models.ActivityEntry, bool, error) {
	m.lastOpts = opts
	return []models.ActivityEntry{{ID: 1, Action: "entity.create", ResourceType: "entity"}}, false, nil
}

func (m *mockActivity) PurgeOlderThan(context.Context, time.Time) (int, error) {
	return 0, nil
}
