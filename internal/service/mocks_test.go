package service

import (
	"context"
	"sync"
	"time"

	"github.com/persistorai/auditdesk/internal/models"
)

// callLog records method names in call order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) called(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range l.calls {
		if c == name {
			return true
		}
	}

	return false
}

// mockEntityStore records calls and returns configured responses.
type mockEntityStore struct {
	callLog

	getEntity    func(ctx context.Context, id string) (*models.Entity, error)
	createEntity func(ctx context.Context, actorID string, in *models.EntityInput) (*models.Entity, error)
	updateEntity func(ctx context.Context, id string, in *models.EntityInput) (*models.Entity, error)
	deleteEntity func(ctx context.Context, id string) error
}

func (m *mockEntityStore) ListEntities(_ context.Context) ([]models.Entity, error) {
	m.record("ListEntities")
	return nil, nil
}

func (m *mockEntityStore) GetEntity(ctx context.Context, id string) (*models.Entity, error) {
	m.record("GetEntity")
	return m.getEntity(ctx, id)
}

func (m *mockEntityStore) CreateEntity(ctx context.Context, actorID string, in *models.EntityInput) (*models.Entity, error) {
	m.record("CreateEntity")
	return m.createEntity(ctx, actorID, in)
}

func (m *mockEntityStore) UpdateEntity(ctx context.Context, id string, in *models.EntityInput) (*models.Entity, error) {
	m.record("UpdateEntity")
	return m.updateEntity(ctx, id, in)
}

func (m *mockEntityStore) DeleteEntity(ctx context.Context, id string) error {
	m.record("DeleteEntity")
	return m.deleteEntity(ctx, id)
}

// mockFindingStore records calls and returns configured responses.
type mockFindingStore struct {
	callLog

	listFindings         func(ctx context.Context, auditID string) ([]models.Finding, error)
	createFinding        func(ctx context.Context, actorID string, in *models.FindingInput) (*models.Finding, error)
	listRecommendations  func(ctx context.Context, findingID string) ([]models.Recommendation, error)
	createRecommendation func(ctx context.Context, actorID string, in *models.RecommendationInput) (*models.Recommendation, error)
}

func (m *mockFindingStore) ListFindings(ctx context.Context, auditID string) ([]models.Finding, error) {
	m.record("ListFindings")
	return m.listFindings(ctx, auditID)
}

func (m *mockFindingStore) GetFinding(_ context.Context, _ string) (*models.Finding, error) {
	m.record("GetFinding")
	return nil, models.ErrFindingNotFound
}

func (m *mockFindingStore) CreateFinding(ctx context.Context, actorID string, in *models.FindingInput) (*models.Finding, error) {
	m.record("CreateFinding")
	return m.createFinding(ctx, actorID, in)
}

func (m *mockFindingStore) UpdateFinding(_ context.Context, _ string, _ *models.FindingUpdate) (*models.Finding, error) {
	m.record("UpdateFinding")
	return nil, models.ErrFindingNotFound
}

func (m *mockFindingStore) DeleteFinding(_ context.Context, _ string) error {
	m.record("DeleteFinding")
	return nil
}

func (m *mockFindingStore) ListRecommendations(ctx context.Context, findingID string) ([]models.Recommendation, error) {
	m.record("ListRecommendations")
	return m.listRecommendations(ctx, findingID)
}

func (m *mockFindingStore) GetRecommendation(_ context.Context, _ string) (*models.Recommendation, error) {
	m.record("GetRecommendation")
	return nil, models.ErrRecommendationNotFound
}

func (m *mockFindingStore) CreateRecommendation(ctx context.Context, actorID string, in *models.RecommendationInput) (*models.Recommendation, error) {
	m.record("CreateRecommendation")
	return m.createRecommendation(ctx, actorID, in)
}

func (m *mockFindingStore) UpdateRecommendation(_ context.Context, _ string, _ *models.RecommendationInput) (*models.Recommendation, error) {
	m.record("UpdateRecommendation")
	return nil, models.ErrRecommendationNotFound
}

func (m *mockFindingStore) DeleteRecommendation(_ context.Context, _ string) error {
	m.record("DeleteRecommendation")
	return nil
}

// mockUserStore is an in-memory UserStore.
type mockUserStore struct {
	callLog

	users  map[string]*models.User
	hashes map[string]string // email -> hash
	events []models.SessionEvent

	assignRole func(ctx context.Context, userID string, roleID int) (*models.User, error)
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: map[string]*models.User{}, hashes: map[string]string{}}
}

func (m *mockUserStore) CreateAccount(_ context.Context, email, hash string, fullName *string, roleName string) (*models.User, error) {
	m.record("CreateAccount")

	if _, ok := m.hashes[email]; ok {
		return nil, models.ErrDuplicateKey
	}

	u := &models.User{
		ID:       "u" + string(rune('0'+len(m.users))),
		Email:    email,
		FullName: fullName,
		Role:     roleName,
		Roles:    []models.Role{{Name: roleName}},
	}
	m.users[u.ID] = u
	m.hashes[email] = hash

	return u, nil
}

func (m *mockUserStore) GetCredentials(_ context.Context, email string) (*models.Credentials, error) {
	m.record("GetCredentials")

	hash, ok := m.hashes[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	for _, u := range m.users {
		if u.Email == email {
			return &models.Credentials{UserID: u.ID, Email: email, PasswordHash: hash}, nil
		}
	}

	return nil, models.ErrUserNotFound
}

func (m *mockUserStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.record("GetUser")

	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	return u, nil
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.record("ListUsers")
	return nil, nil
}

func (m *mockUserStore) ResolveRole(_ context.Context, userID string) (string, error) {
	m.record("ResolveRole")

	if u, ok := m.users[userID]; ok {
		return u.Role, nil
	}

	return models.RoleUser, nil
}

func (m *mockUserStore) UpdateProfile(_ context.Context, userID, email string, fullName *string) (*models.User, error) {
	m.record("UpdateProfile")

	u, ok := m.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	u.Email = email
	u.FullName = fullName

	return u, nil
}

func (m *mockUserStore) AssignRole(ctx context.Context, userID string, roleID int) (*models.User, error) {
	m.record("AssignRole")
	return m.assignRole(ctx, userID, roleID)
}

func (m *mockUserStore) ListRoles(_ context.Context) ([]models.Role, error) {
	m.record("ListRoles")
	return nil, nil
}

func (m *mockUserStore) PublishSessionChange(userID, eventType string, user *models.User) {
	m.record("PublishSessionChange")
	m.events = append(m.events, models.SessionEvent{UserID: userID, Type: eventType, User: user})
}

// mockTokens issues predictable tokens and remembers revocations.
type mockTokens struct {
	revoked   []string
	revokeErr error
}

func (m *mockTokens) Issue(user *models.User) (*models.Session, error) {
	return &models.Session{Token: "token-" + user.ID, ExpiresAt: time.Now().Add(time.Hour), User: user}, nil
}

func (m *mockTokens) VerifyToken(_ context.Context, token string) (*models.Identity, error) {
	return &models.Identity{ID: token}, nil
}

func (m *mockTokens) Revoke(_ context.Context, ident models.Identity) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}

	m.revoked = append(m.revoked, ident.TokenID)

	return nil
}

// mockLimiter counts failures per name and blocks at a fixed threshold.
type mockLimiter struct {
	failures map[string]int
	blockAt  int
}

func newMockLimiter(blockAt int) *mockLimiter {
	return &mockLimiter{failures: map[string]int{}, blockAt: blockAt}
}

func (m *mockLimiter) RetryAfter(name string) time.Duration {
	if m.failures[name] >= m.blockAt {
		return time.Minute
	}

	return 0
}

func (m *mockLimiter) RecordFailure(name string) { m.failures[name]++ }
func (m *mockLimiter) Reset(name string)         { delete(m.failures, name) }

// mockEnqueuer records activity jobs synchronously.
type mockEnqueuer struct {
	mu   sync.Mutex
	jobs []ActivityJob
}

func (m *mockEnqueuer) Enqueue(job *ActivityJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, *job)
}

func (m *mockEnqueuer) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = j.Action
	}

	return out
}

// mockRecorder records activity calls.
type mockRecorder struct {
	mu    sync.Mutex
	calls []ActivityJob

	err error
}

func (m *mockRecorder) RecordActivity(_ context.Context, action, resourceType, resourceID, actor string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ActivityJob{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Actor:        actor,
		Detail:       detail,
	})

	return m.err
}

func (m *mockRecorder) getCalls() []ActivityJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]ActivityJob, len(m.calls))
	copy(cp, m.calls)

	return cp
}

// mockPurger records purge cutoffs.
type mockPurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (m *mockPurger) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)

	return 3, m.err
}
