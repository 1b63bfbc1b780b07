package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/auditdesk/internal/models"
)

// UserStore handles accounts, profiles and role membership.
type UserStore struct {
	Base
}

// NewUserStore creates a new UserStore.
func NewUserStore(base Base) *UserStore {
	return &UserStore{Base: base}
}

// userQuery selects users with their profile and aggregated roles.
const userQuery = `SELECT u.id::text, u.email, pr.full_name, u.created_at,
	COALESCE(
		json_agg(json_build_object('id', r.id, 'name', r.name, 'permissions', r.permissions, 'rank', r.rank)
			ORDER BY r.rank) FILTER (WHERE r.id IS NOT NULL),
		'[]'
	)
	FROM users u
	LEFT JOIN profiles pr ON pr.user_id = u.id
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id`

const userGroupBy = ` GROUP BY u.id, pr.full_name`

// roleRow mirrors models.Role including the rank, which the API hides.
type roleRow struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Rank        int      `json:"rank"`
}

func scanUser(scan func(dest ...any) error) (*models.User, error) {
	var u models.User
	var rolesJSON []byte

	if err := scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt, &rolesJSON); err != nil {
		return nil, err
	}

	var rows []roleRow
	if err := json.Unmarshal(rolesJSON, &rows); err != nil {
		return nil, fmt.Errorf("decoding user roles: %w", err)
	}

	u.Roles = make([]models.Role, len(rows))
	for i, r := range rows {
		u.Roles[i] = models.Role{ID: r.ID, Name: r.Name, Permissions: r.Permissions, Rank: r.Rank}
	}

	u.Role = models.PrimaryRole(u.Roles)

	return &u, nil
}

func getUser(ctx context.Context, q pgx.Tx, id string) (*models.User, error) {
	u, err := scanUser(q.QueryRow(ctx, userQuery+` WHERE u.id = $1`+userGroupBy, id).Scan)
	if err != nil {
		return nil, mapReadErr(err, models.ErrUserNotFound, "scanning user")
	}

	return u, nil
}

// CreateAccount inserts the user, its profile and its initial role in one
// transaction. A taken e-mail returns models.ErrDuplicateKey; an unknown role
// name returns models.ErrRoleNotFound.
func (s *UserStore) CreateAccount(
	ctx context.Context, email, passwordHash string, fullName *string, roleName string,
) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var roleID int
	if err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, roleName).Scan(&roleID); err != nil {
		return nil, mapReadErr(err, models.ErrRoleNotFound, "looking up role")
	}

	var userID string

	err = tx.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id::text`,
		email, passwordHash,
	).Scan(&userID)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrUserNotFound, "inserting user")
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO profiles (user_id, email, full_name) VALUES ($1, $2, $3)`,
		userID, email, fullName,
	); err != nil {
		return nil, mapWriteErr(err, models.ErrUserNotFound, "inserting profile")
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID,
	); err != nil {
		return nil, mapWriteErr(err, models.ErrUserNotFound, "granting initial role")
	}

	u, err := getUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing create account: %w", err)
	}

	return u, nil
}

// GetCredentials returns the password hash for an e-mail (case-insensitive).
func (s *UserStore) GetCredentials(ctx context.Context, email string) (*models.Credentials, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var c models.Credentials

	err := s.Pool.QueryRow(ctx,
		`SELECT id::text, email, password_hash FROM users WHERE lower(email) = lower($1)`, email,
	).Scan(&c.UserID, &c.Email, &c.PasswordHash)
	if err != nil {
		return nil, mapReadErr(err, models.ErrUserNotFound, "looking up credentials")
	}

	return &c, nil
}

// GetUser returns a user with profile and roles.
func (s *UserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	u, err := getUser(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing get user: %w", err)
	}

	return u, nil
}

// ListUsers returns every user ordered by e-mail.
func (s *UserStore) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, userQuery+userGroupBy+` ORDER BY u.email`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}

	users, err := collect(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("scanning user rows: %w", err)
	}

	return users, nil
}

// ResolveRole returns the name of the caller's most privileged role, or
// models.RoleUser when the user holds none. It always hits the database.
func (s *UserStore) ResolveRole(ctx context.Context, userID string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var name string

	err := s.Pool.QueryRow(ctx, `
		SELECT r.name FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.rank
		LIMIT 1`, userID,
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RoleUser, nil
	}

	if err != nil {
		return "", fmt.Errorf("resolving role: %w", err)
	}

	return name, nil
}

// UpdateProfile changes a user's e-mail and display name.
func (s *UserStore) UpdateProfile(
	ctx context.Context, userID, email string, fullName *string,
) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx, `UPDATE users SET email = $1 WHERE id = $2`, email, userID)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrUserNotFound, "updating user email")
	}

	if tag.RowsAffected() == 0 {
		return nil, models.ErrUserNotFound
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO profiles (user_id, email, full_name) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email, full_name = EXCLUDED.full_name`,
		userID, email, fullName,
	); err != nil {
		return nil, mapWriteErr(err, models.ErrUserNotFound, "updating profile")
	}

	u, err := getUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing update profile: %w", err)
	}

	return u, nil
}

// AssignRole grants a role to a user. Unknown users or roles return the
// matching not-found error; a repeat grant returns models.ErrRoleAlreadyAssigned.
func (s *UserStore) AssignRole(ctx context.Context, userID string, roleID int) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("assigning role: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var one int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1`, userID).Scan(&one); err != nil {
		return nil, mapReadErr(err, models.ErrUserNotFound, "checking user")
	}

	if err := tx.QueryRow(ctx, `SELECT 1 FROM roles WHERE id = $1`, roleID).Scan(&one); err != nil {
		return nil, mapReadErr(err, models.ErrRoleNotFound, "checking role")
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, roleID)
	if err != nil {
		return nil, mapWriteErr(err, models.ErrUserNotFound, "inserting user role")
	}

	if tag.RowsAffected() == 0 {
		return nil, models.ErrRoleAlreadyAssigned
	}

	u, err := getUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing assign role: %w", err)
	}

	return u, nil
}

// ListRoles returns the role catalogue, most privileged first.
func (s *UserStore) ListRoles(ctx context.Context) ([]models.Role, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `SELECT id, name, permissions, rank FROM roles ORDER BY rank, id`)
	if err != nil {
		return nil, fmt.Errorf("querying roles: %w", err)
	}

	roles, err := collect(rows, func(scan func(dest ...any) error) (*models.Role, error) {
		var r models.Role
		if err := scan(&r.ID, &r.Name, &r.Permissions, &r.Rank); err != nil {
			return nil, err
		}

		return &r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning role rows: %w", err)
	}

	return roles, nil
}

// PublishSessionChange notifies the user's connected clients that their
// session changed. user is nil for sign-out.
func (s *UserStore) PublishSessionChange(userID, eventType string, user *models.User) {
	s.notifySession(userID, eventType, user)
}
