package models

import (
	"strings"
	"time"
)

// RoleUser is the primary role of an account with no role assignments.
const RoleUser = "user"

// Seeded role names, from most to least privileged.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleLead     = "lead"
	RoleAuditor  = "auditor"
	RoleMember   = "member"
	RoleReviewer = "reviewer"
	RoleViewer   = "viewer"
)

// DefaultSignupRole is granted to every self-registered account.
const DefaultSignupRole = RoleViewer

// Password bounds.
const (
	minPasswordLen = 8
	maxPasswordLen = 72
)

// Role is a named permission set. Lower Rank means more privileged.
type Role struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Rank        int      `json:"-"`
}

// User is an account as exposed by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	Role      string    `json:"role"`
	Roles     []Role    `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRef is the shallow user embedded in team and recommendation rows.
type UserRef struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
}

// Credentials holds the stored password hash for a login lookup.
type Credentials struct {
	UserID       string
	Email        string
	PasswordHash string
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Session is returned on sign-in and sign-up.
type Session struct {
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// SessionEvent is pushed to a user's connected clients when their session changes.
type SessionEvent struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
	User   *User  `json:"user,omitempty"`
}

// Session event types.
const (
	SessionUpdated   = "session.updated"
	SessionSignedOut = "session.signed_out"
)

// PrimaryRole returns the name of the most privileged role, or RoleUser when
// the list is empty.
func PrimaryRole(roles []Role) string {
	if len(roles) == 0 {
		return RoleUser
	}

	best := roles[0]
	for _, r := range roles[1:] {
		if r.Rank < best.Rank {
			best = r
		}
	}

	return best.Name
}

// HasPermission reports whether any of the roles grants perm. The "*"
// permission grants everything.
func HasPermission(roles []Role, perm string) bool {
	for _, r := range roles {
		for _, p := range r.Permissions {
			if p == "*" || p == perm {
				return true
			}
		}
	}

	return false
}

// SignUpRequest is the payload for self-registration.
type SignUpRequest struct {
	Email    string  `json:"email" validate:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

// Validate checks required fields on SignUpRequest.
func (r *SignUpRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	r.FullName = trimPtr(r.FullName)

	if r.Email == "" || r.Password == "" {
		return NewValidationError("Email and password are required")
	}

	if err := checkPassword(r.Password); err != nil {
		return err
	}

	if err := checkLen("full_name", r.FullName, maxNameLen); err != nil {
		return err
	}

	return checkStruct(r)
}

// LoginRequest is the payload for password sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields on LoginRequest.
func (r *LoginRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)

	if r.Email == "" || r.Password == "" {
		return NewValidationError("Email and password are required")
	}

	return nil
}

// CreateUserRequest is the admin payload for provisioning an account.
type CreateUserRequest struct {
	Email    string  `json:"email" validate:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
}

// Validate checks required fields on CreateUserRequest.
func (r *CreateUserRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	r.FullName = trimPtr(r.FullName)
	r.Role = trimPtr(r.Role)

	if r.Email == "" || r.Password == "" {
		return NewValidationError("Email and password are required")
	}

	if err := checkPassword(r.Password); err != nil {
		return err
	}

	if err := checkLen("full_name", r.FullName, maxNameLen); err != nil {
		return err
	}

	return checkStruct(r)
}

// RoleName returns the requested role, defaulting to DefaultSignupRole.
func (r *CreateUserRequest) RoleName() string {
	if r.Role == nil {
		return DefaultSignupRole
	}

	return *r.Role
}

// UpdateProfileRequest is the payload for editing the caller's own profile.
type UpdateProfileRequest struct {
	Email    string  `json:"email" validate:"email"`
	FullName *string `json:"full_name"`
}

// Validate checks required fields on UpdateProfileRequest.
func (r *UpdateProfileRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	r.FullName = trimPtr(r.FullName)

	if r.Email == "" {
		return NewValidationError("Email is required")
	}

	if err := checkLen("full_name", r.FullName, maxNameLen); err != nil {
		return err
	}

	return checkStruct(r)
}

// AssignRoleRequest grants a role to a user.
type AssignRoleRequest struct {
	RoleID *int `json:"role_id"`
}

// Validate checks required fields on AssignRoleRequest.
func (r *AssignRoleRequest) Validate() error {
	if r.RoleID == nil {
		return NewValidationError("Role ID is required")
	}

	if *r.RoleID <= 0 {
		return NewValidationError("role_id must be a positive integer")
	}

	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLen {
		return NewValidationError("password must be at least 8 characters")
	}

	// bcrypt ignores input beyond 72 bytes.
	if len(pw) > maxPasswordLen {
		return NewValidationError("password must be at most 72 characters")
	}

	return nil
}
