package client

import (
	"context"
	"net/url"
)

// AuthService handles sign-in, sign-out and the caller's own session and profile.
type AuthService struct {
	c *Client
}

// SignUp registers an account and stores the returned token on the client.
func (s *AuthService) SignUp(ctx context.Context, req *SignUpRequest) (*Session, error) {
	var sess Session
	if err := s.c.post(ctx, "/api/auth/signup", req, &sess); err != nil {
		return nil, err
	}

	s.c.SetToken(sess.Token)

	return &sess, nil
}

// Login signs in and stores the returned token on the client.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	var sess Session
	if err := s.c.post(ctx, "/api/auth/login", &LoginRequest{Email: email, Password: password}, &sess); err != nil {
		return nil, err
	}

	s.c.SetToken(sess.Token)

	return &sess, nil
}

// Logout revokes the current token. The token is cleared from the client
// whether or not the server call succeeds.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.c.post(ctx, "/api/auth/logout", nil, nil)
	s.c.ClearToken()

	return err
}

// Session returns the current session.
func (s *AuthService) Session(ctx context.Context) (*Session, error) {
	var sess Session
	if err := s.c.get(ctx, "/api/auth/session", nil, &sess); err != nil {
		return nil, err
	}

	return &sess, nil
}

// Profile returns the caller's user record.
func (s *AuthService) Profile(ctx context.Context) (*User, error) {
	var u User
	if err := s.c.get(ctx, "/api/auth/profile", nil, &u); err != nil {
		return nil, err
	}

	return &u, nil
}

// UpdateProfile edits the caller's e-mail and full name.
func (s *AuthService) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*User, error) {
	var u User
	if err := s.c.put(ctx, "/api/auth/profile", req, &u); err != nil {
		return nil, err
	}

	return &u, nil
}

// Roles returns the role catalogue.
func (s *AuthService) Roles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if err := s.c.get(ctx, "/api/auth/roles", nil, &roles); err != nil {
		return nil, err
	}

	return roles, nil
}

// UserService handles user administration (admin only).
type UserService struct {
	c *Client
}

// List returns every user with their roles.
func (s *UserService) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.c.get(ctx, "/api/auth/users", nil, &users); err != nil {
		return nil, err
	}

	return users, nil
}

// Create provisions a user with an optional role name.
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	var u User
	if err := s.c.post(ctx, "/api/auth/users", req, &u); err != nil {
		return nil, err
	}

	return &u, nil
}

// AssignRole grants a role to a user.
func (s *UserService) AssignRole(ctx context.Context, userID string, roleID int) (*User, error) {
	var u User
	body := map[string]int{"role_id": roleID}

	if err := s.c.post(ctx, "/api/auth/users/"+url.PathEscape(userID)+"/role", body, &u); err != nil {
		return nil, err
	}

	return &u, nil
}
