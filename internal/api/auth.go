package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/middleware"
	"github.com/persistorai/auditdesk/internal/models"
)

// AuthHandler serves sign-in, session, profile and user administration.
type AuthHandler struct {
	svc domain.AuthService
	log *logrus.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc domain.AuthService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

// identity returns the authenticated caller or writes a 401.
func identity(c *gin.Context) (*models.Identity, bool) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "User not authenticated")
	}

	return ident, ok
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !bindPayload(c, &req) {
		return
	}

	sess, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, err, "A user with this email", "auth.signup")
		return
	}

	h.log.WithFields(logrus.Fields{"action": "auth.signup", "user_id": sess.User.ID}).Info("activity")
	c.JSON(http.StatusCreated, sess)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindPayload(c, &req) {
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.log, err, "User", "auth.login")
		return
	}

	c.JSON(http.StatusOK, sess)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	if err := h.svc.Logout(c.Request.Context(), *ident); err != nil {
		respondServiceError(c, h.log, err, "Session", "auth.logout")
		return
	}

	c.Status(http.StatusNoContent)
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	sess, err := h.svc.Session(c.Request.Context(), *ident)
	if err != nil {
		respondServiceError(c, h.log, err, "Session", "auth.session")
		return
	}

	c.JSON(http.StatusOK, sess)
}

// Profile handles GET /auth/profile.
func (h *AuthHandler) Profile(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	user, err := h.svc.Profile(c.Request.Context(), ident.ID)
	if err != nil {
		respondServiceError(c, h.log, err, "User", "auth.profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /auth/profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !bindPayload(c, &req) {
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), ident.ID, req)
	if err != nil {
		respondServiceError(c, h.log, err, "A user with this email", "auth.profile.update")
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /auth/users.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "User", "auth.users.list")
		return
	}

	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /auth/users.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if !bindPayload(c, &req) {
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondServiceError(c, h.log, err, "A user with this email", "auth.users.create")
		return
	}

	h.log.WithFields(logrus.Fields{"action": "user.create", "id": user.ID, "role": user.Role, "user_id": actorID(c)}).Info("activity")
	c.JSON(http.StatusCreated, user)
}

// AssignRole handles POST /auth/users/:id/role.
func (h *AuthHandler) AssignRole(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "User not found")
		return
	}

	var req models.AssignRoleRequest
	if !bindPayload(c, &req) {
		return
	}

	user, err := h.svc.AssignRole(c.Request.Context(), actorID(c), userID, *req.RoleID)
	if err != nil {
		respondServiceError(c, h.log, err, "Role", "auth.users.role")
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListRoles handles GET /auth/roles.
func (h *AuthHandler) ListRoles(c *gin.Context) {
	roles, err := h.svc.ListRoles(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "Role", "auth.roles")
		return
	}

	if roles == nil {
		roles = []models.Role{}
	}

	c.JSON(http.StatusOK, roles)
}
