package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/domain"
	"github.com/persistorai/auditdesk/internal/middleware"
	"github.com/persistorai/auditdesk/internal/models"
)

// anyRole leaves a verb open to every authenticated caller.
var anyRole []string

// verbRoles lists the roles allowed per verb. A nil list admits any
// authenticated caller; PublicRead skips authentication for GETs.
type verbRoles struct {
	PublicRead bool
	Read       []string
	Create     []string
	Update     []string
	Delete     []string
}

// resourceDescriptor configures one generic CRUD resource.
type resourceDescriptor struct {
	Path    string   // route prefix, e.g. "/entities"
	Name    string   // display name used in conflict messages
	Kind    string   // activity log label, e.g. "entity"
	Filters []string // query keys forwarded to List as equality filters
	Roles   verbRoles

	// NestedCreate means rows are created under their parent's route, so no
	// top-level POST is mounted.
	NestedCreate bool
}

// validatable is implemented by every request payload.
type validatable interface {
	Validate() error
}

// defaultable is implemented by create payloads with server-side defaults.
type defaultable interface {
	ApplyDefaults()
}

// ResourceHandler serves list/get/create/update/delete for one resource.
// T is the stored row, C the create payload and U the update payload.
type ResourceHandler[T, C, U any] struct {
	svc  domain.Resource[T, C, U]
	desc resourceDescriptor
	log  *logrus.Logger
}

// NewResourceHandler creates a ResourceHandler for svc configured by desc.
func NewResourceHandler[T, C, U any](svc domain.Resource[T, C, U], desc resourceDescriptor, log *logrus.Logger) *ResourceHandler[T, C, U] {
	return &ResourceHandler[T, C, U]{svc: svc, desc: desc, log: log}
}

// Register mounts the five CRUD routes on g with the descriptor's role rules.
func (h *ResourceHandler[T, C, U]) Register(g *gin.RouterGroup, authn gin.HandlerFunc) {
	r := h.desc.Roles

	if r.PublicRead {
		g.GET(h.desc.Path, h.List)
		g.GET(h.desc.Path+"/:id", h.Get)
	} else {
		g.GET(h.desc.Path, guard(authn, r.Read, h.List)...)
		g.GET(h.desc.Path+"/:id", guard(authn, r.Read, h.Get)...)
	}

	if !h.desc.NestedCreate {
		g.POST(h.desc.Path, guard(authn, r.Create, h.Create)...)
	}

	g.PUT(h.desc.Path+"/:id", guard(authn, r.Update, h.Update)...)
	g.DELETE(h.desc.Path+"/:id", guard(authn, r.Delete, h.Delete)...)
}

// guard builds the handler chain authn -> role check -> handler. A nil roles
// list skips the role check.
func guard(authn gin.HandlerFunc, roles []string, handler gin.HandlerFunc) []gin.HandlerFunc {
	if roles == nil {
		return []gin.HandlerFunc{authn, handler}
	}

	return []gin.HandlerFunc{authn, middleware.RequireRoles(roles...), handler}
}

// List handles GET <path>.
func (h *ResourceHandler[T, C, U]) List(c *gin.Context) {
	params := models.ListParams{Filters: map[string]string{}}
	for _, key := range h.desc.Filters {
		if v := c.Query(key); v != "" {
			params.Filters[key] = v
		}
	}

	rows, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, h.log, err, h.desc.Name, h.desc.Kind+".list")
		return
	}

	if rows == nil {
		rows = []T{}
	}

	c.JSON(http.StatusOK, rows)
}

// Get handles GET <path>/:id.
func (h *ResourceHandler[T, C, U]) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, h.desc.Name+" not found")
		return
	}

	row, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, h.desc.Name, h.desc.Kind+".get")
		return
	}

	c.JSON(http.StatusOK, row)
}

// Create handles POST <path>.
func (h *ResourceHandler[T, C, U]) Create(c *gin.Context) {
	var in C
	if !bindPayload(c, &in) {
		return
	}

	if d, ok := any(&in).(defaultable); ok {
		d.ApplyDefaults()
	}

	row, err := h.svc.Create(c.Request.Context(), actorID(c), &in)
	if err != nil {
		respondServiceError(c, h.log, err, h.desc.Name, h.desc.Kind+".create")
		return
	}

	h.logActivity(c, "create", row)
	c.JSON(http.StatusCreated, row)
}

// Update handles PUT <path>/:id.
func (h *ResourceHandler[T, C, U]) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, h.desc.Name+" not found")
		return
	}

	var in U
	if !bindPayload(c, &in) {
		return
	}

	row, err := h.svc.Update(c.Request.Context(), actorID(c), id, &in)
	if err != nil {
		respondServiceError(c, h.log, err, h.desc.Name, h.desc.Kind+".update")
		return
	}

	h.logActivity(c, "update", row)
	c.JSON(http.StatusOK, row)
}

// Delete handles DELETE <path>/:id.
func (h *ResourceHandler[T, C, U]) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, h.desc.Name+" not found")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), actorID(c), id); err != nil {
		respondServiceError(c, h.log, err, h.desc.Name, h.desc.Kind+".delete")
		return
	}

	h.log.WithFields(logrus.Fields{"action": h.desc.Kind + ".delete", "id": id, "user_id": actorID(c)}).Info("activity")
	c.Status(http.StatusNoContent)
}

func (h *ResourceHandler[T, C, U]) logActivity(c *gin.Context, verb string, row any) {
	fields := logrus.Fields{"action": h.desc.Kind + "." + verb, "user_id": actorID(c)}
	if r, ok := row.(models.Identifiable); ok {
		fields["id"] = r.ResourceID()
	}

	h.log.WithFields(fields).Info("activity")
}

// bindPayload decodes the JSON body into in and runs its validation. It
// writes the 400 itself and reports whether the handler should continue.
func bindPayload(c *gin.Context, in any) bool {
	return decodeJSON(c, in) && validatePayload(c, in)
}

func decodeJSON(c *gin.Context, in any) bool {
	if err := c.ShouldBindJSON(in); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body")
		return false
	}

	return true
}

func validatePayload(c *gin.Context, in any) bool {
	if v, ok := in.(validatable); ok {
		if err := v.Validate(); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
			return false
		}
	}

	return true
}
