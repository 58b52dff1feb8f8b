// Template HTTP handlers.
//
// This file exposes REST endpoints for style templates:
//   - POST   /templates          (create)
//   - GET    /templates          (list own plus public, optional kind filter)
//   - GET    /templates/default  (the user's default for a kind)
//   - GET    /templates/{id}     (fetch one)
//   - PUT    /templates/{id}     (partial update)
//   - DELETE /templates/{id}     (delete)
//
// Templates are per-user with optional public sharing. Public templates are
// readable and usable by anyone but editable only by their owner.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-docgen-backend/internal/domain"
)

//
// DTOs
//

// CreateTemplateRequest carries a new style template. Config is free-form
// JSON interpreted by the renderer (fonts, colors, spacing).
type CreateTemplateRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=255" example:"Corporate blue"`
	Description *string         `json:"description" example:"Brand palette for client decks"`
	Kind        string          `json:"kind" binding:"required,oneof=word powerpoint" example:"word"`
	Config      json.RawMessage `json:"config" swaggertype:"object"`
	IsDefault   bool            `json:"is_default"`
	IsPublic    bool            `json:"is_public"`
}

// UpdateTemplateRequest applies a partial update. Nil fields are untouched.
type UpdateTemplateRequest struct {
	Name        *string         `json:"name" example:"Corporate blue v2"`
	Description *string         `json:"description"`
	Config      json.RawMessage `json:"config" swaggertype:"object"`
	IsDefault   *bool           `json:"is_default"`
	IsPublic    *bool           `json:"is_public"`
}

// ListTemplatesResponse wraps the visible templates.
type ListTemplatesResponse struct {
	Templates []domain.Template `json:"templates"`
}

//
// Handlers
//

// CreateTemplate godoc
// @ID          createTemplate
// @Summary     Create a style template
// @Description Creates a template for the given document kind. Marking it default demotes any previous default of the same kind.
// @Tags        Templates
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateTemplateRequest  true  "Template payload"
//
// @Success     201  {object} domain.Template
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Router      /templates [post]
func (h *Handlers) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and kind required; kind must be 'word' or 'powerpoint'")
		return
	}

	t, err := h.templateSvc.Create(c.Request.Context(), userID(c), req.Name, req.Description, req.Kind, req.Config, req.IsDefault, req.IsPublic)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusCreated, t)
}

// ListTemplates godoc
// @ID          listTemplates
// @Summary     List visible templates
// @Description Returns the user's own templates plus public ones, optionally filtered by document kind.
// @Tags        Templates
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"          example(user123)
// @Param       kind       query   string  false "Kind filter (word, powerpoint)" Enums(word, powerpoint)
//
// @Success     200  {object} handlers.ListTemplatesResponse
// @Failure     400  {object} handlers.ErrorResponse "Unknown kind"
// @Router      /templates [get]
func (h *Handlers) ListTemplates(c *gin.Context) {
	kind := strings.TrimSpace(c.Query("kind"))

	items, err := h.templateSvc.List(c.Request.Context(), userID(c), kind)
	if err != nil {
		svcFail(c, err)
		return
	}
	if items == nil {
		items = []domain.Template{}
	}
	ok(c, http.StatusOK, ListTemplatesResponse{Templates: items})
}

// GetDefaultTemplate godoc
// @ID          getDefaultTemplate
// @Summary     Get the default template for a kind
// @Description Returns the user's template marked default for the given document kind.
// @Tags        Templates
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"        example(user123)
// @Param       kind       query   string  true  "Kind (word, powerpoint)"      Enums(word, powerpoint)
//
// @Success     200  {object} domain.Template
// @Failure     400  {object} handlers.ErrorResponse "Unknown kind"
// @Failure     404  {object} handlers.ErrorResponse "No default template"
// @Router      /templates/default [get]
func (h *Handlers) GetDefaultTemplate(c *gin.Context) {
	kind := strings.TrimSpace(c.Query("kind"))

	t, err := h.templateSvc.DefaultFor(c.Request.Context(), userID(c), kind)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// GetTemplate godoc
// @ID          getTemplate
// @Summary     Fetch one template
// @Description Returns a template the user owns or any public template.
// @Tags        Templates
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Template ID (UUID)"     format(uuid)
//
// @Success     200  {object} domain.Template
// @Failure     403  {object} handlers.ErrorResponse "Private template of another user"
// @Failure     404  {object} handlers.ErrorResponse "Template not found"
// @Router      /templates/{id} [get]
func (h *Handlers) GetTemplate(c *gin.Context) {
	templateID := c.Param("id")
	if _, err := uuid.Parse(templateID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "template id must be a UUID")
		return
	}

	t, err := h.templateSvc.Get(c.Request.Context(), userID(c), templateID)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// UpdateTemplate godoc
// @ID          updateTemplate
// @Summary     Update a template
// @Description Applies a partial update to a template the user owns. Promoting to default demotes the previous default of the same kind.
// @Tags        Templates
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Template ID (UUID)"     format(uuid)
// @Param       body       body    handlers.UpdateTemplateRequest  true  "Fields to change"
//
// @Success     200  {object} domain.Template
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Template not found"
// @Router      /templates/{id} [put]
func (h *Handlers) UpdateTemplate(c *gin.Context) {
	templateID := c.Param("id")
	if _, err := uuid.Parse(templateID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "template id must be a UUID")
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Name == nil && req.Description == nil && len(req.Config) == 0 && req.IsDefault == nil && req.IsPublic == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "at least one field must be provided")
		return
	}

	t, err := h.templateSvc.Update(c.Request.Context(), userID(c), templateID, req.Name, req.Description, req.Config, req.IsDefault, req.IsPublic)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// DeleteTemplate godoc
// @ID          deleteTemplate
// @Summary     Delete a template
// @Description Deletes a template the user owns.
// @Tags        Templates
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Template ID (UUID)"     format(uuid)
//
// @Success     204  "Deleted"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Template not found"
// @Router      /templates/{id} [delete]
func (h *Handlers) DeleteTemplate(c *gin.Context) {
	templateID := c.Param("id")
	if _, err := uuid.Parse(templateID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "template id must be a UUID")
		return
	}

	if err := h.templateSvc.Delete(c.Request.Context(), userID(c), templateID); err != nil {
		svcFail(c, err)
		return
	}
	noContent(c)
}
