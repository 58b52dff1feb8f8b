// Document HTTP handlers.
//
// This file exposes REST endpoints for the document attached to a project:
//   - POST /projects/{id}/configure           (replace the outline)
//   - GET  /projects/{id}/document            (fetch, creating a default)
//   - PUT  /projects/{id}/document/structure  (edit the outline)
//   - POST /projects/{id}/document/reorder    (remap item order values)
//   - GET  /projects/{id}/document/search     (rank generated content)
//
// The outline payloads are passed to the service layer as raw JSON; structure
// validation (shape, id prefixes, duplicate orders) happens there so every
// caller shares one rulebook.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-docgen-backend/internal/search"
	"github.com/tbourn/go-docgen-backend/internal/structure"
	"github.com/tbourn/go-docgen-backend/internal/utils"
)

//
// DTOs
//

// ConfigureDocumentRequest carries the raw outline JSON. The expected shape is
// {"sections":[...]} for Word projects and {"slides":[...]} for PowerPoint.
type ConfigureDocumentRequest struct {
	Structure json.RawMessage `json:"structure" binding:"required" swaggertype:"object"`
}

// ReorderRequest maps item ids to their new zero-based order values.
type ReorderRequest struct {
	Orders map[string]int `json:"orders" binding:"required"`
}

// SearchResponse wraps ranked content snippets for a query.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

//
// Handlers
//

// ConfigureDocument godoc
// @ID          configureDocument
// @Summary     Configure the document outline
// @Description Validates and stores the outline for the project's document, creating the document if needed. Content of removed items is retained and resurfaces if an id is re-added.
// @Tags        Documents
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.ConfigureDocumentRequest  true  "Outline payload"
//
// @Success     200  {object} domain.Document
// @Failure     400  {object} handlers.ErrorResponse "Invalid outline"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/configure [post]
func (h *Handlers) ConfigureDocument(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	var req ConfigureDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Structure) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "structure required")
		return
	}

	doc, err := h.documentSvc.Configure(c.Request.Context(), userID(c), projectID, req.Structure)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// GetDocument godoc
// @ID          getDocument
// @Summary     Fetch the project's document
// @Description Returns the document of a project, creating one with a default outline on first access.
// @Tags        Documents
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
//
// @Success     200  {object} domain.Document
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/document [get]
func (h *Handlers) GetDocument(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	doc, err := h.documentSvc.GetOrCreate(c.Request.Context(), userID(c), projectID)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// UpdateStructure godoc
// @ID          updateStructure
// @Summary     Edit the document outline
// @Description Replaces the outline of an existing document. Unlike configure, the document must already exist.
// @Tags        Documents
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.ConfigureDocumentRequest  true  "Outline payload"
//
// @Success     200  {object} domain.Document
// @Failure     400  {object} handlers.ErrorResponse "Invalid outline"
// @Failure     404  {object} handlers.ErrorResponse "Project or document not found"
// @Router      /projects/{id}/document/structure [put]
func (h *Handlers) UpdateStructure(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	var req ConfigureDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Structure) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "structure required")
		return
	}

	doc, err := h.documentSvc.UpdateStructure(c.Request.Context(), userID(c), projectID, req.Structure)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// ReorderDocument godoc
// @ID          reorderDocument
// @Summary     Reorder document items
// @Description Remaps order values of outline items. Ids not present in the outline are ignored; duplicate resulting orders are rejected.
// @Tags        Documents
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.ReorderRequest  true  "Order remap payload"
//
// @Success     200  {object} domain.Document
// @Failure     400  {object} handlers.ErrorResponse "Invalid remap"
// @Failure     404  {object} handlers.ErrorResponse "Project or document not found"
// @Router      /projects/{id}/document/reorder [post]
func (h *Handlers) ReorderDocument(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Orders) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "orders required")
		return
	}

	uid := userID(c)
	p, err := h.projectSvc.Get(c.Request.Context(), uid, projectID)
	if err != nil {
		svcFail(c, err)
		return
	}

	doc, err := h.documentSvc.Reorder(c.Request.Context(), uid, projectID, structure.Kind(p.Kind), req.Orders)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// SearchDocument godoc
// @ID          searchDocument
// @Summary     Search generated content
// @Description Ranks the document's generated text against a free-text query and returns the best snippets, each attributed to its outline item.
// @Tags        Documents
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       q          query   string  true  "Query text"
// @Param       top_k      query   int     false "Maximum results"  minimum(1) maximum(20) default(3)
//
// @Success     200  {object} handlers.SearchResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing query"
// @Failure     404  {object} handlers.ErrorResponse "Project or document not found"
// @Router      /projects/{id}/document/search [get]
func (h *Handlers) SearchDocument(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q required")
		return
	}
	topK := utils.ClampInt(utils.AtoiDefault(c.Query("top_k"), 3), 1, 20)

	results, err := h.documentSvc.SearchContent(c.Request.Context(), userID(c), projectID, query, topK)
	if err != nil {
		svcFail(c, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	ok(c, http.StatusOK, SearchResponse{Query: query, Results: results})
}
