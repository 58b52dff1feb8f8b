// Generation HTTP handlers.
//
// This file exposes the AI-facing endpoints of a project:
//   - POST /projects/{id}/generate           (fill every outline item)
//   - POST /projects/{id}/generate-item      (fill a single item)
//   - GET  /projects/{id}/generation-status  (progress summary)
//   - POST /projects/{id}/suggest-structure  (propose an outline)
//
// Bulk generation is the most expensive call in the API, so it honors the
// Idempotency-Key header: a replayed key within the TTL returns the stored
// document without re-invoking the provider.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-docgen-backend/internal/domain"
	"github.com/tbourn/go-docgen-backend/internal/http/middleware"
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/services"
	"github.com/tbourn/go-docgen-backend/internal/structure"
)

//
// DTOs
//

// GenerateItemRequest selects the outline item to generate.
type GenerateItemRequest struct {
	ItemID string `json:"item_id" binding:"required" example:"section-1"`
}

// GenerateItemResponse carries the updated document and the produced text.
type GenerateItemResponse struct {
	Document *domain.Document `json:"document"`
	ItemID   string           `json:"item_id" example:"section-1"`
	Content  string           `json:"content"`
}

// GenerationStatusResponse summarizes generation progress for a Word project.
// PowerPoint projects report the same shape with total_slides and
// generated_slides as the count fields.
type GenerationStatusResponse struct {
	Status             string `json:"status" example:"partial"`
	Kind               string `json:"kind" example:"word"`
	TotalSections      int    `json:"total_sections" example:"5"`
	GeneratedSections  int    `json:"generated_sections" example:"2"`
	ProgressPercentage int    `json:"progress_percentage" example:"40"`
}

// SuggestStructureRequest optionally overrides the topic the outline is
// proposed for. Empty falls back to the project's main topic.
type SuggestStructureRequest struct {
	Topic string `json:"topic" example:"Renewable energy adoption"`
}

// SuggestStructureResponse wraps a proposed outline. It is a suggestion only;
// nothing is persisted until the client configures the document with it.
type SuggestStructureResponse struct {
	Kind  string           `json:"kind" example:"word"`
	Items []structure.Item `json:"items"`
}

//
// Handlers
//

// GenerateDocument godoc
// @ID          generateDocument
// @Summary     Generate content for every outline item
// @Description Runs AI generation over the full outline in order. Items that fail after retries receive a placeholder and the batch continues. Supports the Idempotency-Key header for safe retries.
// @Tags        Generation
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Safe-retry key"
// @Param       id               path    string  true  "Project ID (UUID)"      format(uuid)
//
// @Success     200  {object} domain.Document
// @Failure     400  {object} handlers.ErrorResponse "Document not configured"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/generate [post]
func (h *Handlers) GenerateDocument(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}
	ctx := c.Request.Context()
	currentUser := userID(c)

	// Idempotency (replay path) – serve the stored document if the key was
	// already processed and has not expired.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey == "" {
		idemKey = strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	}
	if idemKey != "" {
		if svc, okSvc := h.generationSvc.(*services.GenerationService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, projectID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetDocument(ctx, svc.DB, rec.RefID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, prev)
					return
				}
			}
		}
	}

	doc, err := h.generationSvc.GenerateAll(ctx, currentUser, projectID)
	if err != nil {
		svcFail(c, err)
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.generationSvc.(*services.GenerationService); okSvc && svc.DB != nil {
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, projectID, idemKey, doc.ID, http.StatusOK, h.idemTTL)
		}
	}

	ok(c, http.StatusOK, doc)
}

// GenerateItem godoc
// @ID          generateItem
// @Summary     Generate content for one outline item
// @Description Runs AI generation for a single item. Unlike the batch endpoint this fails hard when the provider errors, leaving existing content untouched.
// @Tags        Generation
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.GenerateItemRequest  true  "Item selector"
//
// @Success     200  {object} handlers.GenerateItemResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Failure     502  {object} handlers.ErrorResponse "Provider failed"
// @Router      /projects/{id}/generate-item [post]
func (h *Handlers) GenerateItem(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	var req GenerateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ItemID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id required")
		return
	}

	doc, content, err := h.generationSvc.GenerateOne(c.Request.Context(), userID(c), projectID, strings.TrimSpace(req.ItemID))
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, GenerateItemResponse{Document: doc, ItemID: strings.TrimSpace(req.ItemID), Content: content})
}

// GenerationStatus godoc
// @ID          generationStatus
// @Summary     Report generation progress
// @Description Returns how many outline items have content, as a count and a floor percentage, plus an overall status of not_configured, partial, or completed.
// @Tags        Generation
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
//
// @Success     200  {object} handlers.GenerationStatusResponse
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/generation-status [get]
func (h *Handlers) GenerationStatus(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	st, err := h.generationSvc.Status(c.Request.Context(), userID(c), projectID)
	if err != nil {
		svcFail(c, err)
		return
	}
	// Count field names follow the document kind: total_sections and
	// generated_sections for Word, total_slides and generated_slides for
	// PowerPoint.
	key := st.Kind.Key()
	ok(c, http.StatusOK, gin.H{
		"status":              st.Status,
		"kind":                st.Kind.String(),
		"total_" + key:        st.Total,
		"generated_" + key:    st.Generated,
		"progress_percentage": st.Percentage,
	})
}

// SuggestStructure godoc
// @ID          suggestStructure
// @Summary     Suggest a document outline
// @Description Asks the AI provider to propose an outline for the project's topic (or an explicit topic override). The suggestion is returned as-is and not persisted.
// @Tags        Generation
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.SuggestStructureRequest  false "Topic override"
//
// @Success     200  {object} handlers.SuggestStructureResponse
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Failure     502  {object} handlers.ErrorResponse "Provider failed"
// @Router      /projects/{id}/suggest-structure [post]
func (h *Handlers) SuggestStructure(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}
	ctx := c.Request.Context()
	currentUser := userID(c)

	var req SuggestStructureRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	p, err := h.projectSvc.Get(ctx, currentUser, projectID)
	if err != nil {
		svcFail(c, err)
		return
	}
	want := structure.Kind(p.Kind)

	items, err := h.generationSvc.SuggestOutline(ctx, currentUser, projectID, strings.TrimSpace(req.Topic), want)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, SuggestStructureResponse{Kind: want.String(), Items: items})
}
