// Refinement HTTP handlers.
//
// This file exposes the iterative-editing endpoints of a project:
//   - POST /projects/{id}/refine       (rewrite one item's content)
//   - POST /projects/{id}/comments     (attach a note without touching content)
//   - GET  /projects/{id}/refinements  (paginated history, newest first)
//
// History is bounded per item at the service layer; listing is read-only and
// supports weak ETags so polling clients avoid re-downloading unchanged pages.
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-docgen-backend/internal/domain"
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/services"
)

//
// DTOs
//

// RefineRequest selects an item and carries the rewrite instruction.
type RefineRequest struct {
	ItemID string `json:"item_id" binding:"required" example:"section-1"`
	Prompt string `json:"prompt" binding:"required" example:"Make it more formal"`
}

// RefineResponse carries the recorded refinement and the updated document.
type RefineResponse struct {
	Refinement *domain.Refinement `json:"refinement"`
	Document   *domain.Document   `json:"document"`
}

// CommentRequest attaches a free-text note to an item's history.
type CommentRequest struct {
	ItemID  string `json:"item_id" binding:"required" example:"section-1"`
	Comment string `json:"comment" binding:"required" example:"Needs a source for the 40% figure"`
}

// ListRefinementsResponse is the paginated history envelope.
type ListRefinementsResponse struct {
	Refinements []domain.Refinement `json:"refinements"`
	Pagination  Pagination          `json:"pagination"`
}

//
// Handlers
//

// RefineItem godoc
// @ID          refineItem
// @Summary     Refine one item's content
// @Description Rewrites the generated content of an outline item per a free-text instruction, records the before/after pair in history, and bumps the document version.
// @Tags        Refinements
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.RefineRequest  true  "Refinement instruction"
//
// @Success     200  {object} handlers.RefineResponse
// @Failure     400  {object} handlers.ErrorResponse "No content to refine"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Failure     502  {object} handlers.ErrorResponse "Provider failed"
// @Router      /projects/{id}/refine [post]
func (h *Handlers) RefineItem(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id and prompt required")
		return
	}

	ref, doc, err := h.refinementSvc.Refine(c.Request.Context(), userID(c), projectID, strings.TrimSpace(req.ItemID), req.Prompt)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, RefineResponse{Refinement: ref, Document: doc})
}

// AddComment godoc
// @ID          addComment
// @Summary     Comment on an item
// @Description Attaches a free-text note to an outline item's history. Content and document version are not touched.
// @Tags        Refinements
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.CommentRequest  true  "Comment payload"
//
// @Success     201  {object} domain.Refinement
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Router      /projects/{id}/comments [post]
func (h *Handlers) AddComment(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id and comment required")
		return
	}

	ref, err := h.refinementSvc.AddComment(c.Request.Context(), userID(c), projectID, strings.TrimSpace(req.ItemID), req.Comment)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusCreated, ref)
}

// ListRefinements godoc
// @ID          listRefinements
// @Summary     List refinement history
// @Description Returns a page of refinement and comment rows for the project's document, newest first, optionally narrowed to one item. Supports weak ETag revalidation via If-None-Match.
// @Tags        Refinements
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"   example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"       format(uuid)
// @Param       item_id    query   string  false "Narrow to one item"      example(section-1)
// @Param       page       query   int     false "Page (default 1)"
// @Param       page_size  query   int     false "Page size (default 20, max 100)"
//
// @Success     200  {object} handlers.ListRefinementsResponse
// @Success     304  "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/refinements [get]
func (h *Handlers) ListRefinements(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}
	ctx := c.Request.Context()
	currentUser := userID(c)
	itemID := strings.TrimSpace(c.Query("item_id"))
	page, pageSize := clampPagination(c)

	// Weak ETag over (count, max created_at) of the document's history.
	if svc, okSvc := h.refinementSvc.(*services.RefinementService); okSvc && svc.DB != nil {
		if doc, err := repo.GetDocumentByProject(ctx, svc.DB, projectID); err == nil {
			if count, maxAt, err2 := repo.RefinementsStats(ctx, svc.DB, doc.ID); err2 == nil {
				var ts int64
				if maxAt != nil {
					ts = maxAt.Unix()
				}
				etag := fmt.Sprintf(`W/"refinements:%s:%s:%d:%d"`, doc.ID, itemID, count, ts)
				c.Header("ETag", etag)
				if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
					c.Status(http.StatusNotModified)
					return
				}
			}
		}
	}

	rows, total, err := h.refinementSvc.History(ctx, currentUser, projectID, itemID, page, pageSize)
	if err != nil {
		svcFail(c, err)
		return
	}
	if rows == nil {
		rows = []domain.Refinement{}
	}
	ok(c, http.StatusOK, ListRefinementsResponse{
		Refinements: rows,
		Pagination:  paginate(page, pageSize, total),
	})
}
