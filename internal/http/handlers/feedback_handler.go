// Feedback HTTP handlers.
//
// This file exposes the like/dislike endpoints of a project:
//   - POST /projects/{id}/feedback  (set, flip, or clear one item's feedback)
//   - GET  /projects/{id}/feedback  (item-id to type mapping)
//
// At most one feedback row exists per (document, item). Submitting null for
// the type clears any existing row; submitting the opposite value flips it in
// place under the same row id.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// DTOs
//

// SubmitFeedbackRequest sets or clears feedback on one outline item. Type is
// "like", "dislike", or JSON null to clear.
type SubmitFeedbackRequest struct {
	ItemID string  `json:"item_id" binding:"required" example:"section-1"`
	Type   *string `json:"type" example:"like"`
}

// FeedbackMapResponse maps item ids to their recorded feedback type. Items
// without feedback are absent.
type FeedbackMapResponse struct {
	Feedback map[string]string `json:"feedback"`
}

//
// Handlers
//

// SubmitFeedback godoc
// @ID          submitFeedback
// @Summary     Submit feedback on an item
// @Description Records like or dislike on an outline item's generated content. Resubmitting the same value refreshes the row, the opposite value flips it, and null clears it.
// @Tags        Feedback
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.SubmitFeedbackRequest  true  "Feedback payload"
//
// @Success     200  {object} domain.Feedback
// @Success     204  "Cleared"
// @Failure     400  {object} handlers.ErrorResponse "No content on the item"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Router      /projects/{id}/feedback [post]
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ItemID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id required")
		return
	}

	fb, err := h.feedbackSvc.Submit(c.Request.Context(), userID(c), projectID, strings.TrimSpace(req.ItemID), req.Type)
	if err != nil {
		svcFail(c, err)
		return
	}
	if fb == nil {
		noContent(c)
		return
	}
	ok(c, http.StatusOK, fb)
}

// GetFeedback godoc
// @ID          getFeedback
// @Summary     Get the feedback map
// @Description Returns the item-id to type mapping of recorded feedback for the project's document, optionally narrowed to a comma-separated list of item ids.
// @Tags        Feedback
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"            example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"                format(uuid)
// @Param       item_ids   query   string  false "Comma-separated item id filter"   example(section-1,section-2)
//
// @Success     200  {object} handlers.FeedbackMapResponse
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id}/feedback [get]
func (h *Handlers) GetFeedback(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	var itemIDs []string
	if raw := strings.TrimSpace(c.Query("item_ids")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				itemIDs = append(itemIDs, p)
			}
		}
	}

	m, err := h.feedbackSvc.Map(c.Request.Context(), userID(c), projectID, itemIDs)
	if err != nil {
		svcFail(c, err)
		return
	}
	if m == nil {
		m = map[string]string{}
	}
	ok(c, http.StatusOK, FeedbackMapResponse{Feedback: m})
}
