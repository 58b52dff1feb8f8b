// Export HTTP handler.
//
// GET /projects/{id}/export streams the composed document as a .docx or
// .pptx attachment. The format defaults to the project's kind; passing a
// mismatched format is rejected rather than silently converted.
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-docgen-backend/internal/structure"
)

// ExportDocument godoc
// @ID          exportDocument
// @Summary     Export the document as a file
// @Description Composes the outline and generated content into a Word or PowerPoint binary and returns it as an attachment. Items without content render as a placeholder. An optional template id (or the user's default template) supplies styling.
// @Tags        Export
// @Produce     application/octet-stream
//
// @Param       X-User-ID    header  string  false "User ID (demo header)"            example(user123)
// @Param       id           path    string  true  "Project ID (UUID)"                format(uuid)
// @Param       format       query   string  false "Export format (word, powerpoint)" Enums(word, powerpoint)
// @Param       template_id  query   string  false "Style template ID (UUID)"         format(uuid)
//
// @Success     200  {file}   file
// @Failure     400  {object} handlers.ErrorResponse "Empty document or format mismatch"
// @Failure     404  {object} handlers.ErrorResponse "Project or template not found"
// @Failure     500  {object} handlers.ErrorResponse "Rendering failed"
// @Router      /projects/{id}/export [get]
func (h *Handlers) ExportDocument(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}
	ctx := c.Request.Context()
	currentUser := userID(c)

	var want structure.Kind
	if format := strings.TrimSpace(c.Query("format")); format != "" {
		k, okKind := structure.ParseKind(format)
		if !okKind {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "format must be 'word' or 'powerpoint'")
			return
		}
		want = k
	} else {
		p, err := h.projectSvc.Get(ctx, currentUser, projectID)
		if err != nil {
			svcFail(c, err)
			return
		}
		want = structure.Kind(p.Kind)
	}

	templateID := strings.TrimSpace(c.Query("template_id"))
	if templateID != "" {
		if _, err := uuid.Parse(templateID); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "template id must be a UUID")
			return
		}
	}

	exp, err := h.exportSvc.Export(ctx, currentUser, projectID, want, templateID)
	if err != nil {
		svcFailCode(c, err, ErrCodeExportFailed)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	c.Data(http.StatusOK, exp.ContentType, exp.Data)
}
