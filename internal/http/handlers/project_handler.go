// Project HTTP handlers.
//
// This file exposes REST endpoints for project resources:
//   - POST   /projects        (create)
//   - GET    /projects        (list, paginated, ETag support)
//   - GET    /projects/{id}   (fetch one)
//   - PUT    /projects/{id}   (partial update)
//   - DELETE /projects/{id}   (delete, cascades to the document)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-docgen-backend/internal/domain"
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/services"
)

//
// DTOs
//

// CreateProjectRequest is the JSON payload for creating a project.
type CreateProjectRequest struct {
	// Kind selects the document type produced by this project.
	Kind string `json:"kind" binding:"required,oneof=word powerpoint" example:"word"`
	// Title names the project and seeds export filenames.
	Title string `json:"title" binding:"required,min=1,max=255" example:"Q3 Market Review"`
	// MainTopic anchors all generated content.
	MainTopic string `json:"main_topic" binding:"required,min=1,max=500" example:"Renewable energy adoption in Europe"`
}

// UpdateProjectRequest is the JSON payload for a partial project update.
// Omitted fields are left untouched.
type UpdateProjectRequest struct {
	Title     *string `json:"title,omitempty" example:"Q3 Market Review (final)"`
	MainTopic *string `json:"main_topic,omitempty" example:"Renewable energy adoption in Europe and the UK"`
}

// ListProjectsResponse wraps a page of projects and pagination information.
type ListProjectsResponse struct {
	Projects   []domain.Project `json:"projects"`
	Pagination Pagination       `json:"pagination"`
}

//
// Handlers
//

// CreateProject godoc
// @ID          createProject
// @Summary     Create a new project
// @Description Creates a document project for the current user and returns the project resource.
// @Tags        Projects
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateProjectRequest  true  "Create project payload"
//
// @Success     201  {object}  domain.Project
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /projects [post]
func (h *Handlers) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind, title and main_topic required")
		return
	}

	p, err := h.projectSvc.Create(c.Request.Context(), userID(c), req.Kind, req.Title, req.MainTopic)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListProjects godoc
// @ID          listProjects
// @Summary     List projects (paginated)
// @Description Returns a page of the user's projects, most recently updated first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Projects
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListProjectsResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /projects [get]
func (h *Handlers) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.projectSvc.(*services.ProjectService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ProjectsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"projects:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.projectSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, ListProjectsResponse{
		Projects:   items,
		Pagination: paginate(page, pageSize, total),
	})
}

// GetProject godoc
// @ID          getProject
// @Summary     Fetch a project
// @Description Returns one project owned by the current user.
// @Tags        Projects
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
//
// @Success     200  {object} domain.Project
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Owned by another user"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id} [get]
func (h *Handlers) GetProject(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	p, err := h.projectSvc.Get(c.Request.Context(), userID(c), projectID)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProject godoc
// @ID          updateProject
// @Summary     Update a project
// @Description Applies a partial update to title and/or main topic of a project owned by the current user.
// @Tags        Projects
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
// @Param       body       body    handlers.UpdateProjectRequest  true  "Fields to update"
//
// @Success     200  {object} domain.Project
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Owned by another user"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id} [put]
func (h *Handlers) UpdateProject(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Title == nil && req.MainTopic == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "at least one of title, main_topic required")
		return
	}

	p, err := h.projectSvc.Update(c.Request.Context(), userID(c), projectID, req.Title, req.MainTopic)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeleteProject godoc
// @ID          deleteProject
// @Summary     Delete a project
// @Description Removes a project owned by the current user; its document, history and feedback cascade.
// @Tags        Projects
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Project ID (UUID)"      format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Owned by another user"
// @Failure     404  {object} handlers.ErrorResponse "Project not found"
// @Router      /projects/{id} [delete]
func (h *Handlers) DeleteProject(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := uuid.Parse(projectID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "project id must be a UUID")
		return
	}

	if err := h.projectSvc.Delete(c.Request.Context(), userID(c), projectID); err != nil {
		svcFail(c, err)
		return
	}
	noContent(c)
}
