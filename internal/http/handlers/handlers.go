// Handler wiring shared by all endpoint files.
//
// This file defines the service contracts consumed by the HTTP layer, the
// Handlers aggregate, user resolution, pagination helpers, and the central
// translation of service errors into HTTP responses. Individual endpoint
// files (project_handler.go, document_handler.go, ...) stay transport-thin:
// they validate input, call a service, and hand errors to svcFail.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-docgen-backend/internal/domain"
	"github.com/tbourn/go-docgen-backend/internal/search"
	"github.com/tbourn/go-docgen-backend/internal/services"
	"github.com/tbourn/go-docgen-backend/internal/structure"
	"github.com/tbourn/go-docgen-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ProjectService defines project lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ProjectService interface {
	// Create starts a new project of the given kind for userID.
	Create(ctx context.Context, userID, kind, title, mainTopic string) (*domain.Project, error)
	// ListPage returns a page of the user's projects and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Project, int64, error)
	// Get returns one project owned by userID.
	Get(ctx context.Context, userID, projectID string) (*domain.Project, error)
	// Update applies a partial update to title and/or main topic.
	Update(ctx context.Context, userID, projectID string, title, mainTopic *string) (*domain.Project, error)
	// Delete removes a project and its document cascade.
	Delete(ctx context.Context, userID, projectID string) error
}

// DocumentService defines document structure and content operations.
type DocumentService interface {
	// GetOrCreate returns the project's document, creating a default one.
	GetOrCreate(ctx context.Context, userID, projectID string) (*domain.Document, error)
	// Configure replaces the outline after validation.
	Configure(ctx context.Context, userID, projectID string, raw []byte) (*domain.Document, error)
	// UpdateStructure edits the outline of an existing document.
	UpdateStructure(ctx context.Context, userID, projectID string, raw []byte) (*domain.Document, error)
	// Reorder remaps item order values for a kind-checked document.
	Reorder(ctx context.Context, userID, projectID string, want structure.Kind, orders map[string]int) (*domain.Document, error)
	// SearchContent ranks generated content against a query.
	SearchContent(ctx context.Context, userID, projectID, query string, topK int) ([]search.Result, error)
}

// GenerationService defines AI content generation operations.
type GenerationService interface {
	// GenerateAll fills every outline item, never aborting mid-run.
	GenerateAll(ctx context.Context, userID, projectID string) (*domain.Document, error)
	// GenerateOne fills a single item and returns its text.
	GenerateOne(ctx context.Context, userID, projectID, itemID string) (*domain.Document, string, error)
	// Status reports generation progress for the document.
	Status(ctx context.Context, userID, projectID string) (*services.GenerationStatus, error)
	// SuggestOutline proposes an outline for a topic.
	SuggestOutline(ctx context.Context, userID, projectID, topic string, want structure.Kind) ([]structure.Item, error)
}

// RefinementService defines refinement and comment operations.
type RefinementService interface {
	// Refine rewrites one item's content from a free-text instruction.
	Refine(ctx context.Context, userID, projectID, itemID, prompt string) (*domain.Refinement, *domain.Document, error)
	// AddComment attaches a note to an item's history.
	AddComment(ctx context.Context, userID, projectID, itemID, comment string) (*domain.Refinement, error)
	// History returns a page of refinement rows, newest first.
	History(ctx context.Context, userID, projectID, itemID string, page, pageSize int) ([]domain.Refinement, int64, error)
}

// FeedbackService defines like/dislike operations on document items.
type FeedbackService interface {
	// Submit records, overwrites, or (with nil) clears feedback on an item.
	Submit(ctx context.Context, userID, projectID, itemID string, typ *string) (*domain.Feedback, error)
	// Map returns the item-id to type mapping of existing feedback.
	Map(ctx context.Context, userID, projectID string, itemIDs []string) (map[string]string, error)
}

// ExportService defines document download operations.
type ExportService interface {
	// Export composes and renders the document as a binary file.
	Export(ctx context.Context, userID, projectID string, want structure.Kind, templateID string) (*services.Export, error)
}

// TemplateService defines style-template operations.
type TemplateService interface {
	Create(ctx context.Context, userID, name string, description *string, kind string, config []byte, isDefault, isPublic bool) (*domain.Template, error)
	List(ctx context.Context, userID, kind string) ([]domain.Template, error)
	Get(ctx context.Context, userID, templateID string) (*domain.Template, error)
	DefaultFor(ctx context.Context, userID, kind string) (*domain.Template, error)
	Update(ctx context.Context, userID, templateID string, name, description *string, config []byte, isDefault, isPublic *bool) (*domain.Template, error)
	Delete(ctx context.Context, userID, templateID string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for projects, documents, generation,
// refinement, feedback, export, and templates. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	projectSvc    ProjectService
	documentSvc   DocumentService
	generationSvc GenerationService
	refinementSvc RefinementService
	feedbackSvc   FeedbackService
	exportSvc     ExportService
	templateSvc   TemplateService

	// idemTTL bounds how long a stored generation result can be replayed.
	idemTTL time.Duration
}

// SetIdempotencyTTL overrides the replay window for stored generation
// results. Non-positive values keep the default of 24 hours.
func (h *Handlers) SetIdempotencyTTL(d time.Duration) {
	if d > 0 {
		h.idemTTL = d
	}
}

// New constructs a Handlers instance bound to the given services.
func New(
	projectSvc ProjectService,
	documentSvc DocumentService,
	generationSvc GenerationService,
	refinementSvc RefinementService,
	feedbackSvc FeedbackService,
	exportSvc ExportService,
	templateSvc TemplateService,
) *Handlers {
	return &Handlers{
		projectSvc:    projectSvc,
		documentSvc:   documentSvc,
		generationSvc: generationSvc,
		refinementSvc: refinementSvc,
		feedbackSvc:   feedbackSvc,
		exportSvc:     exportSvc,
		templateSvc:   templateSvc,
		idemTTL:       24 * time.Hour,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// paginate derives the metadata block from a total row count.
func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Error translation
//

// svcFail maps a service error to an HTTP status and stable code, surfacing
// the service's client-facing message verbatim. Unknown errors become 500s.
func svcFail(c *gin.Context, err error) {
	svcFailCode(c, err, ErrCodeInternal)
}

// svcFailCode is svcFail with a caller-chosen code for unrecognized errors,
// used where the endpoint's failure mode has its own stable code.
func svcFailCode(c *gin.Context, err error, defaultCode string) {
	var ve *structure.ValidationError
	if errors.As(err, &ve) {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStructure, ve.Error())
		return
	}

	switch {
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrDocumentNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrNoTemplate):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())

	case errors.Is(err, services.ErrProjectForbidden),
		errors.Is(err, services.ErrTemplateForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())

	case errors.Is(err, services.ErrInvalidStructure):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStructure, err.Error())

	case errors.Is(err, services.ErrEmptyTitle),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrEmptyTopic),
		errors.Is(err, services.ErrTopicTooLong),
		errors.Is(err, services.ErrInvalidKind),
		errors.Is(err, services.ErrKindMismatch),
		errors.Is(err, services.ErrEmptyPrompt),
		errors.Is(err, services.ErrEmptyComment),
		errors.Is(err, services.ErrInvalidFeedback),
		errors.Is(err, services.ErrEmptyName),
		errors.Is(err, services.ErrNameTooLong),
		errors.Is(err, services.ErrInvalidConfig),
		errors.Is(err, services.ErrNotConfigured),
		errors.Is(err, services.ErrDocumentEmpty),
		errors.Is(err, services.ErrNoContent):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())

	case errors.Is(err, services.ErrGenerationFailed),
		errors.Is(err, services.ErrEmptyRefinement):
		fail(c, http.StatusBadGateway, ErrCodeGenerationFailed, err.Error())

	default:
		fail(c, http.StatusInternalServerError, defaultCode, err.Error())
	}
}
