// Package services – ExportService
//
// This file implements the ExportService, which composes a document for
// download: outline items sorted canonically, each paired with its generated
// text or the not-generated placeholder, handed to the injected render
// capability together with the resolved style template. The service never
// formats binaries itself and never mutates the document.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-docgen-backend/internal/render"
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/structure"
)

// Export is the result of composing and rendering one document.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Content types for the two export formats.
const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// ExportService composes documents and drives the render capability.
type ExportService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Renderer produces the binary file. Injected so tests can capture the
	// composed sequence without building real archives.
	Renderer render.Renderer

	// Now returns the timestamp embedded in filenames. Nil means
	// time.Now().UTC.
	Now func() time.Time
}

// NewExportService constructs an ExportService using the built-in OOXML
// renderer.
func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{DB: db, Renderer: render.OOXML{}}
}

func (s *ExportService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Export renders the project's document for download. The request kind must
// match the project kind; the outline must decode and hold at least one item.
// Style resolution: templateID when given (owned or public), otherwise the
// user's default template for the kind, otherwise no template (renderer
// defaults apply). Items without content export the placeholder marker, so a
// partially generated document still downloads.
func (s *ExportService) Export(ctx context.Context, userID, projectID string, want structure.Kind, templateID string) (*Export, error) {
	tr := otel.Tracer("services/ExportService")
	ctx, span := tr.Start(ctx, "Export",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("kind", want.String()),
		),
	)
	defer span.End()

	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, err
	}
	kind := structure.Kind(p.Kind)
	if kind != want {
		return nil, failf(ErrKindMismatch, "Project is a %s document, not %s", kind.Display(), want.Display())
	}

	doc, err := repo.GetDocumentByProject(ctx, s.DB, p.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, failf(ErrDocumentNotFound, "Document not found. Please configure and generate content first.")
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	items, err := structure.Items(kind, doc.Structure)
	if err != nil {
		return nil, ErrInvalidStructure
	}
	if len(items) == 0 {
		return nil, failf(ErrDocumentEmpty, "%s document has no %ss to export", kind.Display(), kind.ItemNoun())
	}
	content, err := contentMap(doc)
	if err != nil {
		return nil, err
	}

	composed := render.Doc{
		Title:     p.Title,
		Subtitle:  p.MainTopic,
		Author:    p.UserID,
		CreatedAt: s.now(),
		Items:     make([]render.Item, 0, len(items)),
	}
	for _, it := range structure.Sorted(items) {
		text := content[it.ID]
		if strings.TrimSpace(text) == "" {
			text = render.NotGenerated
		}
		composed.Items = append(composed.Items, render.Item{Title: it.Title, Text: text})
	}

	style, err := s.resolveStyle(ctx, userID, kind, templateID)
	if err != nil {
		return nil, err
	}

	data, err := s.Renderer.Render(kind, composed, style)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", kind.Extension(), err)
	}

	ct := docxContentType
	if kind == structure.PowerPoint {
		ct = pptxContentType
	}
	return &Export{
		Filename:    render.Filename(p.Title, kind, s.now()),
		ContentType: ct,
		Data:        data,
	}, nil
}

// resolveStyle picks the template configuration for an export. An explicit
// template must exist and be visible to the user (owned or public) and match
// the kind; without one, the user's default for the kind applies when
// present, and nil otherwise.
func (s *ExportService) resolveStyle(ctx context.Context, userID string, kind structure.Kind, templateID string) (*render.Config, error) {
	if templateID != "" {
		t, err := repo.GetTemplate(ctx, s.DB, templateID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrTemplateNotFound
			}
			return nil, fmt.Errorf("load template: %w", err)
		}
		if t.UserID != userID && !t.IsPublic {
			return nil, ErrTemplateForbidden
		}
		if t.Kind != kind.String() {
			return nil, failf(ErrKindMismatch, "Template is for %s documents", structure.Kind(t.Kind).Display())
		}
		cfg, err := render.ParseConfig(t.Config)
		if err != nil {
			return nil, ErrInvalidConfig
		}
		return cfg, nil
	}

	list, err := repo.ListTemplates(ctx, s.DB, userID, kind.String())
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	for i := range list {
		if list[i].IsDefault {
			cfg, err := render.ParseConfig(list[i].Config)
			if err != nil {
				// A corrupt default should not block exports; fall back to
				// renderer defaults.
				return nil, nil
			}
			return cfg, nil
		}
	}
	return nil, nil
}
