// Package services – DocumentService
//
// This file implements the DocumentService, which owns the document row of a
// project: lazy creation with a default outline, full structure replacement
// (configure and update), item reordering, and search across generated
// content. Every committed mutation advances the document version by exactly
// one; writes go through compare-and-set helpers that retry when a concurrent
// writer moved the version.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-docgen-backend/internal/domain"
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/search"
	"github.com/tbourn/go-docgen-backend/internal/structure"
)

// casRetries bounds how often a compare-and-set write is retried after
// losing a version race before the conflict is surfaced.
const casRetries = 3

// DocumentService provides outline-level operations on a project's document.
type DocumentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db *gorm.DB) *DocumentService {
	return &DocumentService{DB: db}
}

// GetOrCreate returns the project's document, creating it at version 1 with
// the default outline for the project kind when none exists yet.
func (s *DocumentService) GetOrCreate(ctx context.Context, userID, projectID string) (*domain.Document, error) {
	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, err
	}
	return getOrCreateDocument(ctx, s.DB, p)
}

// Configure validates raw as an outline for the project kind and stores it,
// creating the document first when the project has none. The returned
// document carries the new outline and the advanced version.
func (s *DocumentService) Configure(ctx context.Context, userID, projectID string, raw []byte) (*domain.Document, error) {
	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, err
	}
	kind := structure.Kind(p.Kind)
	if err := structure.Validate(kind, raw); err != nil {
		return nil, err
	}
	doc, err := getOrCreateDocument(ctx, s.DB, p)
	if err != nil {
		return nil, err
	}
	return setStructure(ctx, s.DB, doc, raw)
}

// UpdateStructure replaces the outline of an existing document. Unlike
// Configure it does not create the document: updating an unconfigured
// project is an error.
func (s *DocumentService) UpdateStructure(ctx context.Context, userID, projectID string, raw []byte) (*domain.Document, error) {
	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, err
	}
	kind := structure.Kind(p.Kind)
	if err := structure.Validate(kind, raw); err != nil {
		return nil, err
	}
	doc, err := repo.GetDocumentByProject(ctx, s.DB, p.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, failf(ErrDocumentNotFound, "Document not found. Please configure the document first.")
		}
		return nil, fmt.Errorf("load document: %w", err)
	}
	return setStructure(ctx, s.DB, doc, raw)
}

// Reorder remaps the order values of the listed item ids and persists the
// result. The operation is restricted to projects of the given kind; ids not
// present in the outline are ignored, and the remapped outline is validated
// before it is stored so duplicate orders are rejected.
func (s *DocumentService) Reorder(ctx context.Context, userID, projectID string, want structure.Kind, orders map[string]int) (*domain.Document, error) {
	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, err
	}
	if structure.Kind(p.Kind) != want {
		return nil, failf(ErrKindMismatch, "Reorder %s is only available for %s documents", want.Key(), want.Display())
	}
	doc, err := repo.GetDocumentByProject(ctx, s.DB, p.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	raw, err := structure.ApplyOrders(want, doc.Structure, orders)
	if err != nil {
		return nil, ErrInvalidStructure
	}
	if err := structure.Validate(want, raw); err != nil {
		return nil, err
	}
	return setStructure(ctx, s.DB, doc, raw)
}

// SearchContent ranks the generated content of the project's document
// against a free-text query and returns up to topK snippets, each attributed
// to the outline item it came from. Items without content are not indexed.
func (s *DocumentService) SearchContent(ctx context.Context, userID, projectID, query string, topK int) ([]search.Result, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "SearchContent",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.Int("topk", topK),
		),
	)
	defer span.End()

	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, err
	}
	doc, err := repo.GetDocumentByProject(ctx, s.DB, p.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	kind := structure.Kind(p.Kind)
	items, err := structure.Items(kind, doc.Structure)
	if err != nil {
		return nil, ErrInvalidStructure
	}
	content, err := contentMap(doc)
	if err != nil {
		return nil, err
	}

	entries := make([]search.Entry, 0, len(items))
	for _, it := range structure.Sorted(items) {
		text := content[it.ID]
		if strings.TrimSpace(text) == "" {
			continue
		}
		entries = append(entries, search.Entry{ItemID: it.ID, Title: it.Title, Text: text})
	}
	idx := search.NewIndexFromEntries(entries)
	return idx.TopK(query, topK), nil
}

// getOrCreateDocument loads the document of p, creating it with the default
// outline when missing. A lost creation race falls back to reading the row
// the winner inserted.
func getOrCreateDocument(ctx context.Context, db *gorm.DB, p *domain.Project) (*domain.Document, error) {
	doc, err := repo.GetDocumentByProject(ctx, db, p.ID)
	if err == nil {
		return doc, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("load document: %w", err)
	}

	doc, err = repo.CreateDocument(ctx, db, p.ID, structure.Default(structure.Kind(p.Kind)))
	if err != nil {
		if isDuplicate(err) {
			return repo.GetDocumentByProject(ctx, db, p.ID)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// setStructure commits a new outline with a version check, retrying while
// concurrent writers move the document forward. It returns the fresh row.
func setStructure(ctx context.Context, db *gorm.DB, doc *domain.Document, raw []byte) (*domain.Document, error) {
	for attempt := 0; ; attempt++ {
		err := repo.UpdateDocumentStructure(ctx, db, doc.ID, raw, doc.Version)
		if err == nil {
			return repo.GetDocument(ctx, db, doc.ID)
		}
		if !errors.Is(err, repo.ErrConflict) || attempt >= casRetries {
			return nil, err
		}
		fresh, gerr := repo.GetDocument(ctx, db, doc.ID)
		if gerr != nil {
			return nil, ErrDocumentNotFound
		}
		doc = fresh
	}
}

// putContent commits one content-map entry with a version check, retrying
// while concurrent writers move the document forward. It returns the fresh
// row.
func putContent(ctx context.Context, db *gorm.DB, doc *domain.Document, itemID, text string) (*domain.Document, error) {
	for attempt := 0; ; attempt++ {
		content, err := contentMap(doc)
		if err != nil {
			return nil, err
		}
		content[itemID] = text
		raw, err := json.Marshal(content)
		if err != nil {
			return nil, fmt.Errorf("encode content: %w", err)
		}

		err = repo.UpdateDocumentContent(ctx, db, doc.ID, raw, doc.Version)
		if err == nil {
			return repo.GetDocument(ctx, db, doc.ID)
		}
		if !errors.Is(err, repo.ErrConflict) || attempt >= casRetries {
			return nil, err
		}
		fresh, gerr := repo.GetDocument(ctx, db, doc.ID)
		if gerr != nil {
			return nil, ErrDocumentNotFound
		}
		doc = fresh
	}
}

// contentMap decodes the document's content column, tolerating a null or
// empty value.
func contentMap(doc *domain.Document) (map[string]string, error) {
	m := map[string]string{}
	if len(doc.Content) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(doc.Content, &m); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return m, nil
}
