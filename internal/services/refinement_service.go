// Package services – RefinementService
//
// This file implements the RefinementService, which rewrites one item's
// content from a free-text instruction and keeps the bounded per-item history
// of those actions. The service reads the current text only to build the AI
// prompt and the history mirror; the content map stays the single source of
// truth. Each refinement commits atomically: new content (one version bump),
// one history row, and the prune that keeps at most HistoryKeep rows per
// (document, item).
//
// The comment path shares the preconditions but never calls the AI and never
// touches content. Comment rows still count toward the prune cap: the limit
// is on history rows, whatever their flavor.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// project/item identifiers.
package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-docgen-backend/internal/domain"
	"github.com/tbourn/go-docgen-backend/internal/genai"
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/structure"
)

// defaultHistoryKeep is the per-item history bound applied when the service
// is constructed without an explicit value.
const defaultHistoryKeep = 3

// RefinementService coordinates AI-driven content refinement and the
// surrounding history bookkeeping.
type RefinementService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// AI produces text from prompts. Wrap it with genai.Retrying at wiring
	// time; the service treats a returned error as an exhausted retry budget.
	AI genai.Completer

	// HistoryKeep bounds how many history rows survive per (document, item).
	// Zero or negative falls back to defaultHistoryKeep.
	HistoryKeep int
}

// NewRefinementService constructs a RefinementService with the default
// history bound.
func NewRefinementService(db *gorm.DB, ai genai.Completer) *RefinementService {
	return &RefinementService{DB: db, AI: ai, HistoryKeep: defaultHistoryKeep}
}

func (s *RefinementService) keep() int {
	if s.HistoryKeep > 0 {
		return s.HistoryKeep
	}
	return defaultHistoryKeep
}

// Refine rewrites the content of one item according to the user's free-text
// instruction. The previous text, the item title, the instruction and the
// project topic feed the AI prompt; blank output is rejected with
// ErrEmptyRefinement. On success the new text, the history row and the prune
// commit together, and the fresh document plus the created row are returned.
func (s *RefinementService) Refine(ctx context.Context, userID, projectID, itemID, prompt string) (*domain.Refinement, *domain.Document, error) {
	tr := otel.Tracer("services/RefinementService")
	ctx, span := tr.Start(ctx, "Refine",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("item.id", itemID),
		),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, nil, ErrEmptyPrompt
	}

	p, doc, item, previous, err := s.refinableItem(ctx, userID, projectID, itemID)
	if err != nil {
		return nil, nil, err
	}
	kind := structure.Kind(p.Kind)

	out, err := s.AI.Complete(ctx, genai.RefinePrompt(kind, item.Title, previous, prompt, p.MainTopic))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	next := genai.StripCodeFence(out)
	if next == "" {
		return nil, nil, ErrEmptyRefinement
	}

	var rec *domain.Refinement
	var fresh *domain.Document
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err = putContent(ctx, tx, doc, itemID, next)
		if err != nil {
			return err
		}
		rec, err = repo.CreateRefinement(ctx, tx, doc.ID, itemID, &prompt, nil, &previous, &next)
		if err != nil {
			return err
		}
		_, err = repo.PruneRefinements(ctx, tx, doc.ID, itemID, s.keep())
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("commit refinement: %w", err)
	}
	return rec, fresh, nil
}

// AddComment attaches a free-text note to one item's history. The
// preconditions match Refine but no AI call happens and the content map is
// untouched; only the history row (and its prune) commits.
func (s *RefinementService) AddComment(ctx context.Context, userID, projectID, itemID, comment string) (*domain.Refinement, error) {
	tr := otel.Tracer("services/RefinementService")
	ctx, span := tr.Start(ctx, "AddComment",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("item.id", itemID),
		),
	)
	defer span.End()

	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrEmptyComment
	}

	_, doc, _, previous, err := s.refinableItem(ctx, userID, projectID, itemID)
	if err != nil {
		return nil, err
	}

	var rec *domain.Refinement
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err = repo.CreateRefinement(ctx, tx, doc.ID, itemID, nil, &comment, &previous, nil)
		if err != nil {
			return err
		}
		_, err = repo.PruneRefinements(ctx, tx, doc.ID, itemID, s.keep())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("commit comment: %w", err)
	}
	return rec, nil
}

// History returns a page of the document's refinement rows, newest first,
// with the total count. itemID narrows the listing to one item when
// non-empty.
func (s *RefinementService) History(ctx context.Context, userID, projectID, itemID string, page, pageSize int) ([]domain.Refinement, int64, error) {
	tr := otel.Tracer("services/RefinementService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, 0, err
	}
	doc, err := repo.GetDocumentByProject(ctx, s.DB, p.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, 0, ErrDocumentNotFound
		}
		return nil, 0, fmt.Errorf("load document: %w", err)
	}

	total, err := repo.CountRefinements(ctx, s.DB, doc.ID, itemID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Refinement{}, 0, nil
	}

	items, err := repo.ListRefinementsPage(ctx, s.DB, doc.ID, itemID, offset, pageSize)
	return items, total, err
}

// refinableItem enforces the shared refine/comment preconditions: owned
// project, existing document, content present for the item (checked first),
// and the item still part of the outline. It returns the project, the
// document, the outline item and its current text.
func (s *RefinementService) refinableItem(ctx context.Context, userID, projectID, itemID string) (*domain.Project, *domain.Document, *structure.Item, string, error) {
	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, nil, nil, "", err
	}
	kind := structure.Kind(p.Kind)

	doc, err := repo.GetDocumentByProject(ctx, s.DB, p.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, nil, "", failf(ErrDocumentNotFound, "Document not found. Please generate content first.")
		}
		return nil, nil, nil, "", fmt.Errorf("load document: %w", err)
	}

	content, err := contentMap(doc)
	if err != nil {
		return nil, nil, nil, "", err
	}
	previous := content[itemID]
	if strings.TrimSpace(previous) == "" {
		return nil, nil, nil, "", failf(ErrNoContent, "%s '%s' has no content to refine. Please generate content first.", kind.Label(), itemID)
	}

	items, err := structure.Items(kind, doc.Structure)
	if err != nil {
		return nil, nil, nil, "", ErrInvalidStructure
	}
	for i := range items {
		if items[i].ID == itemID {
			return p, doc, &items[i], previous, nil
		}
	}
	return nil, nil, nil, "", failf(ErrItemNotFound, "%s '%s' not found in document structure", kind.Label(), itemID)
}
