// Package services – FeedbackService
//
// This file implements the FeedbackService, the ledger of like/dislike
// signals attached to document items. The ledger is pure CRUD over a single
// row per (document, item): submitting null deletes the row, a new value
// creates it, the opposite value updates it in place, and resubmitting the
// same value is an idempotent overwrite that only moves updated_at. Toggle
// -on-repeat-click is a client concern; the ledger cannot tell a repeated
// click from a deliberate resubmission.
//
// Feedback requires the item to have generated content: rating text that
// does not exist yet is rejected with ErrNoContent.
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
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/structure"
)

// FeedbackService implements the use-cases around item feedback. It validates
// the operation (ownership, generated content, allowed values) and persists
// the signal using the provided GORM handle.
type FeedbackService struct {
	// DB is the database handle used for all feedback operations.
	DB *gorm.DB
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{DB: db}
}

// Submit records, replaces or removes the feedback signal for one item.
//
// Semantics:
//   - typ nil       → delete the row if present; returns (nil, nil) either way.
//   - no row yet    → create it with the given type.
//   - same type     → overwrite in place; updated_at moves, nothing else.
//   - opposite type → update the type in place; the row id is stable.
//
// Preconditions: the project must belong to userID, the document must exist,
// and the item must have content (ErrNoContent otherwise). typ, when
// non-nil, must be "like" or "dislike" (ErrInvalidFeedback otherwise).
func (s *FeedbackService) Submit(ctx context.Context, userID, projectID, itemID string, typ *string) (*domain.Feedback, error) {
	tr := otel.Tracer("services/FeedbackService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("item.id", itemID),
		),
	)
	defer span.End()

	if typ != nil {
		switch *typ {
		case domain.FeedbackLike, domain.FeedbackDislike:
		default:
			return nil, ErrInvalidFeedback
		}
	}

	doc, err := s.ratableDocument(ctx, userID, projectID, itemID)
	if err != nil {
		return nil, err
	}

	existing, err := repo.GetFeedback(ctx, s.DB, doc.ID, itemID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("load feedback: %w", err)
	}

	// Reset to neutral.
	if typ == nil {
		if existing == nil {
			return nil, nil
		}
		if err := repo.DeleteFeedback(ctx, s.DB, existing.ID); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("delete feedback: %w", err)
		}
		return nil, nil
	}

	if existing == nil {
		fb, err := repo.CreateFeedback(ctx, s.DB, doc.ID, itemID, *typ)
		if err != nil {
			// A concurrent submit may have taken the unique slot; fall back
			// to updating the winner's row.
			if isDuplicate(err) {
				if existing, gerr := repo.GetFeedback(ctx, s.DB, doc.ID, itemID); gerr == nil {
					if uerr := repo.UpdateFeedbackType(ctx, s.DB, existing.ID, *typ); uerr == nil {
						return repo.GetFeedback(ctx, s.DB, doc.ID, itemID)
					}
				}
			}
			return nil, fmt.Errorf("create feedback: %w", err)
		}
		return fb, nil
	}

	// Same or opposite value: update in place either way so updated_at
	// records the latest submission.
	if err := repo.UpdateFeedbackType(ctx, s.DB, existing.ID, *typ); err != nil {
		return nil, fmt.Errorf("update feedback: %w", err)
	}
	return repo.GetFeedback(ctx, s.DB, doc.ID, itemID)
}

// Map returns the item-id → type mapping of all feedback on the project's
// document, optionally narrowed to specific item ids. A project without a
// document has no feedback and maps to an empty result.
func (s *FeedbackService) Map(ctx context.Context, userID, projectID string, itemIDs []string) (map[string]string, error) {
	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, err
	}
	doc, err := repo.GetDocumentByProject(ctx, s.DB, p.ID)
	if err != nil {
		if isNotFound(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	rows, err := repo.ListFeedbackByDocument(ctx, s.DB, doc.ID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, fb := range rows {
		out[fb.ItemID] = fb.Type
	}
	return out, nil
}

// ratableDocument loads the document of an owned project and checks that the
// item has generated content.
func (s *FeedbackService) ratableDocument(ctx context.Context, userID, projectID, itemID string) (*domain.Document, error) {
	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, err
	}
	kind := structure.Kind(p.Kind)

	doc, err := repo.GetDocumentByProject(ctx, s.DB, p.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	content, err := contentMap(doc)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content[itemID]) == "" {
		return nil, failf(ErrNoContent, "%s '%s' has no content to provide feedback on", kind.Label(), itemID)
	}
	return doc, nil
}
