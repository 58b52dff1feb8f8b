// Package services – GenerationService
//
// This file implements the GenerationService, the orchestrator that turns an
// outline into generated text. It drives the AI capability item by item with
// the preceding titles as context, commits every produced text through the
// content store (one version bump per item), and reports generation progress.
// Bulk generation never aborts on a provider failure: the failed item gets a
// placeholder and the batch moves on. Single-item generation surfaces the
// failure instead.
//
// Observability: orchestration methods are OpenTelemetry-instrumented; spans
// include project/item identifiers.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-docgen-backend/internal/domain"
	"github.com/tbourn/go-docgen-backend/internal/genai"
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/structure"
)

// Generation progress states.
const (
	StatusNotConfigured = "not_configured"
	StatusPartial       = "partial"
	StatusCompleted     = "completed"
)

// GenerationStatus summarizes how much of an outline has content.
type GenerationStatus struct {
	Status     string
	Kind       structure.Kind
	Total      int
	Generated  int
	Percentage int
}

// GenerationService coordinates AI content generation for documents.
type GenerationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// AI produces text from prompts. Wrap it with genai.Retrying at wiring
	// time; the service treats a returned error as a exhausted retry budget.
	AI genai.Completer

	// Limiter paces provider calls during bulk generation. Nil disables
	// pacing.
	Limiter *rate.Limiter
}

// NewGenerationService constructs a GenerationService with the default
// pacing of one provider call per half second during bulk generation.
func NewGenerationService(db *gorm.DB, ai genai.Completer) *GenerationService {
	return &GenerationService{
		DB:      db,
		AI:      ai,
		Limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// GenerateAll generates content for every outline item in order. Items that
// fail after retries receive a placeholder naming the item; the batch
// continues. Each produced text is committed separately, so the document
// version advances once per item. The returned document is the state after
// the last commit.
func (s *GenerationService) GenerateAll(ctx context.Context, userID, projectID string) (*domain.Document, error) {
	tr := otel.Tracer("services/GenerationService")
	ctx, span := tr.Start(ctx, "GenerateAll",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("user.id", userID),
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
			return nil, failf(ErrDocumentNotFound, "Document not found. Please configure the document structure first.")
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	kind := structure.Kind(p.Kind)
	items, err := structure.Items(kind, doc.Structure)
	if err != nil {
		return nil, ErrInvalidStructure
	}
	if len(items) == 0 {
		return nil, ErrNotConfigured
	}

	previous := make([]string, 0, len(items))
	for _, it := range structure.Sorted(items) {
		if it.ID == "" || it.Title == "" {
			continue
		}
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		text, err := s.complete(ctx, genai.ContentPrompt(kind, p.MainTopic, it.Title, previous))
		if err != nil {
			text = genai.Placeholder(kind, it.Title)
		}
		doc, err = putContent(ctx, s.DB, doc, it.ID, text)
		if err != nil {
			return nil, fmt.Errorf("store %s %q: %w", kind.ItemNoun(), it.ID, err)
		}
		previous = append(previous, it.Title)
	}
	return doc, nil
}

// GenerateOne generates content for a single outline item, using the same
// preceding-titles context rule as GenerateAll. Unlike the batch path, a
// provider failure is surfaced instead of downgraded to a placeholder and
// nothing is committed.
func (s *GenerationService) GenerateOne(ctx context.Context, userID, projectID, itemID string) (*domain.Document, string, error) {
	tr := otel.Tracer("services/GenerationService")
	ctx, span := tr.Start(ctx, "GenerateOne",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("item.id", itemID),
		),
	)
	defer span.End()

	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, "", err
	}
	doc, err := repo.GetDocumentByProject(ctx, s.DB, p.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrDocumentNotFound
		}
		return nil, "", fmt.Errorf("load document: %w", err)
	}

	kind := structure.Kind(p.Kind)
	items, err := structure.Items(kind, doc.Structure)
	if err != nil {
		return nil, "", ErrInvalidStructure
	}

	var target *structure.Item
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return nil, "", failf(ErrItemNotFound, "%s '%s' not found in document structure", kind.Label(), itemID)
	}

	previous := precedingTitles(items, target.Order)
	text, err := s.complete(ctx, genai.ContentPrompt(kind, p.MainTopic, target.Title, previous))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	doc, err = putContent(ctx, s.DB, doc, itemID, text)
	if err != nil {
		return nil, "", fmt.Errorf("store %s %q: %w", kind.ItemNoun(), itemID, err)
	}
	return doc, text, nil
}

// Status reports generation progress for the project's document. A project
// without a document reports StatusNotConfigured; otherwise generated counts
// the outline items that have content and the percentage is floor-divided.
// Content kept for items removed by a structure edit does not count, so
// generated never exceeds Total.
func (s *GenerationService) Status(ctx context.Context, userID, projectID string) (*GenerationStatus, error) {
	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, err
	}
	kind := structure.Kind(p.Kind)

	doc, err := repo.GetDocumentByProject(ctx, s.DB, p.ID)
	if err != nil {
		if isNotFound(err) {
			return &GenerationStatus{Status: StatusNotConfigured, Kind: kind}, nil
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	items, err := structure.Items(kind, doc.Structure)
	if err != nil {
		return nil, ErrInvalidStructure
	}
	if len(items) == 0 {
		return &GenerationStatus{Status: StatusNotConfigured, Kind: kind}, nil
	}
	content, err := contentMap(doc)
	if err != nil {
		return nil, err
	}

	generated := 0
	for _, it := range items {
		if _, ok := content[it.ID]; ok {
			generated++
		}
	}

	st := &GenerationStatus{
		Status:    StatusPartial,
		Kind:      kind,
		Total:     len(items),
		Generated: generated,
	}
	if generated == st.Total {
		st.Status = StatusCompleted
	}
	if st.Total > 0 {
		st.Percentage = generated * 100 / st.Total
	}
	return st, nil
}

// SuggestOutline asks the AI capability for an outline proposal on the given
// topic, falling back to the project's main topic when it is blank.
// Nothing is stored: the caller reviews the proposal and configures
// the document explicitly. The request kind must match the project kind.
// Provider failures and unparseable output fall back to a static outline, so
// the operation degrades instead of failing on AI quality.
func (s *GenerationService) SuggestOutline(ctx context.Context, userID, projectID, topic string, want structure.Kind) ([]structure.Item, error) {
	tr := otel.Tracer("services/GenerationService")
	ctx, span := tr.Start(ctx, "SuggestOutline",
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
	if structure.Kind(p.Kind) != want {
		return nil, failf(ErrKindMismatch, "Document type mismatch. Project is %s, but request is %s", p.Kind, want)
	}

	// A blank topic falls back to the project's main topic.
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = p.MainTopic
	}

	out, err := s.complete(ctx, genai.OutlinePrompt(want, topic))
	if err != nil {
		return genai.FallbackOutline(want), nil
	}
	items, err := genai.ParseOutline(want, out)
	if err != nil {
		return genai.FallbackOutline(want), nil
	}
	return items, nil
}

// complete calls the AI capability and normalizes blank output to an error.
func (s *GenerationService) complete(ctx context.Context, prompt string) (string, error) {
	out, err := s.AI.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	out = genai.StripCodeFence(out)
	if out == "" {
		return "", genai.ErrEmptyCompletion
	}
	return out, nil
}

// precedingTitles returns the titles of all items ordered before the given
// order value, in canonical sequence order.
func precedingTitles(items []structure.Item, order int) []string {
	var titles []string
	for _, it := range structure.Sorted(items) {
		if it.Order < order {
			titles = append(titles, it.Title)
		}
	}
	return titles
}
