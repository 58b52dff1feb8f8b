// Package services – TemplateService
//
// This file implements the TemplateService, which manages reusable style
// templates applied at export time: CRUD with ownership checks, config
// validation against the render layer's schema, and the single-default
// invariant (at most one default template per user and kind).
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-docgen-backend/internal/domain"
	"github.com/tbourn/go-docgen-backend/internal/render"
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/structure"
)

// maxTemplateNameRunes caps template names by rune length.
const maxTemplateNameRunes = 255

// TemplateService provides style-template operations.
type TemplateService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{DB: db}
}

// Create inserts a new template owned by userID. The name is trimmed and
// validated, kind must name a document kind, and config must decode against
// the render schema (empty config is allowed; defaults resolve at render
// time). Marking the template default clears any previous default of the
// same kind atomically.
func (s *TemplateService) Create(ctx context.Context, userID, name string, description *string, kind string, config []byte, isDefault, isPublic bool) (*domain.Template, error) {
	k, ok := structure.ParseKind(kind)
	if !ok {
		return nil, ErrInvalidKind
	}
	name, err := validTemplateName(name)
	if err != nil {
		return nil, err
	}
	if _, err := render.ParseConfig(config); err != nil {
		return nil, ErrInvalidConfig
	}
	if len(config) == 0 {
		config = []byte("{}")
	}

	var t *domain.Template
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isDefault {
			if err := repo.ClearDefaultTemplates(ctx, tx, userID, k.String(), ""); err != nil {
				return err
			}
		}
		var err error
		t, err = repo.CreateTemplate(ctx, tx, userID, name, description, k.String(), config, isDefault, isPublic)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

// List returns the user's templates, defaults first. kind narrows the
// listing when non-empty and must then name a document kind.
func (s *TemplateService) List(ctx context.Context, userID, kind string) ([]domain.Template, error) {
	if kind != "" {
		if _, ok := structure.ParseKind(kind); !ok {
			return nil, ErrInvalidKind
		}
	}
	return repo.ListTemplates(ctx, s.DB, userID, kind)
}

// Get returns one template when it is visible to userID: owned or public.
func (s *TemplateService) Get(ctx context.Context, userID, templateID string) (*domain.Template, error) {
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
	return t, nil
}

// DefaultFor returns the user's default template for a kind, or
// ErrNoTemplate when none is marked default.
func (s *TemplateService) DefaultFor(ctx context.Context, userID, kind string) (*domain.Template, error) {
	k, ok := structure.ParseKind(kind)
	if !ok {
		return nil, ErrInvalidKind
	}
	list, err := repo.ListTemplates(ctx, s.DB, userID, k.String())
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	for i := range list {
		if list[i].IsDefault {
			return &list[i], nil
		}
	}
	return nil, failf(ErrNoTemplate, "No default template found for %s documents", k.Display())
}

// Update applies a partial update to a template the user owns. Nil fields
// stay untouched; provided fields are validated like Create. Promoting a
// template to default demotes the previous default of the same kind in the
// same transaction.
func (s *TemplateService) Update(ctx context.Context, userID, templateID string, name, description *string, config []byte, isDefault, isPublic *bool) (*domain.Template, error) {
	t, err := s.owned(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if name != nil {
		n, err := validTemplateName(*name)
		if err != nil {
			return nil, err
		}
		fields["name"] = n
	}
	if description != nil {
		fields["description"] = *description
	}
	if config != nil {
		if _, err := render.ParseConfig(config); err != nil {
			return nil, ErrInvalidConfig
		}
		fields["config"] = config
	}
	if isPublic != nil {
		fields["is_public"] = *isPublic
	}
	if isDefault != nil {
		fields["is_default"] = *isDefault
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isDefault != nil && *isDefault {
			if err := repo.ClearDefaultTemplates(ctx, tx, userID, t.Kind, t.ID); err != nil {
				return err
			}
		}
		return repo.UpdateTemplate(ctx, tx, t.ID, fields)
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("update template: %w", err)
	}
	return repo.GetTemplate(ctx, s.DB, t.ID)
}

// Delete removes a template the user owns.
func (s *TemplateService) Delete(ctx context.Context, userID, templateID string) error {
	t, err := s.owned(ctx, userID, templateID)
	if err != nil {
		return err
	}
	if err := repo.DeleteTemplate(ctx, s.DB, t.ID); err != nil {
		if isNotFound(err) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// owned loads a template and enforces ownership. Unlike Get, public
// templates of other users do not pass: they are readable, not editable.
func (s *TemplateService) owned(ctx context.Context, userID, templateID string) (*domain.Template, error) {
	t, err := repo.GetTemplate(ctx, s.DB, templateID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("load template: %w", err)
	}
	if t.UserID != userID {
		return nil, ErrTemplateForbidden
	}
	return t, nil
}

// validTemplateName trims and validates a template name.
func validTemplateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxTemplateNameRunes {
		return "", ErrNameTooLong
	}
	return name, nil
}
