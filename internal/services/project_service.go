// Package services – ProjectService
//
// This file implements the ProjectService, which manages the lifecycle of
// authoring projects: creation with kind/title/topic validation, paginated
// listing, retrieval, partial update, and deletion. Ownership is enforced
// here (not in the repository) so that "missing" and "belongs to someone
// else" surface as distinct errors.
//
// Service-level errors (e.g., ErrProjectNotFound, ErrProjectForbidden) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-docgen-backend/internal/domain"
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/structure"
)

const (
	// maxProjectTitleRunes caps project titles by rune length.
	maxProjectTitleRunes = 255
	// maxMainTopicRunes caps the main topic by rune length.
	maxMainTopicRunes = 500
)

// ProjectService provides project-level operations such as creating,
// listing, updating metadata, and deleting. It enforces title/topic rules
// and ownership constraints.
type ProjectService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewProjectService constructs a ProjectService.
func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{DB: db}
}

// Create inserts a new project owned by userID. The title and main topic are
// trimmed and validated; kind must name a known document kind.
func (s *ProjectService) Create(ctx context.Context, userID, kind, title, mainTopic string) (*domain.Project, error) {
	k, ok := structure.ParseKind(kind)
	if !ok {
		return nil, ErrInvalidKind
	}
	title, err := validProjectTitle(title)
	if err != nil {
		return nil, err
	}
	mainTopic, err = validMainTopic(mainTopic)
	if err != nil {
		return nil, err
	}
	p, err := repo.CreateProject(ctx, s.DB, userID, k.String(), title, mainTopic)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// ListPage returns a page of the user's projects ordered by last update,
// together with the total count. It applies defaults for invalid
// page/pageSize values.
func (s *ProjectService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Project, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountProjects(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Project{}, 0, nil
	}

	items, err := repo.ListProjectsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get returns the project identified by projectID if it belongs to userID.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	return ownedProject(ctx, s.DB, userID, projectID)
}

// Update applies a partial update to title and/or main topic. Nil fields are
// left untouched; provided fields are trimmed and validated. The stored
// updated_at moves so the project floats to the top of the listing.
func (s *ProjectService) Update(ctx context.Context, userID, projectID string, title, mainTopic *string) (*domain.Project, error) {
	p, err := ownedProject(ctx, s.DB, userID, projectID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if title != nil {
		t, err := validProjectTitle(*title)
		if err != nil {
			return nil, err
		}
		fields["title"] = t
	}
	if mainTopic != nil {
		m, err := validMainTopic(*mainTopic)
		if err != nil {
			return nil, err
		}
		fields["main_topic"] = m
	}

	if err := repo.UpdateProject(ctx, s.DB, projectID, fields); err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	return repo.GetProject(ctx, s.DB, p.ID)
}

// Delete removes the project and, through the database cascade, its
// document, refinement history and feedback.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	if _, err := ownedProject(ctx, s.DB, userID, projectID); err != nil {
		return err
	}
	if err := repo.DeleteProject(ctx, s.DB, projectID); err != nil {
		if isNotFound(err) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// ownedProject loads a project by id and enforces ownership: a missing row
// maps to ErrProjectNotFound, a foreign row to ErrProjectForbidden.
func ownedProject(ctx context.Context, db *gorm.DB, userID, projectID string) (*domain.Project, error) {
	p, err := repo.GetProject(ctx, db, projectID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	if p.UserID != userID {
		return nil, ErrProjectForbidden
	}
	return p, nil
}

// validProjectTitle trims and validates a project title.
func validProjectTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > maxProjectTitleRunes {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// validMainTopic trims and validates a project main topic.
func validMainTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrEmptyTopic
	}
	if utf8.RuneCountInString(topic) > maxMainTopicRunes {
		return "", ErrTopicTooLong
	}
	return topic, nil
}
