package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/legalmind/legalmind/backend/go-services/internal/apperr"
	"github.com/legalmind/legalmind/backend/go-services/internal/document"
	"github.com/legalmind/legalmind/backend/go-services/internal/document/repository"
)

var ErrNotFound = errors.New("not found")

const maxTitleLength = 200

// Service is the document registry used by the handler layer and by the
// collab routes to resolve document ids.
type Service struct {
	repo repository.Repository
	now  func() time.Time
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() *Service {
	return New(repository.NewMemoryRepo(), time.Now)
}

// NewMongoService returns a Service backed by a MongoDB collection.
func NewMongoService(ctx context.Context, col *mongo.Collection) (*Service, error) {
	repo, err := repository.NewMongoRepo(ctx, col)
	if err != nil {
		return nil, err
	}
	return New(repo, time.Now), nil
}

func New(repo repository.Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Invalid("title", "title is required")
	}
	if len(title) > maxTitleLength {
		return "", apperr.Invalid("title", "title is too long")
	}
	return title, nil
}

func mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Service) Create(ctx context.Context, d *document.Document) (*document.Document, error) {
	title, err := validateTitle(d.Title)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	doc := *d
	doc.ID = uuid.NewString()
	doc.Title = title
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if err := s.repo.Create(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Service) Get(ctx context.Context, id string) (*document.Document, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

// Exists reports whether id names a registered document. Lookup failures
// other than not-found are returned so callers can answer 500 instead of 404.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, nil
	}
	_, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) List(ctx context.Context, caseID string) ([]*document.Document, error) {
	return s.repo.List(ctx, caseID)
}

func (s *Service) Update(ctx context.Context, id string, patch document.Patch) (*document.Document, error) {
	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	d, err := s.repo.Update(ctx, id, patch, s.now().UTC())
	if err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return mapErr(s.repo.Delete(ctx, id))
}
