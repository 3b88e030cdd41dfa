package repository

import (
	"context"
	"errors"
	"time"

	"github.com/legalmind/legalmind/backend/go-services/internal/document"
)

var ErrNotFound = errors.New("document not found")

// Repository persists registry entries. Create expects ID to be set.
type Repository interface {
	Create(ctx context.Context, doc *document.Document) error
	Get(ctx context.Context, id string) (*document.Document, error)
	List(ctx context.Context, caseID string) ([]*document.Document, error)
	Update(ctx context.Context, id string, patch document.Patch, at time.Time) (*document.Document, error)
	Delete(ctx context.Context, id string) error
}
