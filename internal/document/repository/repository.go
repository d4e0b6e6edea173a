package repository

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gogotex/collabedit/internal/document"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidTitle = fmt.Errorf("title exceeds %d characters", document.MaxTitleLength)
	ErrInvalidID    = errors.New("document id is required")
)

// Repository is the document store keyed by document id. Implementations must make
// GetOrCreate safe to call concurrently for the same unseen id.
type Repository interface {
	// GetOrCreate returns the stored document or inserts defaults under id.
	GetOrCreate(ctx context.Context, id string, defaults document.Document) (*document.Document, error)
	// Get returns ErrNotFound when the id is unknown.
	Get(ctx context.Context, id string) (*document.Document, error)
	// Update overwrites the non-nil fields and stamps lastModified.
	// Returns ErrNotFound when the id is unknown.
	Update(ctx context.Context, id string, title, content *string) (*document.Document, error)
	// List returns at most limit summaries, most recently modified first.
	List(ctx context.Context, limit int) ([]document.Summary, error)
	// AddCollaborator records c once per username. Returns ErrNotFound when the id is unknown.
	AddCollaborator(ctx context.Context, id string, c document.Collaborator) error
}

// ValidateTitle rejects titles longer than document.MaxTitleLength runes.
func ValidateTitle(title string) error {
	if utf8.RuneCountInString(title) > document.MaxTitleLength {
		return ErrInvalidTitle
	}
	return nil
}
