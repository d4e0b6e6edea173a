package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gogotex/collabedit/internal/document"
	"github.com/gogotex/collabedit/internal/document/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound     = repository.ErrNotFound
	ErrInvalidTitle = repository.ErrInvalidTitle
)

// ListLimit caps the number of summaries returned by List.
const ListLimit = 50

// Service defines the document operations used by the HTTP handlers and the collaboration
// event router. It is the persistence gateway: every mutation stamps lastModified with the
// store's clock, never a caller-supplied time.
type Service interface {
	GetOrCreate(ctx context.Context, id, defaultTitle string) (*document.Document, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	Create(ctx context.Context, title string) (*document.Document, error)
	Seed(ctx context.Context, d document.Document) (*document.Document, error)
	UpdateContent(ctx context.Context, id, content string) (*document.Document, error)
	UpdateTitle(ctx context.Context, id, title string) (*document.Document, error)
	Update(ctx context.Context, id string, title, content *string) (*document.Document, error)
	List(ctx context.Context) ([]document.Summary, error)
	AddCollaborator(ctx context.Context, id string, c document.Collaborator) error
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo())
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller is responsible for creating the collection (and client) and passing it in.
func NewMongoService(ctx context.Context, col *mongo.Collection) (Service, error) {
	repo, err := repository.NewMongoRepo(ctx, col)
	if err != nil {
		return nil, err
	}
	return New(repo), nil
}

// New wraps any repository implementation.
func New(repo repository.Repository) Service {
	return &documentService{repo: repo}
}

type documentService struct {
	repo repository.Repository
}

func (s *documentService) GetOrCreate(ctx context.Context, id, defaultTitle string) (*document.Document, error) {
	if strings.TrimSpace(defaultTitle) == "" {
		defaultTitle = document.DefaultTitle
	}
	if err := repository.ValidateTitle(defaultTitle); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, id, document.Document{Title: defaultTitle, Content: document.DefaultContent})
}

func (s *documentService) Get(ctx context.Context, id string) (*document.Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *documentService) Create(ctx context.Context, title string) (*document.Document, error) {
	return s.GetOrCreate(ctx, NewDocumentID(), title)
}

// Seed creates d under d.ID unless a document with that id already exists.
func (s *documentService) Seed(ctx context.Context, d document.Document) (*document.Document, error) {
	if err := repository.ValidateTitle(d.Title); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, d.ID, d)
}

func (s *documentService) UpdateContent(ctx context.Context, id, content string) (*document.Document, error) {
	return s.repo.Update(ctx, id, nil, &content)
}

func (s *documentService) UpdateTitle(ctx context.Context, id, title string) (*document.Document, error) {
	if err := repository.ValidateTitle(title); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, &title, nil)
}

func (s *documentService) Update(ctx context.Context, id string, title, content *string) (*document.Document, error) {
	if title != nil {
		if err := repository.ValidateTitle(*title); err != nil {
			return nil, err
		}
	}
	return s.repo.Update(ctx, id, title, content)
}

func (s *documentService) List(ctx context.Context) ([]document.Summary, error) {
	return s.repo.List(ctx, ListLimit)
}

func (s *documentService) AddCollaborator(ctx context.Context, id string, c document.Collaborator) error {
	return s.repo.AddCollaborator(ctx, id, c)
}

// NewDocumentID returns ids shaped like "doc_3f9a1c2b7_lx2k9a1b".
func NewDocumentID() string {
	r := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "doc_" + r[:9] + "_" + strconv.FormatInt(time.Now().UnixMilli(), 36)
}
