package service

import (
	"context"
	"strings"
	"testing"

	"github.com/gogotex/collabedit/internal/document"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "never-seen", "")
	require.NoError(t, err)
	require.Equal(t, document.DefaultTitle, first.Title)
	require.Equal(t, document.DefaultContent, first.Content)
	require.Empty(t, first.Collaborators)

	second, err := svc.GetOrCreate(ctx, "never-seen", "Other title")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, document.DefaultTitle, second.Title)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestUpdateTitleTwice(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	_, err := svc.GetOrCreate(ctx, "doc-1", "")
	require.NoError(t, err)

	_, err = svc.UpdateTitle(ctx, "doc-1", "X")
	require.NoError(t, err)
	d, err := svc.UpdateTitle(ctx, "doc-1", "X")
	require.NoError(t, err)
	require.Equal(t, "X", d.Title)
}

func TestUpdatesOnMissingDocument(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	_, err := svc.UpdateContent(ctx, "missing", "<p>x</p>")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.UpdateTitle(ctx, "missing", "x")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTitleValidation(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	_, err := svc.GetOrCreate(ctx, "doc-1", "")
	require.NoError(t, err)

	long := strings.Repeat("a", document.MaxTitleLength+1)
	_, err = svc.UpdateTitle(ctx, "doc-1", long)
	require.ErrorIs(t, err, ErrInvalidTitle)
	_, err = svc.Update(ctx, "doc-1", &long, nil)
	require.ErrorIs(t, err, ErrInvalidTitle)
	_, err = svc.Create(ctx, long)
	require.ErrorIs(t, err, ErrInvalidTitle)

	d, err := svc.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, document.DefaultTitle, d.Title)
}

func TestCreateGeneratesDistinctIDs(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	a, err := svc.Create(ctx, "Notes")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "")
	require.NoError(t, err)

	require.NotEqual(t, a.ID, b.ID)
	require.True(t, strings.HasPrefix(a.ID, "doc_"))
	require.Equal(t, "Notes", a.Title)
	require.Equal(t, document.DefaultTitle, b.Title)
}

func TestSeedKeepsExistingDocument(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	seeded, err := svc.Seed(ctx, document.Document{ID: "demo-doc", Title: "Welcome Document", Content: "<p>welcome</p>"})
	require.NoError(t, err)
	require.Equal(t, "<p>welcome</p>", seeded.Content)

	_, err = svc.UpdateContent(ctx, "demo-doc", "<p>edited</p>")
	require.NoError(t, err)

	again, err := svc.Seed(ctx, document.Document{ID: "demo-doc", Title: "Welcome Document", Content: "<p>welcome</p>"})
	require.NoError(t, err)
	require.Equal(t, "<p>edited</p>", again.Content)
}
