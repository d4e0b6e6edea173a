package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gogotex/collabedit/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() document.Document {
	return document.Document{Title: document.DefaultTitle, Content: document.DefaultContent}
}

func TestMemoryRepoGetOrCreateAndUpdate(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	d, err := r.GetOrCreate(ctx, "doc-1", defaults())
	require.NoError(t, err)
	require.Equal(t, "doc-1", d.ID)
	require.Equal(t, document.DefaultTitle, d.Title)
	require.Equal(t, document.DefaultContent, d.Content)
	require.NotNil(t, d.Collaborators)
	require.Empty(t, d.Collaborators)

	content := "<p>new</p>"
	updated, err := r.Update(ctx, "doc-1", nil, &content)
	require.NoError(t, err)
	require.Equal(t, content, updated.Content)
	require.Equal(t, document.DefaultTitle, updated.Title)

	again, err := r.GetOrCreate(ctx, "doc-1", document.Document{Title: "ignored"})
	require.NoError(t, err)
	require.Equal(t, content, again.Content)
	require.Equal(t, document.DefaultTitle, again.Title)

	_, err = r.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.Update(ctx, "missing", nil, &content)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.GetOrCreate(ctx, "", defaults())
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	d, err := r.GetOrCreate(ctx, "doc-1", defaults())
	require.NoError(t, err)
	d.Content = "mutated"

	got, err := r.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.Equal(t, document.DefaultContent, got.Content)
}

func TestMemoryRepoConcurrentGetOrCreate(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	created := make([]time.Time, 32)
	for i := range created {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := r.GetOrCreate(ctx, "fresh", defaults())
			if assert.NoError(t, err) {
				created[i] = d.CreatedAt
			}
		}(i)
	}
	wg.Wait()

	list, err := r.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	for _, c := range created {
		require.True(t, c.Equal(created[0]), "every caller must observe the same document")
	}
}

func TestMemoryRepoLastModifiedTracksUpdates(t *testing.T) {
	r := NewMemoryRepo()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }
	ctx := context.Background()

	d, err := r.GetOrCreate(ctx, "doc-1", defaults())
	require.NoError(t, err)
	require.Equal(t, clock, d.LastModified)

	clock = clock.Add(time.Minute)
	title := "Renamed"
	d, err = r.Update(ctx, "doc-1", &title, nil)
	require.NoError(t, err)
	require.Equal(t, clock, d.LastModified)
	require.Equal(t, clock.Add(-time.Minute), d.CreatedAt)
}

func TestMemoryRepoListSortedAndLimited(t *testing.T) {
	r := NewMemoryRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := r.GetOrCreate(ctx, fmt.Sprintf("doc-%d", i), defaults())
		require.NoError(t, err)
	}
	// touch doc-0 so it becomes the most recent
	content := "x"
	_, err := r.Update(ctx, "doc-0", nil, &content)
	require.NoError(t, err)

	list, err := r.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "doc-0", list[0].ID)
	require.Equal(t, "doc-4", list[1].ID)
	require.Equal(t, "doc-3", list[2].ID)
}

func TestMemoryRepoAddCollaboratorOncePerUsername(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	_, err := r.GetOrCreate(ctx, "doc-1", defaults())
	require.NoError(t, err)

	c := document.Collaborator{Username: "alice", Color: "#ff0000", JoinedAt: time.Now()}
	require.NoError(t, r.AddCollaborator(ctx, "doc-1", c))
	require.NoError(t, r.AddCollaborator(ctx, "doc-1", c))
	require.ErrorIs(t, r.AddCollaborator(ctx, "missing", c), ErrNotFound)

	d, err := r.Get(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, d.Collaborators, 1)
	require.Equal(t, "alice", d.Collaborators[0].Username)
}

func TestValidateTitle(t *testing.T) {
	require.NoError(t, ValidateTitle(""))
	require.NoError(t, ValidateTitle(string(make([]rune, document.MaxTitleLength))))
	long := ""
	for i := 0; i <= document.MaxTitleLength; i++ {
		long += "é"
	}
	require.ErrorIs(t, ValidateTitle(long), ErrInvalidTitle)
}
