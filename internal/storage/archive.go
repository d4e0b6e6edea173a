package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gogotex/collabedit/internal/document"
)

// ObjectStore is the subset of MinIOStorage the archive needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// SnapshotArchive keeps the last content of each document in object storage:
// "documents/<id>/latest.html" holds the HTML body and "documents/<id>/meta.json"
// the title and timestamps.
type SnapshotArchive struct {
	store ObjectStore
}

func NewSnapshotArchive(store ObjectStore) *SnapshotArchive {
	return &SnapshotArchive{store: store}
}

type snapshotMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastModified time.Time `json:"lastModified"`
	ArchivedAt   time.Time `json:"archivedAt"`
}

func SnapshotKey(documentID string) string { return "documents/" + documentID + "/latest.html" }

func metaKey(documentID string) string { return "documents/" + documentID + "/meta.json" }

// ArchiveSnapshot uploads d's content and metadata, overwriting the previous snapshot.
func (a *SnapshotArchive) ArchiveSnapshot(ctx context.Context, d *document.Document) error {
	if d == nil || d.ID == "" {
		return fmt.Errorf("archive: document id required")
	}
	body := []byte(d.Content)
	if err := a.store.UploadFile(ctx, SnapshotKey(d.ID), bytes.NewReader(body), int64(len(body)), "text/html; charset=utf-8"); err != nil {
		return fmt.Errorf("archive content: %w", err)
	}
	meta, err := json.Marshal(snapshotMeta{ID: d.ID, Title: d.Title, LastModified: d.LastModified, ArchivedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := a.store.UploadFile(ctx, metaKey(d.ID), bytes.NewReader(meta), int64(len(meta)), "application/json"); err != nil {
		return fmt.Errorf("archive meta: %w", err)
	}
	return nil
}
