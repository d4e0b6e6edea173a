package repository

import (
	"context"
	"testing"
	"time"

	"github.com/gogotex/collabedit/internal/document"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func storedDoc(id, title, content string, at time.Time) bson.D {
	return bson.D{
		{Key: "documentId", Value: id},
		{Key: "title", Value: title},
		{Key: "content", Value: content},
		{Key: "lastModified", Value: at},
		{Key: "createdAt", Value: at},
		{Key: "collaborators", Value: bson.A{}},
	}
}

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mt.Run("get or create returns stored document", func(mt *mtest.T) {
		repo := &MongoRepo{col: mt.Coll, now: time.Now}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: storedDoc("demo-doc", "Welcome Document", "<p>hi</p>", at)},
		))

		d, err := repo.GetOrCreate(context.Background(), "demo-doc", document.Document{Title: document.DefaultTitle})
		require.NoError(mt, err)
		require.Equal(mt, "demo-doc", d.ID)
		require.Equal(mt, "Welcome Document", d.Title)
		require.Equal(mt, "<p>hi</p>", d.Content)
	})

	mt.Run("get or create re-reads after duplicate key", func(mt *mtest.T) {
		repo := &MongoRepo{col: mt.Coll, now: time.Now}
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error"}),
			mtest.CreateCursorResponse(0, "collab.documents", mtest.FirstBatch, storedDoc("fresh", document.DefaultTitle, document.DefaultContent, at)),
		)

		d, err := repo.GetOrCreate(context.Background(), "fresh", document.Document{Title: document.DefaultTitle})
		require.NoError(mt, err)
		require.Equal(mt, "fresh", d.ID)
		require.Equal(mt, document.DefaultContent, d.Content)
	})

	mt.Run("update missing document", func(mt *mtest.T) {
		repo := &MongoRepo{col: mt.Coll, now: time.Now}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		content := "<p>x</p>"
		_, err := repo.Update(context.Background(), "missing", nil, &content)
		require.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update returns new state", func(mt *mtest.T) {
		repo := &MongoRepo{col: mt.Coll, now: time.Now}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: storedDoc("doc-1", "X", "<p>c1</p>", at)},
		))

		title := "X"
		d, err := repo.Update(context.Background(), "doc-1", &title, nil)
		require.NoError(mt, err)
		require.Equal(mt, "X", d.Title)
	})

	mt.Run("get missing document", func(mt *mtest.T) {
		repo := &MongoRepo{col: mt.Coll, now: time.Now}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "collab.documents", mtest.FirstBatch))

		_, err := repo.Get(context.Background(), "missing")
		require.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list decodes summaries", func(mt *mtest.T) {
		repo := &MongoRepo{col: mt.Coll, now: time.Now}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "collab.documents", mtest.FirstBatch,
			storedDoc("b", "B", "", at.Add(time.Minute)),
			storedDoc("a", "A", "", at),
		))

		list, err := repo.List(context.Background(), 50)
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		require.Equal(mt, "b", list[0].ID)
		require.Equal(mt, "A", list[1].Title)
	})
}
