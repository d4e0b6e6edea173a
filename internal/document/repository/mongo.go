package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/collabedit/internal/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements a MongoDB-backed repository for documents.
// Documents are addressed by the string "documentId" field (unique index), not by _id,
// so client-chosen ids such as "demo-doc" work unchanged.
type MongoRepo struct {
	col *mongo.Collection
	now func() time.Time
}

// NewMongoRepo ensures the unique index on "documentId" and returns the repository.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "documentId", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(ctx, idxModel); err != nil {
		return nil, fmt.Errorf("ensure documentId index: %w", err)
	}
	lastModIdx := mongo.IndexModel{Keys: bson.D{{Key: "lastModified", Value: -1}}}
	if _, err := col.Indexes().CreateOne(ctx, lastModIdx); err != nil {
		return nil, fmt.Errorf("ensure lastModified index: %w", err)
	}
	return &MongoRepo{col: col, now: time.Now}, nil
}

// GetOrCreate upserts with $setOnInsert so an existing document is returned untouched.
// Two concurrent upserts for the same unseen id can both miss and race on insert; the
// loser gets a duplicate-key error and re-reads the winner's document.
func (m *MongoRepo) GetOrCreate(ctx context.Context, id string, defaults document.Document) (*document.Document, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	now := m.now().UTC()
	collaborators := defaults.Collaborators
	if collaborators == nil {
		collaborators = []document.Collaborator{}
	}
	filter := bson.M{"documentId": id}
	update := bson.M{"$setOnInsert": bson.M{
		"documentId":    id,
		"title":         defaults.Title,
		"content":       defaults.Content,
		"lastModified":  now,
		"createdAt":     now,
		"collaborators": collaborators,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var d document.Document
	err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d)
	if mongo.IsDuplicateKeyError(err) {
		err = m.col.FindOne(ctx, filter).Decode(&d)
	}
	if err != nil {
		return nil, fmt.Errorf("get or create %s: %w", id, err)
	}
	return &d, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"documentId": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return &d, nil
}

func (m *MongoRepo) Update(ctx context.Context, id string, title, content *string) (*document.Document, error) {
	set := bson.M{"lastModified": m.now().UTC()}
	if title != nil {
		set["title"] = *title
	}
	if content != nil {
		set["content"] = *content
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d document.Document
	err := m.col.FindOneAndUpdate(ctx, bson.M{"documentId": id}, bson.M{"$set": set}, opts).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	return &d, nil
}

func (m *MongoRepo) List(ctx context.Context, limit int) ([]document.Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "lastModified", Value: -1}}).
		SetProjection(bson.M{"documentId": 1, "title": 1, "lastModified": 1, "createdAt": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer cur.Close(ctx)

	out := []document.Summary{}
	for cur.Next(ctx) {
		var s document.Summary
		if err := cur.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
		out = append(out, s)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// AddCollaborator pushes c only when no entry with the same username exists yet.
func (m *MongoRepo) AddCollaborator(ctx context.Context, id string, c document.Collaborator) error {
	filter := bson.M{"documentId": id, "collaborators.username": bson.M{"$ne": c.Username}}
	res, err := m.col.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"collaborators": c}})
	if err != nil {
		return fmt.Errorf("add collaborator to %s: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := m.col.CountDocuments(ctx, bson.M{"documentId": id})
	if err != nil {
		return fmt.Errorf("count %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
