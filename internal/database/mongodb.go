package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gogotex/collabedit/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentsCollection is the collection holding collaborative documents.
const DocumentsCollection = "documents"

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(cfg.URI).SetAppName("collabedit")
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Documents returns the documents collection of the configured database.
func Documents(client *mongo.Client, cfg config.MongoDBConfig) *mongo.Collection {
	return client.Database(cfg.Database).Collection(DocumentsCollection)
}
