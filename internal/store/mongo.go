package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	historyCollection = "history"
	historyDocumentID = "dashboard"
)

type historyDocument struct {
	ID      string                 `bson:"_id"`
	Entries []weather.HistoryEntry `bson:"entries"`
}

// MongoStore keeps the whole history as a single document.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and pings the primary.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctxWithTimeout, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctxWithTimeout, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(historyCollection),
	}, nil
}

func (s *MongoStore) Load(ctx context.Context) ([]weather.HistoryEntry, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc historyDocument
	err := s.coll.FindOne(ctxWithTimeout, bson.M{"_id": historyDocumentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "load", Backend: "mongo", Err: err}
	}
	return doc.Entries, nil
}

func (s *MongoStore) Save(ctx context.Context, entries []weather.HistoryEntry) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if entries == nil {
		entries = []weather.HistoryEntry{}
	}
	doc := historyDocument{ID: historyDocumentID, Entries: entries}
	_, err := s.coll.ReplaceOne(ctxWithTimeout, bson.M{"_id": historyDocumentID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return &StorageError{Op: "save", Backend: "mongo", Err: err}
	}
	return nil
}

func (s *MongoStore) Close() error {
	if err := s.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}
