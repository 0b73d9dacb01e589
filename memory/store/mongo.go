package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/queryforge/queryforge/memory"
)

// MongoStore implements memory.Store using MongoDB.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB configuration.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "queryforge",
		Collection: "conversation_history",
	}
}

// mongoEntry is the document shape stored in MongoDB.
type mongoEntry struct {
	Query     string         `bson:"query"`
	Context   map[string]any `bson:"context,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}

// NewMongoStore connects to MongoDB and prepares the history collection.
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}
	if err := store.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return store, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}
	_, err := s.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

// Append records an entry.
func (s *MongoStore) Append(ctx context.Context, e memory.Entry) error {
	doc := mongoEntry{
		Query:     e.Query,
		Context:   e.Context,
		CreatedAt: e.Timestamp,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// Recent returns up to n of the newest entries, oldest first.
func (s *MongoStore) Recent(ctx context.Context, n int) ([]memory.Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(int64(n))
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoEntry
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	// Flip newest-first documents into oldest-first order.
	entries := make([]memory.Entry, len(docs))
	for i, d := range docs {
		entries[len(docs)-1-i] = memory.Entry{
			Query:     d.Query,
			Context:   d.Context,
			Timestamp: d.CreatedAt,
		}
	}
	return entries, nil
}

// Clear removes all history entries.
func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return int(count), nil
}

// Ping checks if the MongoDB connection is alive.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (s *MongoStore) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Disconnect(ctx)
}
