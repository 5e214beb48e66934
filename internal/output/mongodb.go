// internal/output/mongodb.go
package output

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBOptions configures the MongoDB run-history writer.
type MongoDBOptions struct {
	ConnectionString string
	Database         string
	Collection       string
	ConnectTimeout   time.Duration
}

// MongoDBWriter inserts one document per record.
type MongoDBWriter struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoDBWriter connects, pings, and ensures the run_id index exists
func NewMongoDBWriter(ctx context.Context, opts MongoDBOptions) (*MongoDBWriter, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	clientOptions := options.Client().
		ApplyURI(opts.ConnectionString).
		SetConnectTimeout(opts.ConnectTimeout).
		SetServerSelectionTimeout(opts.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(opts.Database).Collection(opts.Collection)
	if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}, {Key: "case", Value: 1}},
		Options: options.Index().SetName("run_case"),
	}); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &MongoDBWriter{client: client, collection: collection}, nil
}

func (o MongoDBOptions) validate() error {
	if o.ConnectionString == "" {
		return fmt.Errorf("MongoDB connection string is required")
	}
	if o.Database == "" {
		return fmt.Errorf("MongoDB database name is required")
	}
	if o.Collection == "" {
		return fmt.Errorf("MongoDB collection name is required")
	}
	return nil
}

// document converts a record into its stored form.
func document(r Record) bson.M {
	doc := bson.M{
		"run_id":      r.RunID,
		"suite":       r.Suite,
		"case":        r.Case,
		"outcome":     r.Outcome,
		"duration_ms": r.DurationMS(),
		"started_at":  r.StartedAt.UTC(),
	}
	if r.Code != "" {
		doc["code"] = r.Code
	}
	if r.Message != "" {
		doc["message"] = r.Message
	}
	return doc
}

// Write inserts the records
func (w *MongoDBWriter) Write(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(records))
	for _, r := range records {
		docs = append(docs, document(r))
	}
	if _, err := w.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}
	return nil
}

// Close disconnects the client
func (w *MongoDBWriter) Close() error {
	if w.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := w.client.Disconnect(ctx)
	w.client = nil
	return err
}
