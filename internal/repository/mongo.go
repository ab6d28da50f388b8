package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/pkg/models"
)

const historyCollection = "analysis_history"

// MongoHistoryRepository persists history records in MongoDB.
type MongoHistoryRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoHistoryRepository connects to MongoDB and prepares the history
// collection with an index on (user_id, timestamp desc).
func NewMongoHistoryRepository(ctx context.Context, uri, database string) (*MongoHistoryRepository, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	collection := client.Database(database).Collection(historyCollection)
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	}
	if _, err := collection.Indexes().CreateOne(connectCtx, indexModel); err != nil {
		logger.ForComponent("repository").WithError(err).Warn("Failed to ensure history index")
	}

	logger.ForComponent("repository").WithField("database", database).Info("Mongo history repository ready")
	return &MongoHistoryRepository{client: client, collection: collection}, nil
}

// Save inserts a record.
func (r *MongoHistoryRepository) Save(ctx context.Context, record *models.HistoryRecord) error {
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("save history record: %w", err)
	}
	return nil
}

// ListByUser returns up to limit records, newest first.
func (r *MongoHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.HistoryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.HistoryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode history records: %w", err)
	}
	return records, nil
}

// Close disconnects from MongoDB.
func (r *MongoHistoryRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
