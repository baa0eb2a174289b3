package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
)

// Repository defines the interface for export archive storage.
type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot models.ExportSnapshot) error
}

type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client     *mongo.Client
	collection inserter
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri, dbName, collName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:     client,
		collection: client.Database(dbName).Collection(collName),
	}, nil
}

// SaveSnapshot archives an exported list as one document.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.ExportSnapshot) error {
	if snapshot.Rows == nil {
		snapshot.Rows = []models.ExportRow{}
	}
	if _, err := r.collection.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert export snapshot: %w", err)
	}
	return nil
}

// Send implements export.Sink.
func (r *MongoDBRepository) Send(ctx context.Context, snapshot models.ExportSnapshot) error {
	return r.SaveSnapshot(ctx, snapshot)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}
