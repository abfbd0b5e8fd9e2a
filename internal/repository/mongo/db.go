package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"fittrack/backend/internal/domain"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary node to verify the connection before handing the
	// client out; the initial connect can succeed against a dead server.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection this package owns.
// Call once during startup; failures are non-fatal.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	EnsureUserIndexes(ctx, db.Collection(userCollectionName))
	EnsureProgressIndexes(ctx, db.Collection(progressCollectionName))
	EnsurePlanIndexes(ctx, db.Collection(trainingPlanCollectionName))
	EnsurePlanIndexes(ctx, db.Collection(dietPlanCollectionName))
	EnsureAnalysisIndexes(ctx, db.Collection(analysisCollectionName))
}

// parseHex converts an ID of unknown origin to an ObjectID. A non-hex ID is
// simply a key from the other store, so it maps to ErrNotFound rather than
// a validation failure.
func parseHex(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

// ownerFilter scopes a query to the owning user when the caller knows the
// user's document id.
func ownerFilter(owner domain.StoreRef) (primitive.ObjectID, bool) {
	if owner.MongoID == "" {
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(owner.MongoID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}
