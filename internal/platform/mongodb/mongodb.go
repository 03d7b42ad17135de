// Package mongodb connects to the document store and owns the collection
// names and indexes shared by the repo_mongo.go implementations.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/medicarehub/api/internal/platform/apperr"
	"github.com/medicarehub/api/internal/platform/db"
)

const (
	UsersCollection        = "users"
	ReportsCollection      = "reports"
	PatientNotesCollection = "patientnotes"
)

// Connect dials uri and verifies the primary is reachable.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureIndexes creates the indexes the repositories rely on. It is
// idempotent.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		ReportsCollection: {
			{Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "uploadedOn", Value: -1}}},
		},
		PatientNotesCollection: {
			{Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := database.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// ObjectID parses a hex identifier. A malformed id wraps
// apperr.ErrMalformedID so services can answer 400 instead of 404.
func ObjectID(hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", apperr.ErrMalformedID, hex)
	}
	return oid, nil
}

// OptionalObjectID parses hex, mapping "" to nil.
func OptionalObjectID(hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	oid, err := ObjectID(hex)
	if err != nil {
		return nil, err
	}
	return &oid, nil
}

// HexOrEmpty is the inverse of OptionalObjectID.
func HexOrEmpty(oid *primitive.ObjectID) string {
	if oid == nil {
		return ""
	}
	return oid.Hex()
}

// HealthCheck reports the primary's reachability on /health/db.
func HealthCheck(client *mongo.Client) db.Check {
	return db.Check{
		Name: "mongodb",
		Pinger: db.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}),
	}
}
