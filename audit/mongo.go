// Package audit keeps an operator-facing log of the soft failures of the
// payments service in MongoDB. It stores fallbacks only, never platform
// objects or webhook events.
package audit

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vocdoni/payments-backend/payments"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.vocdoni.io/dvote/log"
)

// ResetEnv, when set, drops the fallbacks on startup. Meant for tests.
const ResetEnv = "PAYMENTS_MONGO_RESET_DB"

// MongoStore records payments.Fallback entries in a MongoDB collection.
type MongoStore struct {
	client    *mongo.Client
	fallbacks *mongo.Collection
}

var _ payments.FallbackRecorder = (*MongoStore)(nil)

func New(url, database string) (*MongoStore, error) {
	if url == "" {
		return nil, fmt.Errorf("mongo URL is not defined")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database is not defined")
	}
	log.Infow("connecting to mongodb", "database", database)
	// preparing connection
	opts := options.Client()
	opts.ApplyURI(url)
	opts.SetMaxConnecting(20)
	timeout := time.Second * 10
	opts.ConnectTimeout = &timeout
	// create a new client with the connection options
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	// check if the connection is successful
	ctx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if derr := client.Disconnect(context.Background()); derr != nil {
			log.Warnw("cannot disconnect from mongodb", "error", derr)
		}
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	ms := &MongoStore{
		client:    client,
		fallbacks: client.Database(database).Collection("fallbacks"),
	}
	if reset := os.Getenv(ResetEnv); reset != "" {
		if err := ms.Reset(); err != nil {
			return nil, err
		}
	} else if err := ms.createIndexes(); err != nil {
		return nil, err
	}
	return ms, nil
}

func (ms *MongoStore) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ms.client.Disconnect(ctx); err != nil {
		log.Warn(err)
	}
}

// Reset drops every recorded fallback and recreates the indexes.
func (ms *MongoStore) Reset() error {
	log.Infof("resetting audit database")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ms.fallbacks.Drop(ctx); err != nil {
		return err
	}
	return ms.createIndexes()
}

func (ms *MongoStore) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	// newest first listing, optionally by kind
	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "kind", Value: 1},
			{Key: "createdAt", Value: -1},
		},
	}
	if _, err := ms.fallbacks.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create index on kind for fallbacks: %w", err)
	}
	createdIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}
	if _, err := ms.fallbacks.Indexes().CreateOne(ctx, createdIndex); err != nil {
		return fmt.Errorf("failed to create index on createdAt for fallbacks: %w", err)
	}
	return nil
}

// RecordFallback appends a fallback to the log.
func (ms *MongoStore) RecordFallback(ctx context.Context, fallback *payments.Fallback) error {
	if fallback == nil {
		return fmt.Errorf("nil fallback")
	}
	if fallback.CreatedAt.IsZero() {
		fallback.CreatedAt = time.Now()
	}
	if _, err := ms.fallbacks.InsertOne(ctx, fallback); err != nil {
		return fmt.Errorf("cannot record fallback: %w", err)
	}
	return nil
}

// Fallbacks returns up to limit fallbacks, newest first. An empty kind
// matches every kind.
func (ms *MongoStore) Fallbacks(ctx context.Context, kind payments.FallbackKind, limit int64,
) ([]*payments.Fallback, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := ms.fallbacks.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list fallbacks: %w", err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Warnw("error closing cursor", "error", err)
		}
	}()
	fallbacks := []*payments.Fallback{}
	for cursor.Next(ctx) {
		fb := &payments.Fallback{}
		if err := cursor.Decode(fb); err != nil {
			return nil, fmt.Errorf("cannot decode fallback: %w", err)
		}
		fallbacks = append(fallbacks, fb)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cannot list fallbacks: %w", err)
	}
	return fallbacks, nil
}
