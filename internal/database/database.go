package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"warzone-tracker/internal/config"
	"warzone-tracker/internal/constants"
)

const (
	ProfilesCollection = "profiles"
	SquadsCollection   = "squads"
	MatchesCollection  = "matches"
)

// New connects to MongoDB, pings the primary, and makes sure the indexes the
// repositories rely on exist.
func New(cfg *config.Config, logger zerolog.Logger) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()

	logger.Info().Str("database", cfg.MongoDatabase).Msg("connecting to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if disconnectErr := client.Disconnect(context.Background()); disconnectErr != nil {
			logger.Warn().Err(disconnectErr).Msg("failed to disconnect after ping failure")
		}
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	logger.Info().Msg("database connection established")
	return db, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ProfilesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}, {Key: "platform", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	for _, name := range []string{ProfilesCollection, SquadsCollection} {
		_, err := db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "lastUpdatedAt", Value: 1}},
		})
		if err != nil {
			return err
		}
	}

	_, err = db.Collection(MatchesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "lastTouched", Value: 1}},
	})
	return err
}

// Disconnect closes the underlying client; wired into the fx OnStop hook.
func Disconnect(ctx context.Context, db *mongo.Database, logger zerolog.Logger) error {
	logger.Info().Msg("disconnecting from MongoDB")
	return db.Client().Disconnect(ctx)
}
