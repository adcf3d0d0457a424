package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"warzone-tracker/internal/database"
	"warzone-tracker/internal/domain"
)

// ErrNotFound is returned by lookups when no document matches.
var ErrNotFound = errors.New("document not found")

type ProfileRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
}

func NewProfileRepository(db *mongo.Database, logger zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{
		collection: db.Collection(database.ProfilesCollection),
		logger:     logger,
	}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.PlayerProfile, error) {
	var profile domain.PlayerProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return &profile, nil
}

func (r *ProfileRepository) GetByNamePlatform(ctx context.Context, username, platform string) (*domain.PlayerProfile, error) {
	var profile domain.PlayerProfile
	err := r.collection.FindOne(ctx, bson.M{"username": username, "platform": platform}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s/%s: %w", platform, username, err)
	}
	return &profile, nil
}

func (r *ProfileRepository) Insert(ctx context.Context, profile *domain.PlayerProfile) error {
	if _, err := r.collection.InsertOne(ctx, profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("profile %s/%s already exists: %w", profile.Platform, profile.Username, err)
		}
		return fmt.Errorf("failed to insert profile %s/%s: %w", profile.Platform, profile.Username, err)
	}
	return nil
}

// ReplaceStats swaps in a freshly reconciled history and general-stats blob.
func (r *ProfileRepository) ReplaceStats(ctx context.Context, id string, lastGames domain.PlayerHistory, general domain.GeneralStats, partial bool) error {
	update := bson.M{"$set": bson.M{
		"lastGamesStats": lastGames,
		"generalStats":   general,
		"partial":        partial,
		"lastUpdatedAt":  time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to replace stats for profile %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}

// TouchLastUpdated records a reconciliation attempt without changing stats.
func (r *ProfileRepository) TouchLastUpdated(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastUpdatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to touch profile %s: %w", id, err)
	}
	return nil
}

// ListStale returns every profile whose last reconciliation attempt is older
// than the threshold.
func (r *ProfileRepository) ListStale(ctx context.Context, olderThan time.Duration) ([]domain.PlayerProfile, error) {
	cutoff := time.Now().Add(-olderThan)
	cursor, err := r.collection.Find(ctx, bson.M{"lastUpdatedAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return nil, fmt.Errorf("failed to list stale profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []domain.PlayerProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode stale profiles: %w", err)
	}
	return profiles, nil
}
