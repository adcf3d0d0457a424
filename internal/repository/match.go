package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"warzone-tracker/internal/database"
	"warzone-tracker/internal/domain"
)

// MatchRepository caches full-match snapshots. Entries nobody reads for a
// while are deleted by the cleanup sweep.
type MatchRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
}

func NewMatchRepository(db *mongo.Database, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		collection: db.Collection(database.MatchesCollection),
		logger:     logger,
	}
}

// Get returns a cached match and refreshes its lastTouched so the cleanup
// sweep keeps popular matches around.
func (r *MatchRepository) Get(ctx context.Context, matchID string) (*domain.CachedMatch, error) {
	var match domain.CachedMatch
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": matchID},
		bson.M{"$set": bson.M{"lastTouched": time.Now()}},
	).Decode(&match)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached match %s: %w", matchID, err)
	}
	return &match, nil
}

func (r *MatchRepository) Upsert(ctx context.Context, match *domain.CachedMatch) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": match.ID}, match, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert cached match %s: %w", match.ID, err)
	}
	return nil
}

// DeleteStale drops matches untouched for longer than the threshold and
// returns how many were removed.
func (r *MatchRepository) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := r.collection.DeleteMany(ctx, bson.M{"lastTouched": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale matches: %w", err)
	}
	return res.DeletedCount, nil
}
