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

type SquadRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
}

func NewSquadRepository(db *mongo.Database, logger zerolog.Logger) *SquadRepository {
	return &SquadRepository{
		collection: db.Collection(database.SquadsCollection),
		logger:     logger,
	}
}

func (r *SquadRepository) Get(ctx context.Context, id string) (*domain.SquadAggregate, error) {
	var squad domain.SquadAggregate
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&squad)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get squad %s: %w", id, err)
	}
	return &squad, nil
}

func (r *SquadRepository) Insert(ctx context.Context, squad *domain.SquadAggregate) error {
	if _, err := r.collection.InsertOne(ctx, squad); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("squad %s already exists: %w", squad.ID, err)
		}
		return fmt.Errorf("failed to insert squad %s: %w", squad.ID, err)
	}
	return nil
}

// ReplaceStats swaps in reconciled player totals and the extended summary
// list in a single update, so readers never see the two halves out of step.
// Concurrent reconciliations of the same squad are last-writer-wins; each
// write is a complete snapshot, so the loser is overwritten, not corrupted.
func (r *SquadRepository) ReplaceStats(ctx context.Context, id string, players []domain.PlayerSharedStats, matches []domain.MatchSummary) error {
	update := bson.M{"$set": bson.M{
		"playersSharedStats": players,
		"matchSummaries":     matches,
		"lastUpdatedAt":      time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to replace stats for squad %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("squad %s: %w", id, ErrNotFound)
	}
	return nil
}

// TouchLastUpdated records a reconciliation attempt without changing stats.
func (r *SquadRepository) TouchLastUpdated(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastUpdatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to touch squad %s: %w", id, err)
	}
	return nil
}

// ListStale returns every squad whose last reconciliation attempt is older
// than the threshold.
func (r *SquadRepository) ListStale(ctx context.Context, olderThan time.Duration) ([]domain.SquadAggregate, error) {
	cutoff := time.Now().Add(-olderThan)
	cursor, err := r.collection.Find(ctx, bson.M{"lastUpdatedAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return nil, fmt.Errorf("failed to list stale squads: %w", err)
	}
	defer cursor.Close(ctx)

	var squads []domain.SquadAggregate
	if err := cursor.All(ctx, &squads); err != nil {
		return nil, fmt.Errorf("failed to decode stale squads: %w", err)
	}
	return squads, nil
}
