package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"warzone-tracker/internal/constants"
	"warzone-tracker/internal/domain"
	"warzone-tracker/internal/repository"
	"warzone-tracker/internal/stats"
)

// ErrPersistFailed marks a reconciliation whose write did not stick even
// after the retry. The sweep logs it and moves on to the next aggregate.
var ErrPersistFailed = errors.New("reconciliation persist failed")

type ProfileService struct {
	fetcher    *HistoryFetcher
	repo       *repository.ProfileRepository
	aggregator *stats.Aggregator
	logger     zerolog.Logger
}

func NewProfileService(fetcher *HistoryFetcher, repo *repository.ProfileRepository, aggregator *stats.Aggregator, logger zerolog.Logger) *ProfileService {
	return &ProfileService{fetcher: fetcher, repo: repo, aggregator: aggregator, logger: logger}
}

// GetOrCreate returns the stored profile for (platform, username), creating
// it from a fresh upstream fetch when none exists. Creation fetches the
// history and the lifetime blob in parallel and re-checks for an existing
// document before inserting, which narrows (but does not close) the window
// for duplicate creation under concurrent identical requests.
func (s *ProfileService) GetOrCreate(ctx context.Context, platform, username string) (*domain.PlayerProfile, error) {
	username = strings.ToLower(username)

	profile, err := s.repo.GetByNamePlatform(ctx, username, platform)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	s.logger.Info().Str("platform", platform).Str("username", username).Msg("profile not found, fetching from upstream")

	var (
		history domain.PlayerHistory
		partial bool
		general domain.GeneralStats
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, partial, err = s.fetcher.FetchHistory(gCtx, platform, username, constants.InitialFetchPages)
		return err
	})
	g.Go(func() error {
		var err error
		general, err = s.fetcher.FetchGeneralStats(gCtx, platform, username)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch profile data for %s/%s: %w", platform, username, err)
	}

	// The fetch takes a while; someone may have created the profile
	// meanwhile.
	if existing, err := s.repo.GetByNamePlatform(ctx, username, platform); err == nil {
		return existing, nil
	}

	now := time.Now()
	profile = &domain.PlayerProfile{
		ID:            primitive.NewObjectID().Hex(),
		Username:      username,
		Platform:      platform,
		LastGames:     history,
		GeneralStats:  general,
		Partial:       partial,
		LastUpdatedAt: now,
		CreatedAt:     now,
	}
	if err := s.repo.Insert(ctx, profile); err != nil {
		// Lost a creation race; the winner's document is the truth.
		if existing, getErr := s.repo.GetByNamePlatform(ctx, username, platform); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	s.logger.Info().Str("profile_id", profile.ID).Int("games", len(history)).Bool("partial", partial).Msg("profile created")
	return profile, nil
}

// GetByID returns a stored profile without touching upstream.
func (s *ProfileService) GetByID(ctx context.Context, id string) (*domain.PlayerProfile, error) {
	return s.repo.GetByID(ctx, id)
}

// Refresh re-fetches the profile's first history page and folds any new
// matches in. The stored aggregate's lastUpdatedAt is touched even when
// nothing changed, so the sweep does not pick the profile up again
// immediately.
func (s *ProfileService) Refresh(ctx context.Context, profile *domain.PlayerProfile) error {
	var (
		fresh   domain.PlayerHistory
		general domain.GeneralStats
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fresh, _, err = s.fetcher.FetchHistory(gCtx, profile.Platform, profile.Username, 1)
		return err
	})
	g.Go(func() error {
		var err error
		general, err = s.fetcher.FetchGeneralStats(gCtx, profile.Platform, profile.Username)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh fetch for profile %s: %w", profile.ID, err)
	}

	merged, updated, err := s.aggregator.ReconcileProfile(profile.LastGames, fresh)
	if err != nil {
		return fmt.Errorf("reconcile profile %s: %w", profile.ID, err)
	}
	if !updated {
		return s.repo.TouchLastUpdated(ctx, profile.ID)
	}

	if err := s.persistStats(ctx, profile.ID, merged, general); err != nil {
		return err
	}
	s.logger.Info().Str("profile_id", profile.ID).Int("games", len(merged)).Msg("profile reconciled")
	return nil
}

func (s *ProfileService) persistStats(ctx context.Context, id string, games domain.PlayerHistory, general domain.GeneralStats) error {
	var lastErr error
	for attempt := 0; attempt <= constants.PersistenceRetries; attempt++ {
		lastErr = s.repo.ReplaceStats(ctx, id, games, general, false)
		if lastErr == nil {
			return nil
		}
		s.logger.Warn().Err(lastErr).Str("profile_id", id).Int("attempt", attempt+1).Msg("profile stats persist failed")
	}
	return fmt.Errorf("profile %s: %w: %v", id, ErrPersistFailed, lastErr)
}
