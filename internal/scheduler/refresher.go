package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"warzone-tracker/internal/constants"
	"warzone-tracker/internal/domain"
)

// The refresher only needs narrow slices of the services and repositories.
type ProfileSource interface {
	ListStale(ctx context.Context, olderThan time.Duration) ([]domain.PlayerProfile, error)
}

type ProfileRefresher interface {
	Refresh(ctx context.Context, profile *domain.PlayerProfile) error
}

type SquadSource interface {
	ListStale(ctx context.Context, olderThan time.Duration) ([]domain.SquadAggregate, error)
}

type SquadRefresher interface {
	Refresh(ctx context.Context, squad *domain.SquadAggregate) error
}

type MatchCleaner interface {
	DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Refresher drives the three background sweeps: profile reconciliation,
// squad reconciliation, and stale-match cleanup. The sweeps run on
// independent timers and may overlap each other and live traffic; within one
// sweep every eligible aggregate is reconciled concurrently and the sweep
// waits for all of them, collecting each outcome. One aggregate failing
// never cancels its siblings.
type Refresher struct {
	profileSource ProfileSource
	profiles      ProfileRefresher
	squadSource   SquadSource
	squads        SquadRefresher
	matches       MatchCleaner
	logger        zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func New(
	profileSource ProfileSource,
	profiles ProfileRefresher,
	squadSource SquadSource,
	squads SquadRefresher,
	matches MatchCleaner,
	logger zerolog.Logger,
) *Refresher {
	return &Refresher{
		profileSource: profileSource,
		profiles:      profiles,
		squadSource:   squadSource,
		squads:        squads,
		matches:       matches,
		logger:        logger,
	}
}

// Start launches the three sweep loops. Call Stop to shut them down.
func (r *Refresher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)

		profileTicker := time.NewTicker(constants.ProfileSweepInterval)
		squadTicker := time.NewTicker(constants.SquadSweepInterval)
		cleanupTicker := time.NewTicker(constants.MatchCleanupInterval)
		defer profileTicker.Stop()
		defer squadTicker.Stop()
		defer cleanupTicker.Stop()

		r.logger.Info().
			Dur("profile_interval", constants.ProfileSweepInterval).
			Dur("squad_interval", constants.SquadSweepInterval).
			Dur("cleanup_interval", constants.MatchCleanupInterval).
			Msg("refresher started")

		for {
			select {
			case <-ctx.Done():
				r.logger.Info().Msg("refresher stopped")
				return
			case <-profileTicker.C:
				r.SweepProfiles(ctx)
			case <-squadTicker.C:
				r.SweepSquads(ctx)
			case <-cleanupTicker.C:
				r.CleanupMatches(ctx)
			}
		}
	}()
}

// Stop cancels the loops and waits for the current tick to finish.
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// SweepProfiles reconciles every profile whose last attempt is older than
// the staleness threshold, all concurrently.
func (r *Refresher) SweepProfiles(ctx context.Context) {
	sweepID, _ := gonanoid.New()
	logger := r.logger.With().Str("sweep", "profiles").Str("sweep_id", sweepID).Logger()

	stale, err := r.profileSource.ListStale(ctx, constants.ProfileStaleAfter)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list stale profiles")
		return
	}
	if len(stale) == 0 {
		logger.Debug().Msg("no stale profiles")
		return
	}

	var failed atomic.Int64
	p := pool.New().WithErrors()
	for i := range stale {
		profile := stale[i]
		p.Go(func() error {
			if err := r.profiles.Refresh(ctx, &profile); err != nil {
				failed.Add(1)
				logger.Error().Err(err).Str("profile_id", profile.ID).Msg("profile refresh failed")
				return err
			}
			return nil
		})
	}
	_ = p.Wait()

	logger.Info().
		Int("attempted", len(stale)).
		Int64("failed", failed.Load()).
		Msg("profile sweep finished")
}

// SweepSquads reconciles every stale squad, all concurrently.
func (r *Refresher) SweepSquads(ctx context.Context) {
	sweepID, _ := gonanoid.New()
	logger := r.logger.With().Str("sweep", "squads").Str("sweep_id", sweepID).Logger()

	stale, err := r.squadSource.ListStale(ctx, constants.SquadStaleAfter)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list stale squads")
		return
	}
	if len(stale) == 0 {
		logger.Debug().Msg("no stale squads")
		return
	}

	var failed atomic.Int64
	p := pool.New().WithErrors()
	for i := range stale {
		squad := stale[i]
		p.Go(func() error {
			if err := r.squads.Refresh(ctx, &squad); err != nil {
				failed.Add(1)
				logger.Error().Err(err).Str("squad_id", squad.ID).Msg("squad refresh failed")
				return err
			}
			return nil
		})
	}
	_ = p.Wait()

	logger.Info().
		Int("attempted", len(stale)).
		Int64("failed", failed.Load()).
		Msg("squad sweep finished")
}

// CleanupMatches drops cached matches nobody has looked at recently.
func (r *Refresher) CleanupMatches(ctx context.Context) {
	sweepID, _ := gonanoid.New()
	logger := r.logger.With().Str("sweep", "match-cleanup").Str("sweep_id", sweepID).Logger()

	deleted, err := r.matches.DeleteStale(ctx, constants.MatchStaleAfter)
	if err != nil {
		logger.Error().Err(err).Msg("failed to delete stale matches")
		return
	}
	logger.Info().Int64("deleted", deleted).Msg("match cleanup finished")
}
