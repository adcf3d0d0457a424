package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"warzone-tracker/internal/constants"
	"warzone-tracker/internal/domain"
	"warzone-tracker/internal/repository"
	"warzone-tracker/internal/stats"
)

// MemberLifetime pairs a member with their lifetime stat blob; squad
// responses carry it alongside the shared stats.
type MemberLifetime struct {
	Username string      `json:"username"`
	Lifetime interface{} `json:"lifetime"`
}

type SquadService struct {
	profiles   *ProfileService
	repo       *repository.SquadRepository
	aggregator *stats.Aggregator
	logger     zerolog.Logger
}

func NewSquadService(profiles *ProfileService, repo *repository.SquadRepository, aggregator *stats.Aggregator, logger zerolog.Logger) *SquadService {
	return &SquadService{profiles: profiles, repo: repo, aggregator: aggregator, logger: logger}
}

// SquadKey derives the composite squad identifier from the members' profile
// IDs: sorted lexicographically and concatenated, so any input order of the
// same group yields the same key.
func SquadKey(profileIDs []string) string {
	sorted := make([]string, len(profileIDs))
	copy(sorted, profileIDs)
	sort.Strings(sorted)
	return strings.Join(sorted, "")
}

// CreateOrGet resolves every member's profile (in parallel; one failure
// aborts the whole operation), then returns the existing squad for that
// member set or creates it from an initial shared-stats build. A group with
// zero shared matches still gets an aggregate, with empty lists.
func (s *SquadService) CreateOrGet(ctx context.Context, members []domain.SquadMember) (*domain.SquadAggregate, []MemberLifetime, error) {
	profiles, err := s.resolveProfiles(ctx, members)
	if err != nil {
		return nil, nil, err
	}
	lifetimes := memberLifetimes(profiles)

	key := SquadKey(profileIDs(profiles))
	squad, err := s.repo.Get(ctx, key)
	if err == nil {
		return squad, lifetimes, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, err
	}

	squad = s.buildSquad(key, members, profiles)
	if err := s.repo.Insert(ctx, squad); err != nil {
		// Lost a creation race with an identical concurrent request.
		if existing, getErr := s.repo.Get(ctx, key); getErr == nil {
			return existing, lifetimes, nil
		}
		return nil, nil, err
	}

	s.logger.Info().
		Str("squad_id", key).
		Int("members", len(members)).
		Int("shared_matches", len(squad.MatchSummaries)).
		Msg("squad created")
	return squad, lifetimes, nil
}

// Compare computes shared stats for a group without persisting anything new.
// When the group already has a stored squad, the stored stats are returned.
func (s *SquadService) Compare(ctx context.Context, members []domain.SquadMember) (*domain.SquadAggregate, []MemberLifetime, error) {
	profiles, err := s.resolveProfiles(ctx, members)
	if err != nil {
		return nil, nil, err
	}
	lifetimes := memberLifetimes(profiles)

	key := SquadKey(profileIDs(profiles))
	if squad, err := s.repo.Get(ctx, key); err == nil {
		return squad, lifetimes, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, err
	}

	return s.buildSquad(key, members, profiles), lifetimes, nil
}

// Refresh reconciles a stored squad against its members' current stored
// histories (the profile sweep keeps those fresh). lastUpdatedAt is touched
// even when there is nothing new, so the sweep moves on.
func (s *SquadService) Refresh(ctx context.Context, squad *domain.SquadAggregate) error {
	histories := make([]domain.PlayerHistory, 0, len(squad.MemberProfileIDs))
	for _, id := range squad.MemberProfileIDs {
		profile, err := s.profiles.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("squad %s member profile %s: %w", squad.ID, id, err)
		}
		histories = append(histories, profile.LastGames)
	}

	result, err := s.aggregator.ReconcileSquad(squad, histories)
	if err != nil {
		return fmt.Errorf("reconcile squad %s: %w", squad.ID, err)
	}
	if !result.Updated {
		return s.repo.TouchLastUpdated(ctx, squad.ID)
	}

	var lastErr error
	for attempt := 0; attempt <= constants.PersistenceRetries; attempt++ {
		lastErr = s.repo.ReplaceStats(ctx, squad.ID, result.Players, result.Matches)
		if lastErr == nil {
			s.logger.Info().
				Str("squad_id", squad.ID).
				Int("total_matches", len(result.Matches)).
				Msg("squad reconciled")
			return nil
		}
		s.logger.Warn().Err(lastErr).Str("squad_id", squad.ID).Int("attempt", attempt+1).Msg("squad stats persist failed")
	}
	return fmt.Errorf("squad %s: %w: %v", squad.ID, ErrPersistFailed, lastErr)
}

func (s *SquadService) resolveProfiles(ctx context.Context, members []domain.SquadMember) ([]*domain.PlayerProfile, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("squad needs at least one member")
	}

	profiles := make([]*domain.PlayerProfile, len(members))
	g, gCtx := errgroup.WithContext(ctx)
	for i, member := range members {
		i, member := i, member
		g.Go(func() error {
			profile, err := s.profiles.GetOrCreate(gCtx, member.Platform, member.Username)
			if err != nil {
				return fmt.Errorf("member %s/%s: %w", member.Platform, member.Username, err)
			}
			profiles[i] = profile
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *SquadService) buildSquad(key string, members []domain.SquadMember, profiles []*domain.PlayerProfile) *domain.SquadAggregate {
	histories := make([]domain.PlayerHistory, len(profiles))
	for i, p := range profiles {
		histories[i] = p.LastGames
	}
	shared := s.aggregator.BuildShared(histories)

	now := time.Now()
	return &domain.SquadAggregate{
		ID:               key,
		Members:          normalizeMembers(members),
		MemberProfileIDs: sortedIDs(profiles),
		PlayerStats:      shared.Players,
		MatchSummaries:   shared.Matches,
		LastUpdatedAt:    now,
		CreatedAt:        now,
	}
}

func normalizeMembers(members []domain.SquadMember) []domain.SquadMember {
	out := make([]domain.SquadMember, len(members))
	for i, m := range members {
		out[i] = domain.SquadMember{Username: strings.ToLower(m.Username), Platform: m.Platform}
	}
	return out
}

func profileIDs(profiles []*domain.PlayerProfile) []string {
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	return ids
}

func sortedIDs(profiles []*domain.PlayerProfile) []string {
	ids := profileIDs(profiles)
	sort.Strings(ids)
	return ids
}

func memberLifetimes(profiles []*domain.PlayerProfile) []MemberLifetime {
	out := make([]MemberLifetime, len(profiles))
	for i, p := range profiles {
		out[i] = MemberLifetime{
			Username: p.Username,
			Lifetime: p.GeneralStats["br_lifetime_data"],
		}
	}
	return out
}
