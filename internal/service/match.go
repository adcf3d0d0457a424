package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"warzone-tracker/internal/api"
	"warzone-tracker/internal/constants"
	"warzone-tracker/internal/domain"
	"warzone-tracker/internal/repository"
	"warzone-tracker/internal/stats"
)

// MatchService serves full-match snapshots, caching them until the cleanup
// sweep decides nobody cares anymore.
type MatchService struct {
	client *api.Client
	repo   *repository.MatchRepository
	logger zerolog.Logger
}

func NewMatchService(client *api.Client, repo *repository.MatchRepository, logger zerolog.Logger) *MatchService {
	return &MatchService{client: client, repo: repo, logger: logger}
}

// GetMatch returns the team-grouped stats of one match, from cache when
// possible. Reading a cached match refreshes its lastTouched.
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*domain.CachedMatch, error) {
	cached, err := s.repo.Get(ctx, matchID)
	if err == nil {
		s.logger.Debug().Str("match_id", matchID).Msg("match found in cache")
		return cached, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	data, err := s.client.GetFullMatch(apiCtx, matchID)
	if err != nil {
		return nil, fmt.Errorf("fetch match %s: %w", matchID, err)
	}

	teams, err := arrangeTeams(data.AllPlayers)
	if err != nil {
		return nil, fmt.Errorf("arrange match %s: %w", matchID, err)
	}

	match := &domain.CachedMatch{
		ID:          matchID,
		Teams:       teams,
		LastTouched: time.Now(),
	}
	if err := s.repo.Upsert(ctx, match); err != nil {
		// Serving the fetched match matters more than caching it.
		s.logger.Warn().Err(err).Str("match_id", matchID).Msg("failed to cache match")
	}
	return match, nil
}

// arrangeTeams groups every player's record by the match's team label, sorts
// each team's players by kills (top fragger first) and the teams by final
// placement.
func arrangeTeams(allPlayers []stats.RawMatch) ([][]domain.MatchTeamPlayer, error) {
	byTeam := make(map[string][]domain.MatchTeamPlayer)
	order := make([]string, 0)

	for _, raw := range allPlayers {
		rec, err := stats.Normalize(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := byTeam[rec.Team]; !ok {
			order = append(order, rec.Team)
		}
		byTeam[rec.Team] = append(byTeam[rec.Team], domain.MatchTeamPlayer{
			Username:       rec.Username,
			Team:           rec.Team,
			TeamPlacement:  rec.TeamPlacement,
			Kills:          rec.Kills,
			Deaths:         rec.Deaths,
			Assists:        rec.Assists,
			DamageDone:     rec.DamageDone,
			ScorePerMinute: rec.ScorePerMinute,
			KDRatio:        rec.KDRatio,
		})
	}

	teams := make([][]domain.MatchTeamPlayer, 0, len(byTeam))
	for _, name := range order {
		team := byTeam[name]
		sort.SliceStable(team, func(i, j int) bool { return team[i].Kills > team[j].Kills })
		teams = append(teams, team)
	}
	sort.SliceStable(teams, func(i, j int) bool { return teams[i][0].TeamPlacement < teams[j][0].TeamPlacement })
	return teams, nil
}
