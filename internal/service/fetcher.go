package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"warzone-tracker/internal/api"
	"warzone-tracker/internal/constants"
	"warzone-tracker/internal/domain"
	"warzone-tracker/internal/stats"
)

// HistoryFetcher pulls a player's match history from the upstream API one
// page at a time and normalizes it into a PlayerHistory.
type HistoryFetcher struct {
	client *api.Client
	logger zerolog.Logger
}

func NewHistoryFetcher(client *api.Client, logger zerolog.Logger) *HistoryFetcher {
	return &HistoryFetcher{client: client, logger: logger}
}

// FetchHistory fetches up to the given number of pages, most recent first.
// The first page is retried up to constants.FirstPageRetries times; later
// pages get constants.LaterPageRetries. When a later page keeps failing the
// pages fetched so far are returned with partial=true instead of an error;
// the upstream API collapses often enough that a shorter history beats
// making the caller start over.
func (f *HistoryFetcher) FetchHistory(ctx context.Context, platform, username string, pages int) (domain.PlayerHistory, bool, error) {
	var history domain.PlayerHistory
	seen := make(map[string]struct{})

	for page := 0; page < pages; page++ {
		var (
			data *api.LastGamesData
			err  error
		)
		if page == 0 {
			data, err = f.fetchPage(ctx, platform, username, 0, constants.FirstPageRetries)
			if err != nil {
				return nil, false, err
			}
		} else {
			before, parseErr := stats.ParseGameDate(history[len(history)-1].GameDate)
			if parseErr != nil {
				return nil, false, parseErr
			}
			data, err = f.fetchPage(ctx, platform, username, before.UnixMilli(), constants.LaterPageRetries)
			if err != nil {
				if api.IsPermanent(err) {
					return nil, false, err
				}
				f.logger.Warn().Err(err).
					Str("platform", platform).
					Str("username", username).
					Int("page", page).
					Msg("pagination failed mid-fetch, returning partial history")
				return history, true, nil
			}
		}

		if len(data.Matches) == 0 {
			break
		}

		morePages := len(data.Matches) >= constants.PageSize

		for _, raw := range data.Matches {
			rec, err := stats.Normalize(raw)
			if err != nil {
				return nil, false, err
			}
			if _, dup := seen[rec.MatchID]; dup {
				continue
			}
			seen[rec.MatchID] = struct{}{}
			history = append(history, rec)
		}

		// A short page means the player has no older matches.
		if !morePages {
			break
		}
	}

	return history, false, nil
}

func (f *HistoryFetcher) fetchPage(ctx context.Context, platform, username string, beforeMillis int64, attempts int) (*api.LastGamesData, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		var (
			data *api.LastGamesData
			err  error
		)
		if beforeMillis == 0 {
			data, err = f.client.GetLastGames(apiCtx, platform, username)
		} else {
			data, err = f.client.GetLastGamesBefore(apiCtx, platform, username, beforeMillis)
		}
		cancel()

		if err == nil {
			return data, nil
		}
		if api.IsPermanent(err) {
			return nil, err
		}
		lastErr = err
		f.logger.Debug().Err(err).
			Str("platform", platform).
			Str("username", username).
			Int("attempt", attempt).
			Msg("history page fetch failed, retrying")
	}
	return nil, fmt.Errorf("history fetch for %s/%s gave up after %d attempts: %w", platform, username, attempts, lastErr)
}

// FetchGeneralStats fetches the lifetime + weekly blob. Only the br lifetime
// block is required; everything else is carried opaquely.
func (f *HistoryFetcher) FetchGeneralStats(ctx context.Context, platform, username string) (domain.GeneralStats, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	data, err := f.client.GetLifetime(apiCtx, platform, username)
	if err != nil {
		return nil, err
	}
	return arrangeGeneralStats(data)
}

func arrangeGeneralStats(data *api.LifetimeData) (domain.GeneralStats, error) {
	var lifetime map[string]interface{}
	if err := json.Unmarshal(data.Lifetime, &lifetime); err != nil {
		return nil, fmt.Errorf("lifetime stats: %w", stats.ErrUpstreamShape)
	}
	props := dig(lifetime, "mode", "br", "properties")
	if props == nil {
		return nil, fmt.Errorf("lifetime stats missing br properties: %w", stats.ErrUpstreamShape)
	}

	general := domain.GeneralStats{"br_lifetime_data": props}
	if len(data.Weekly) > 0 {
		var weekly map[string]interface{}
		if err := json.Unmarshal(data.Weekly, &weekly); err == nil {
			general["weeklyStats"] = weekly
		}
	}
	return general, nil
}

func dig(m map[string]interface{}, keys ...string) interface{} {
	var current interface{} = m
	for _, key := range keys {
		asMap, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = asMap[key]
		if !ok {
			return nil
		}
	}
	return current
}
