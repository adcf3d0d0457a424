package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"warzone-tracker/internal/api"
	"warzone-tracker/internal/config"
	"warzone-tracker/internal/database"
	"warzone-tracker/internal/logger"
	"warzone-tracker/internal/repository"
	"warzone-tracker/internal/scheduler"
	"warzone-tracker/internal/server"
	"warzone-tracker/internal/service"
	"warzone-tracker/internal/stats"
)

func provideRefresher(
	profileRepo *repository.ProfileRepository,
	profiles *service.ProfileService,
	squadRepo *repository.SquadRepository,
	squads *service.SquadService,
	matchRepo *repository.MatchRepository,
	logger zerolog.Logger,
) *scheduler.Refresher {
	return scheduler.New(profileRepo, profiles, squadRepo, squads, matchRepo, logger)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewProfileRepository),
	fx.Provide(repository.NewSquadRepository),
	fx.Provide(repository.NewMatchRepository),
	// upstream client + core engine
	fx.Provide(api.NewClient),
	fx.Provide(stats.NewAggregator),
	// svc
	fx.Provide(service.NewHistoryFetcher),
	fx.Provide(service.NewProfileService),
	fx.Provide(service.NewSquadService),
	fx.Provide(service.NewMatchService),
	// background sweeps + server
	fx.Provide(provideRefresher),
	fx.Provide(server.NewTrackerServer),
)
