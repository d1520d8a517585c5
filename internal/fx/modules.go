package fx

import (
	"fpl-tracker/internal/api"
	"fpl-tracker/internal/cache"
	"fpl-tracker/internal/config"
	"fpl-tracker/internal/logger"
	"fpl-tracker/internal/server"
	"fpl-tracker/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(cache.NewStore),
	// api client
	fx.Provide(api.NewFPLClient),
	// svc
	fx.Provide(service.NewLiveService),
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewSeasonService),
	// server
	fx.Provide(server.NewDashboardServer),
)
