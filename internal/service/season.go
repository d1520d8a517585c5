package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fpl-tracker/internal/api"
	"fpl-tracker/internal/cache"
	"fpl-tracker/internal/config"
	"fpl-tracker/internal/constants"
	"fpl-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type SeasonService struct {
	fpl    *api.FPLClient
	store  *cache.Store
	cfg    *config.Config
	logger zerolog.Logger
}

func NewSeasonService(fpl *api.FPLClient, store *cache.Store, cfg *config.Config, logger zerolog.Logger) *SeasonService {
	return &SeasonService{fpl: fpl, store: store, cfg: cfg, logger: logger}
}

// Status reports whether the season has started and which gameweek is
// current.
func (s *SeasonService) Status(ctx context.Context) (bool, int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	bootstrap, err := cache.Fetch(ctx, s.store, "bootstrap", constants.BootstrapCacheTTL, func(ctx context.Context) (*api.BootstrapResponse, error) {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.fpl.GetBootstrap(apiCtx)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch bootstrap data")
		return false, 0, fmt.Errorf("failed to fetch bootstrap data: %w", err)
	}

	started, gw := SeasonStarted(bootstrap.Events, time.Now())
	return started, gw, nil
}

// Preseason builds the welcome roster served before the first deadline:
// every manager in the league, alphabetical by name, with their most
// recent past season attached.
func (s *SeasonService) Preseason(ctx context.Context) (*domain.PreseasonReport, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	league, err := cache.Fetch(ctx, s.store, fmt.Sprintf("league:%d", s.cfg.LeagueID), constants.LeagueCacheTTL, func(ctx context.Context) (*api.LeagueResponse, error) {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.fpl.GetLeagueStandings(apiCtx, s.cfg.LeagueID)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch league standings")
		return nil, fmt.Errorf("failed to fetch league standings: %w", err)
	}

	managers := rosterFromLeague(league)
	if len(managers) == 0 {
		return nil, fmt.Errorf("no managers found in league %d", s.cfg.LeagueID)
	}

	sort.SliceStable(managers, func(i, j int) bool {
		return managers[i].Name < managers[j].Name
	})

	report := &domain.PreseasonReport{LeagueName: league.League.Name}
	for _, m := range managers {
		card := domain.ManagerCard{Manager: m}

		history, err := s.cachedHistory(ctx, m.EntryID)
		if err != nil {
			s.logger.Warn().Err(err).Int("entry", m.EntryID).Msg("failed to fetch manager history")
		} else {
			card.LastSeason = MostRecentSeason(history.Past)
		}
		report.Managers = append(report.Managers, card)
	}

	fillLeagueStats(report)

	s.logger.Info().Int("managers", len(report.Managers)).Str("league", report.LeagueName).Msg("preseason roster built")
	return report, nil
}

func (s *SeasonService) cachedHistory(ctx context.Context, entryID int) (*api.HistoryResponse, error) {
	return cache.Fetch(ctx, s.store, fmt.Sprintf("history:%d", entryID), constants.HistoryCacheTTL, func(ctx context.Context) (*api.HistoryResponse, error) {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.fpl.GetEntryHistory(apiCtx, entryID)
	})
}

// SeasonStarted decides whether any scoring has begun. With no current
// event, or a current event at 1 whose deadline is still in the future,
// the season has not started.
func SeasonStarted(events []api.Event, now time.Time) (bool, int) {
	current := 0
	for _, e := range events {
		if e.IsCurrent {
			current = e.ID
			break
		}
	}

	if current <= 1 {
		for _, e := range events {
			if e.ID == 1 {
				if now.Before(e.DeadlineTime) {
					return false, 0
				}
				break
			}
		}
	}

	if current == 0 {
		current = 1
	}
	return true, current
}

// MostRecentSeason picks the latest entry of a past-season list, by
// season name. Returns nil when the manager has no history.
func MostRecentSeason(past []api.HistorySeason) *domain.PastSeason {
	if len(past) == 0 {
		return nil
	}

	sorted := make([]api.HistorySeason, len(past))
	copy(sorted, past)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SeasonName > sorted[j].SeasonName
	})

	return &domain.PastSeason{
		Season:      sorted[0].SeasonName,
		TotalPoints: sorted[0].TotalPoints,
		Rank:        sorted[0].Rank,
	}
}

// rosterFromLeague prefers new_entries, which is where managers live
// before the season starts; once standings fill up it reads those.
func rosterFromLeague(league *api.LeagueResponse) []domain.Manager {
	var managers []domain.Manager

	for _, e := range league.NewEntries.Results {
		managers = append(managers, domain.Manager{
			EntryID:  e.Entry,
			Name:     fmt.Sprintf("%s %s", e.PlayerFirstName, e.PlayerLastName),
			TeamName: e.EntryName,
			TeamLink: fmt.Sprintf("https://fantasy.premierleague.com/entry/%d", e.Entry),
		})
	}
	if len(managers) > 0 {
		return managers
	}

	for _, e := range league.Standings.Results {
		managers = append(managers, standingToManager(e))
	}
	return managers
}

func fillLeagueStats(report *domain.PreseasonReport) {
	total := 0
	counted := 0
	for i := range report.Managers {
		card := &report.Managers[i]
		if card.LastSeason == nil {
			continue
		}
		total += card.LastSeason.TotalPoints
		counted++
		if report.Champion == nil || card.LastSeason.TotalPoints > report.Champion.LastSeason.TotalPoints {
			report.Champion = card
		}
	}
	if counted > 0 {
		report.AveragePoints = float64(total) / float64(counted)
	}
}
