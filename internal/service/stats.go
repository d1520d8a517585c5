package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"fpl-tracker/internal/api"
	"fpl-tracker/internal/cache"
	"fpl-tracker/internal/config"
	"fpl-tracker/internal/constants"
	"fpl-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type StatsService struct {
	fpl    *api.FPLClient
	store  *cache.Store
	cfg    *config.Config
	logger zerolog.Logger
}

func NewStatsService(fpl *api.FPLClient, store *cache.Store, cfg *config.Config, logger zerolog.Logger) *StatsService {
	return &StatsService{fpl: fpl, store: store, cfg: cfg, logger: logger}
}

// Season builds the season-long report: per-manager aggregates, weekly
// winners, win counts and the manager-by-gameweek points matrix.
func (s *StatsService) Season(ctx context.Context) (*domain.SeasonStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	bootstrap, err := cache.Fetch(ctx, s.store, "bootstrap", constants.BootstrapCacheTTL, func(ctx context.Context) (*api.BootstrapResponse, error) {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.fpl.GetBootstrap(apiCtx)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch bootstrap data")
		return nil, fmt.Errorf("failed to fetch bootstrap data: %w", err)
	}

	league, err := cache.Fetch(ctx, s.store, fmt.Sprintf("league:%d", s.cfg.LeagueID), constants.LeagueCacheTTL, func(ctx context.Context) (*api.LeagueResponse, error) {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.fpl.GetLeagueStandings(apiCtx, s.cfg.LeagueID)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch league standings")
		return nil, fmt.Errorf("failed to fetch league standings: %w", err)
	}

	result := &domain.SeasonStats{
		Gameweek:   CurrentGameweek(bootstrap.Events),
		LeagueName: league.League.Name,
	}

	for _, entry := range league.Standings.Results {
		history, err := s.cachedHistory(ctx, entry.Entry)
		if err != nil {
			// skip this manager for the cycle; the table stays
			// consistent with whoever has data
			s.logger.Warn().Err(err).Int("entry", entry.Entry).Str("manager", entry.PlayerName).Msg("failed to fetch manager history")
			continue
		}
		if len(history.Current) == 0 {
			continue
		}

		records := toGameweekRecords(history.Current)
		scores := make([]domain.WeekScore, 0, len(records))
		weekly := make([]int, 0, len(records))
		for _, rec := range records {
			scores = append(scores, domain.WeekScore{Event: rec.Event, Points: rec.Points})
			weekly = append(weekly, rec.Points)
		}

		agg := Aggregate(weekly)
		agg.Weekly = scores
		agg.Manager = standingToManager(entry)
		result.Aggregates = append(result.Aggregates, agg)
	}

	if len(result.Aggregates) == 0 {
		s.logger.Warn().Msg("no historical data available yet")
		return result, nil
	}

	sort.SliceStable(result.Aggregates, func(i, j int) bool {
		return result.Aggregates[i].TotalPoints > result.Aggregates[j].TotalPoints
	})

	result.WeeklyWinners = WeeklyWinners(result.Aggregates)
	result.WinCounts = WinCounts(result.WeeklyWinners)
	result.Matrix = BuildMatrix(result.Aggregates)
	result.MostConsistent = mostConsistent(result.Aggregates)
	result.HighestWeek = highestWeek(result.Aggregates)

	s.logger.Info().Int("managers", len(result.Aggregates)).Int("gameweek", result.Gameweek).Msg("season stats derived")
	return result, nil
}

func toGameweekRecords(current []api.HistoryEvent) []domain.GameweekRecord {
	records := make([]domain.GameweekRecord, 0, len(current))
	for _, gw := range current {
		records = append(records, domain.GameweekRecord{
			Event:         gw.Event,
			Points:        gw.Points,
			TotalPoints:   gw.TotalPoints,
			Transfers:     gw.EventTransfers,
			TransfersCost: gw.EventTransfersCost,
			BenchPoints:   gw.PointsOnBench,
			OverallRank:   gw.OverallRank,
		})
	}
	return records
}

func (s *StatsService) cachedHistory(ctx context.Context, entryID int) (*api.HistoryResponse, error) {
	return cache.Fetch(ctx, s.store, fmt.Sprintf("history:%d", entryID), constants.HistoryCacheTTL, func(ctx context.Context) (*api.HistoryResponse, error) {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.fpl.GetEntryHistory(apiCtx, entryID)
	})
}

// Aggregate computes season statistics over one manager's weekly point
// list: total, mean, population standard deviation, best and worst week.
func Aggregate(weekly []int) domain.ManagerAggregate {
	agg := domain.ManagerAggregate{}
	if len(weekly) == 0 {
		return agg
	}

	total := 0
	best := weekly[0]
	worst := weekly[0]
	for _, p := range weekly {
		total += p
		if p > best {
			best = p
		}
		if p < worst {
			worst = p
		}
	}

	mean := float64(total) / float64(len(weekly))
	variance := 0.0
	for _, p := range weekly {
		d := float64(p) - mean
		variance += d * d
	}
	variance /= float64(len(weekly))

	agg.TotalPoints = total
	agg.AveragePoints = mean
	agg.StdDev = math.Sqrt(variance)
	agg.BestWeek = best
	agg.WorstWeek = worst
	return agg
}

// WeeklyWinners determines each gameweek's winner: the manager with the
// maximum points that week. Scores are matched by event number, so a
// manager who joined mid-season only competes in the weeks they have a
// recorded score for. Ties go to the manager encountered first in the
// given aggregate order, which keeps the result deterministic.
func WeeklyWinners(aggregates []domain.ManagerAggregate) []domain.WeeklyWinner {
	maxEvent := 0
	for _, agg := range aggregates {
		for _, ws := range agg.Weekly {
			if ws.Event > maxEvent {
				maxEvent = ws.Event
			}
		}
	}

	winners := make([]domain.WeeklyWinner, 0, maxEvent)
	for event := 1; event <= maxEvent; event++ {
		var winner *domain.WeeklyWinner
		for _, agg := range aggregates {
			pts, ok := scoreFor(agg.Weekly, event)
			if !ok {
				continue
			}
			if winner == nil || pts > winner.Points {
				winner = &domain.WeeklyWinner{
					Gameweek: event,
					Manager:  agg.Manager.Name,
					Points:   pts,
				}
			}
		}
		if winner != nil {
			winners = append(winners, *winner)
		}
	}
	return winners
}

func scoreFor(weekly []domain.WeekScore, event int) (int, bool) {
	for _, ws := range weekly {
		if ws.Event == event {
			return ws.Points, true
		}
	}
	return 0, false
}

// WinCounts tallies weekly wins per manager, sorted by wins descending
// with name as the tiebreaker.
func WinCounts(winners []domain.WeeklyWinner) []domain.WinCount {
	tally := make(map[string]int)
	for _, w := range winners {
		tally[w.Manager]++
	}

	counts := make([]domain.WinCount, 0, len(tally))
	for name, wins := range tally {
		counts = append(counts, domain.WinCount{Manager: name, Wins: wins})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Wins != counts[j].Wins {
			return counts[i].Wins > counts[j].Wins
		}
		return counts[i].Manager < counts[j].Manager
	})
	return counts
}

// BuildMatrix lays the weekly scores out as a grid with one column per
// event number, leaving nil where a manager has no recorded score for
// that week.
func BuildMatrix(aggregates []domain.ManagerAggregate) domain.PointsMatrix {
	matrix := domain.PointsMatrix{}
	for _, agg := range aggregates {
		for _, ws := range agg.Weekly {
			if ws.Event > matrix.Gameweeks {
				matrix.Gameweeks = ws.Event
			}
		}
	}

	for _, agg := range aggregates {
		matrix.Managers = append(matrix.Managers, agg.Manager.Name)
		row := make([]*int, matrix.Gameweeks)
		for _, ws := range agg.Weekly {
			if ws.Event < 1 || ws.Event > matrix.Gameweeks {
				continue
			}
			p := ws.Points
			row[ws.Event-1] = &p
		}
		matrix.Points = append(matrix.Points, row)
	}
	return matrix
}

func mostConsistent(aggregates []domain.ManagerAggregate) *domain.Notable {
	var pick *domain.ManagerAggregate
	for i := range aggregates {
		if pick == nil || aggregates[i].StdDev < pick.StdDev {
			pick = &aggregates[i]
		}
	}
	if pick == nil {
		return nil
	}
	return &domain.Notable{Manager: pick.Manager.Name, Value: pick.StdDev}
}

func highestWeek(aggregates []domain.ManagerAggregate) *domain.Notable {
	var pick *domain.ManagerAggregate
	for i := range aggregates {
		if pick == nil || aggregates[i].BestWeek > pick.BestWeek {
			pick = &aggregates[i]
		}
	}
	if pick == nil {
		return nil
	}
	return &domain.Notable{Manager: pick.Manager.Name, Value: float64(pick.BestWeek)}
}
