package service

import (
	"context"
	"fmt"
	"sort"

	"fpl-tracker/internal/api"
	"fpl-tracker/internal/cache"
	"fpl-tracker/internal/config"
	"fpl-tracker/internal/constants"
	"fpl-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type LiveService struct {
	fpl    *api.FPLClient
	store  *cache.Store
	cfg    *config.Config
	logger zerolog.Logger
}

func NewLiveService(fpl *api.FPLClient, store *cache.Store, cfg *config.Config, logger zerolog.Logger) *LiveService {
	return &LiveService{fpl: fpl, store: store, cfg: cfg, logger: logger}
}

// Gameweek derives the live table for the current gameweek: one row per
// manager with captain doubling, bench points and transfer penalties
// applied, sorted by live points descending.
func (s *LiveService) Gameweek(ctx context.Context) (*domain.LiveGameweek, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	cycleID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate cycle id: %w", err)
	}
	logger := s.logger.With().Str("cycle_id", cycleID).Logger()

	bootstrap, err := s.cachedBootstrap(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch bootstrap data")
		return nil, fmt.Errorf("failed to fetch bootstrap data: %w", err)
	}

	gw := CurrentGameweek(bootstrap.Events)
	logger.Info().Int("gameweek", gw).Msg("deriving live gameweek")

	var live *api.LiveResponse
	var league *api.LeagueResponse

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		live, err = cache.Fetch(gCtx, s.store, fmt.Sprintf("live:%d", gw), constants.LiveCacheTTL, func(ctx context.Context) (*api.LiveResponse, error) {
			apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
			defer cancel()
			return s.fpl.GetLive(apiCtx, gw)
		})
		return err
	})
	g.Go(func() error {
		var err error
		league, err = s.cachedLeague(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to fetch live data or league standings")
		return nil, fmt.Errorf("failed to fetch live data or league standings: %w", err)
	}

	players := PlayerLookup(bootstrap)
	liveStats := make(map[int]api.LiveStats, len(live.Elements))
	for _, el := range live.Elements {
		liveStats[el.ID] = el.Stats
	}

	result := &domain.LiveGameweek{
		Gameweek:    gw,
		LeagueName:  league.League.Name,
		Provisional: !eventFinished(bootstrap.Events, gw),
	}

	for _, entry := range league.Standings.Results {
		manager := standingToManager(entry)

		detail, err := s.managerDetail(ctx, entry.Entry, gw, liveStats, players)
		if err != nil {
			// a manager whose picks are unreachable shows as zeros
			// until the next refresh
			logger.Warn().Err(err).Int("entry", entry.Entry).Str("manager", entry.PlayerName).Msg("failed to derive manager gameweek")
			detail = emptyDetail()
		}

		result.Standings = append(result.Standings, domain.LiveStanding{
			Manager: manager,
			Detail:  detail,
		})
	}

	sort.SliceStable(result.Standings, func(i, j int) bool {
		return result.Standings[i].Detail.LivePoints > result.Standings[j].Detail.LivePoints
	})

	logger.Info().Int("managers", len(result.Standings)).Bool("provisional", result.Provisional).Msg("live gameweek derived")
	return result, nil
}

func (s *LiveService) managerDetail(ctx context.Context, entryID, gw int, liveStats map[int]api.LiveStats, players map[int]domain.PlayerInfo) (domain.GameweekDetail, error) {
	var picks *api.PicksResponse
	var transfers []api.Transfer

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		picks, err = cache.Fetch(gCtx, s.store, fmt.Sprintf("picks:%d:%d", entryID, gw), constants.PicksCacheTTL, func(ctx context.Context) (*api.PicksResponse, error) {
			apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
			defer cancel()
			return s.fpl.GetEntryPicks(apiCtx, entryID, gw)
		})
		return err
	})
	g.Go(func() error {
		var err error
		transfers, err = cache.Fetch(gCtx, s.store, fmt.Sprintf("transfers:%d", entryID), constants.TransfersCacheTTL, func(ctx context.Context) ([]api.Transfer, error) {
			apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
			defer cancel()
			return s.fpl.GetEntryTransfers(apiCtx, entryID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.GameweekDetail{}, err
	}

	made := 0
	for _, t := range transfers {
		if t.Event == gw {
			made++
		}
	}

	return DeriveGameweek(picks.Picks, picks.ActiveChip, made, liveStats, players), nil
}

func (s *LiveService) cachedBootstrap(ctx context.Context) (*api.BootstrapResponse, error) {
	return cache.Fetch(ctx, s.store, "bootstrap", constants.BootstrapCacheTTL, func(ctx context.Context) (*api.BootstrapResponse, error) {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.fpl.GetBootstrap(apiCtx)
	})
}

func (s *LiveService) cachedLeague(ctx context.Context) (*api.LeagueResponse, error) {
	return cache.Fetch(ctx, s.store, fmt.Sprintf("league:%d", s.cfg.LeagueID), constants.LeagueCacheTTL, func(ctx context.Context) (*api.LeagueResponse, error) {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()
		return s.fpl.GetLeagueStandings(apiCtx, s.cfg.LeagueID)
	})
}

// TransferCost is the point penalty for a gameweek's transfers: zero on
// a free hit or within the free allowance, otherwise 4 per transfer
// beyond the first two.
func TransferCost(transfersMade int, activeChip string) int {
	if activeChip == constants.ChipFreeHit {
		return 0
	}
	extra := transfersMade - constants.FreeTransfers
	if extra <= 0 {
		return 0
	}
	return extra * constants.TransferPenalty
}

// DeriveGameweek turns a manager's picks plus the gameweek live feed
// into a GameweekDetail. Players missing from the live feed count as
// zero. Starters score live points times their multiplier; bench slots
// score raw points.
func DeriveGameweek(picks []api.PickSlot, activeChip string, transfersMade int, liveStats map[int]api.LiveStats, players map[int]domain.PlayerInfo) domain.GameweekDetail {
	detail := domain.GameweekDetail{
		PointsByPosition: map[string]int{
			PositionGoalkeeper: 0,
			PositionDefender:   0,
			PositionMidfielder: 0,
			PositionForward:    0,
		},
		ActiveChip:    activeChip,
		TransfersMade: transfersMade,
		TransferCost:  TransferCost(transfersMade, activeChip),
	}

	for _, p := range picks {
		info := players[p.Element]
		stats, hasLive := liveStats[p.Element]

		played := hasLive && stats.Minutes > 0
		onBench := p.Position > constants.StartersCount

		points := 0
		if hasLive {
			if onBench {
				points = stats.TotalPoints
			} else {
				points = stats.TotalPoints * p.Multiplier
			}
		}

		if onBench {
			detail.BenchPoints += points
		} else {
			pos := info.Position
			if pos == "" {
				pos = PositionUnknown
			}
			detail.PointsByPosition[pos] += points
			if played {
				detail.PlayedCount++
			}
		}

		if p.Multiplier > 1 {
			detail.Captain = &domain.CaptainInfo{
				Name:   info.Name,
				Team:   info.Team,
				Points: points,
				Played: played,
			}
		}

		detail.Picks = append(detail.Picks, domain.Pick{
			PlayerID:  p.Element,
			Name:      info.Name,
			Slot:      p.Position,
			Points:    points,
			IsCaptain: p.Multiplier > 1,
			OnBench:   onBench,
			Played:    played,
		})
	}

	sort.Slice(detail.Picks, func(i, j int) bool {
		return detail.Picks[i].Slot < detail.Picks[j].Slot
	})

	starting := 0
	for _, pts := range detail.PointsByPosition {
		starting += pts
	}
	detail.LivePoints = starting + detail.BenchPoints - detail.TransferCost

	return detail
}

// PlayerLookup resolves every bootstrap element to its display name,
// position and club.
func PlayerLookup(bootstrap *api.BootstrapResponse) map[int]domain.PlayerInfo {
	positions := make(map[int]string, len(bootstrap.ElementTypes))
	for _, et := range bootstrap.ElementTypes {
		positions[et.ID] = et.SingularName
	}
	teams := make(map[int]string, len(bootstrap.Teams))
	for _, t := range bootstrap.Teams {
		teams[t.ID] = t.Name
	}

	players := make(map[int]domain.PlayerInfo, len(bootstrap.Elements))
	for _, el := range bootstrap.Elements {
		players[el.ID] = domain.PlayerInfo{
			ID:       el.ID,
			Name:     el.WebName,
			Position: positions[el.ElementType],
			Team:     teams[el.Team],
		}
	}
	return players
}

// CurrentGameweek picks the event marked current, falling back to 1
// before the season settles.
func CurrentGameweek(events []api.Event) int {
	for _, e := range events {
		if e.IsCurrent {
			return e.ID
		}
	}
	return 1
}

func eventFinished(events []api.Event, id int) bool {
	for _, e := range events {
		if e.ID == id {
			return e.Finished
		}
	}
	return false
}

func standingToManager(entry api.StandingEntry) domain.Manager {
	return domain.Manager{
		EntryID:     entry.Entry,
		Name:        entry.PlayerName,
		TeamName:    entry.EntryName,
		Rank:        entry.Rank,
		TotalPoints: entry.Total,
		TeamLink:    fmt.Sprintf("https://fantasy.premierleague.com/entry/%d", entry.Entry),
	}
}

func emptyDetail() domain.GameweekDetail {
	return domain.GameweekDetail{
		PointsByPosition: map[string]int{
			PositionGoalkeeper: 0,
			PositionDefender:   0,
			PositionMidfielder: 0,
			PositionForward:    0,
		},
	}
}

// Position names as bootstrap-static spells them.
const (
	PositionGoalkeeper = "Goalkeeper"
	PositionDefender   = "Defender"
	PositionMidfielder = "Midfielder"
	PositionForward    = "Forward"

	// PositionUnknown buckets picks whose element is missing from the
	// bootstrap lookup, so stale squads never produce an empty map key.
	PositionUnknown = "Unknown"
)
