package domain

// Manager is one entry in the mini-league.
type Manager struct {
	EntryID     int
	Name        string
	TeamName    string
	Rank        int
	TotalPoints int
	TeamLink    string
}

// PlayerInfo is the static lookup for an FPL element: display name,
// singular position name and club, resolved from bootstrap data.
type PlayerInfo struct {
	ID       int
	Name     string
	Position string
	Team     string
}

// Pick is one slot in a manager's gameweek squad after live points have
// been applied. Slot positions 1-11 are starters, 12-15 are bench.
type Pick struct {
	PlayerID  int
	Name      string
	Slot      int
	Points    int
	IsCaptain bool
	OnBench   bool
	Played    bool
}

// CaptainInfo describes the captained player for a gameweek.
type CaptainInfo struct {
	Name   string
	Team   string
	Points int
	Played bool
}

// GameweekDetail is the derived live view of one manager's gameweek.
type GameweekDetail struct {
	PointsByPosition map[string]int
	BenchPoints      int
	Captain          *CaptainInfo
	PlayedCount      int
	TransfersMade    int
	TransferCost     int
	ActiveChip       string
	LivePoints       int
	Picks            []Pick
}

// LiveStanding pairs a manager with their derived live gameweek detail.
type LiveStanding struct {
	Manager Manager
	Detail  GameweekDetail
}

// GameweekRecord is one week from a manager's season history. Weekly
// records are append-only over the season.
type GameweekRecord struct {
	Event         int
	Points        int
	TotalPoints   int
	Transfers     int
	TransfersCost int
	BenchPoints   int
	OverallRank   int
}

// WeekScore is one gameweek's points, keyed by the event number so a
// manager who joined mid-season still lines up with the right weeks.
type WeekScore struct {
	Event  int
	Points int
}

// ManagerAggregate holds season-long statistics for one manager.
type ManagerAggregate struct {
	Manager       Manager
	TotalPoints   int
	AveragePoints float64
	StdDev        float64
	BestWeek      int
	WorstWeek     int
	Weekly        []WeekScore
}

// WeeklyWinner records who won a single gameweek.
type WeeklyWinner struct {
	Gameweek int
	Manager  string
	Points   int
}

// PastSeason is a manager's result from a previous FPL season.
type PastSeason struct {
	Season      string
	TotalPoints int
	Rank        int
}

// LiveGameweek is the assembled live dashboard for the current week.
// Standings are sorted by live points descending. Provisional stays true
// until the remote source marks the event finished.
type LiveGameweek struct {
	Gameweek    int
	LeagueName  string
	Provisional bool
	Standings   []LiveStanding
}

// Notable is a single-stat callout (most consistent manager, highest
// single week).
type Notable struct {
	Manager string
	Value   float64
}

// PointsMatrix is the manager-by-gameweek points grid. Rows are padded
// with nil where a manager has fewer recorded weeks than the longest.
type PointsMatrix struct {
	Managers  []string
	Gameweeks int
	Points    [][]*int
}

// SeasonStats is the assembled season-long report for the league.
type SeasonStats struct {
	Gameweek       int
	LeagueName     string
	Aggregates     []ManagerAggregate
	WeeklyWinners  []WeeklyWinner
	WinCounts      []WinCount
	Matrix         PointsMatrix
	MostConsistent *Notable
	HighestWeek    *Notable
}

// WinCount is how many gameweeks a manager has won, sorted descending in
// reports.
type WinCount struct {
	Manager string
	Wins    int
}

// ManagerCard is the preseason roster entry for one manager.
type ManagerCard struct {
	Manager    Manager
	LastSeason *PastSeason
}

// PreseasonReport is served before the first gameweek deadline passes.
type PreseasonReport struct {
	LeagueName    string
	Managers      []ManagerCard
	Champion      *ManagerCard
	AveragePoints float64
}
