package constants

import "time"

const (
	BootstrapCacheTTL = 5 * time.Minute
	LiveCacheTTL      = 2 * time.Minute
	LeagueCacheTTL    = 5 * time.Minute
	HistoryCacheTTL   = 5 * time.Minute
	PicksCacheTTL     = 2 * time.Minute
	TransfersCacheTTL = 5 * time.Minute
)

const (
	ExternalAPITimeout = 10 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// StartersCount is the size of the starting eleven; slot positions
	// above it are bench slots.
	StartersCount = 11

	// FreeTransfers is how many gameweek transfers carry no penalty.
	FreeTransfers = 2

	// TransferPenalty is the point cost of each transfer beyond the
	// free allowance.
	TransferPenalty = 4
)

const (
	ChipFreeHit = "freehit"
)
