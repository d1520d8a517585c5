package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	LeagueID   int
	FPLBaseURL string
	ServerPort string
	LogLevel   string
	CacheTTL   time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		FPLBaseURL: getEnv("FPL_BASE_URL", "https://fantasy.premierleague.com/api"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		CacheTTL:   5 * time.Minute,
	}

	leagueID := getEnv("FPL_LEAGUE_ID", "")
	if leagueID == "" {
		return nil, fmt.Errorf("FPL_LEAGUE_ID is required")
	}
	id, err := strconv.Atoi(leagueID)
	if err != nil {
		return nil, fmt.Errorf("FPL_LEAGUE_ID must be numeric: %w", err)
	}
	cfg.LeagueID = id

	if ttl := getEnv("CACHE_TTL", ""); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("CACHE_TTL is not a valid duration: %w", err)
		}
		cfg.CacheTTL = d
	}

	logger.Info().
		Int("league_id", cfg.LeagueID).
		Str("base_url", cfg.FPLBaseURL).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
