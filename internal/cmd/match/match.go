// Package match parses match service flags and launches the service.
package match

import (
	"context"
	"flag"

	entrypoint "github.com/arenakit/arena/internal/platform/cmd"
	server "github.com/arenakit/arena/internal/services/match/app"
)

// Config holds match command configuration.
type Config struct {
	Port int `env:"ARENAKIT_MATCH_PORT" envDefault:"8080"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The match HTTP server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the match HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMatch, func(context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
