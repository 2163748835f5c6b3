package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/wlx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrMissingCredentials):
			logger.Error("add the service credentials to your config file", "error", err)
			os.Exit(1)
		case errors.Is(err, shared.ErrNotAuthenticated):
			logger.Error("sign in first with `wlx auth login`", "error", err)
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

// newApp builds the root command around r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "wlx",
		Usage:   "Browse, curate and enrich a movie and show watchlist",
		Version: "0.3.0",
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("WLX_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Bootstrap,
		After:    r.Close,
		Commands: r.register(),
	}
}
