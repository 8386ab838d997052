package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/yourorg/signal-service/internal/market"
)

func main() {
	cmd := &cli.Command{
		Name:  "signal-service",
		Usage: "trading signals and login verification backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config/config.yaml",
				Usage:   "path to the YAML config file",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:  "signal",
				Usage: "compute one trading signal and print it as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "pair",
						Value: "BTCUSDT",
						Usage: "trading pair, one of " + strings.Join(market.Symbols(), ", "),
					},
				},
				Action: printSignal,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// configPath reads the global --config flag from any subcommand
func configPath(cmd *cli.Command) string {
	return cmd.Root().String("config")
}
