package main

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/radioacc/marta-sign/internal/config"
)

func arrivalsCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "arrivals",
		Usage: "print the arrivals board for a station once",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "station",
				Value: cfg.DefaultStation,
				Usage: "station name, or part of it",
			},
		},
		Action: func(c *cli.Context) error {
			b, err := newBoard(c.Context, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(b.service.Arrivals(c.Context, c.String("station")))
		},
	}
}
