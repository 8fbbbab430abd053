package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/radioacc/marta-sign/internal/config"
	"github.com/radioacc/marta-sign/internal/db"
	"github.com/radioacc/marta-sign/internal/schedule"
	"github.com/radioacc/marta-sign/internal/static"
)

func importGTFSCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import-gtfs",
		Usage: "load a MARTA GTFS feed into the SQLite timetable",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "zip",
				Usage: "import this GTFS zip instead of downloading",
			},
			&cli.StringFlag{
				Name:  "url",
				Value: cfg.GTFSURL,
				Usage: "GTFS feed to download",
			},
			&cli.StringFlag{
				Name:  "db",
				Value: cfg.DatabasePath,
				Usage: "SQLite timetable path",
			},
			&cli.IntFlag{
				Name:  "max-age-days",
				Value: cfg.StaticRefreshDays,
				Usage: "skip the download while the stored timetable is younger than this",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "download even if the timetable is fresh",
			},
		},
		Action: func(c *cli.Context) error {
			dbPath := c.String("db")
			if schedule.IsPostgresURL(dbPath) {
				return errors.New("import-gtfs writes SQLite only; load PostgreSQL from the same schema")
			}

			if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
				return fmt.Errorf("failed to create database dir: %w", err)
			}

			database, err := db.Connect(dbPath)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.EnsureSchema(c.Context); err != nil {
				return err
			}

			if zipPath := c.String("zip"); zipPath != "" {
				_, err := static.ImportZip(c.Context, database, zipPath)
				return err
			}

			maxAge := time.Duration(c.Int("max-age-days")) * 24 * time.Hour
			if c.Bool("force") {
				maxAge = 0
			}

			imported, err := static.RefreshIfStale(c.Context, database, c.String("url"), cfg.CacheDir, maxAge)
			if err != nil {
				return err
			}
			if !imported {
				log.Info().Str("db", dbPath).Msg("Timetable already current")
			}
			return nil
		},
	}
}
