// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/config"
	"codeberg.org/oliverandrich/votelink/internal/database"
	"codeberg.org/oliverandrich/votelink/internal/repository"
	"codeberg.org/oliverandrich/votelink/internal/seed"
	"codeberg.org/oliverandrich/votelink/internal/server"
	"codeberg.org/oliverandrich/votelink/internal/services/session"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// openDB opens the configured database without touching its schema.
func openDB(cmd *cli.Command) (*sqlx.DB, error) {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)
	return database.OpenWithoutMigrations(cfg.Database.DSN)
}

func migrateCommand() *cli.Command {
	run := func(fn func(ctx context.Context, db *sqlx.DB) error) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return fn(ctx, db)
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage database migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: run(func(ctx context.Context, db *sqlx.DB) error {
					return database.RunMigrations(ctx, db.DB)
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back the last migration",
				Action: run(func(ctx context.Context, db *sqlx.DB) error {
					return database.MigrateDown(ctx, db.DB)
				}),
			},
			{
				Name:  "reset",
				Usage: "Roll back all migrations",
				Action: run(func(ctx context.Context, db *sqlx.DB) error {
					return database.MigrateReset(ctx, db.DB)
				}),
			},
			{
				Name:  "status",
				Usage: "Print the current schema version",
				Action: run(func(ctx context.Context, db *sqlx.DB) error {
					version, err := database.MigrationVersion(ctx, db.DB)
					if err != nil {
						return err
					}
					fmt.Printf("schema version %d\n", version)
					return nil
				}),
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Load voters, elections and candidates from a TOML file",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("seed file required")
			}

			f, err := seed.ParseFile(path)
			if err != nil {
				return err
			}

			cfg := config.NewFromCLI(cmd)
			server.SetupLogger(cfg.Log.Level, cfg.Log.Format)
			db, err := database.Open(cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			res, err := seed.Load(ctx, repository.New(db), f, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d voters, %d elections, %d candidates\n", res.Voters, res.Elections, res.Candidates)
			return nil
		},
	}
}

// sessionCommand prints a session cookie for a voter. It replaces the
// account service during development.
func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:      "session",
		Usage:     "Print a session cookie for a voter (development)",
		ArgsUsage: "<voter-id>",
		Flags:     config.SessionFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			voterID := cmd.Args().First()
			if voterID == "" {
				return errors.New("voter id required")
			}

			cfg := config.NewFromCLI(cmd)
			if cfg.Session.HashKey == "" {
				return errors.New("session hash key required, the server would not accept a random one")
			}

			sessions, err := session.NewManager(&cfg.Session, false)
			if err != nil {
				return err
			}
			cookie, err := sessions.Create(voterID)
			if err != nil {
				return err
			}
			fmt.Printf("%s=%s\n", cookie.Name, cookie.Value)
			return nil
		},
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:      "audit",
		Usage:     "Print the audit trail of an election as JSON lines",
		ArgsUsage: "<election-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Value: 100,
				Usage: "Maximum number of events",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			electionID := cmd.Args().First()
			if electionID == "" {
				return errors.New("election id required")
			}

			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			events, err := repository.New(db).ListAuditEvents(ctx, electionID, int(cmd.Int("limit")))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			for _, ev := range events {
				if err := enc.Encode(ev); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
