// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"
	"slices"

	"codeberg.org/oliverandrich/votelink/internal/config"
	"codeberg.org/oliverandrich/votelink/internal/server"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:   "votelink",
		Usage:  "Single-use voting links and ballot submission",
		// Shared flags are inherited by every subcommand.
		Flags:          config.Flags(),
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server",
				Flags:  slices.Concat(config.ServeFlags(), config.SessionFlags()),
				Action: server.Run,
			},
			migrateCommand(),
			seedCommand(),
			sessionCommand(),
			auditCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
