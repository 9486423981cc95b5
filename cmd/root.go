package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "nearcast",
		Usage: "A nearby feed for local-business short videos",
		Description: `Nearcast serves a map-scoped short-video feed: businesses upload
		short videos and users browse a nearby feed filtered by category
		and radius.

		Videos and business profiles live in an SQLite database and are
		served over an HTTP API with cursor-based pagination.

		Flags can generally be set via environment variables, e.g.:

		--database => NEARCAST_DATABASE=nearcast.db
		--port => NEARCAST_PORT=3000
		`,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			seedCmd(),
			tidyCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
