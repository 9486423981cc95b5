package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nearcast/config"
	"nearcast/db"
	"nearcast/feed"
	"nearcast/server"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the nearcast feed",
		Description: `Starts the nearcast HTTP server.

Runs pending database migrations, opens the SQLite database and serves the
feed, business and video endpoints on the configured port.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML configuration file",
				EnvVars: []string{"NEARCAST_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "Path to the SQLite database file",
				EnvVars: []string{"NEARCAST_DATABASE"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				EnvVars: []string{"NEARCAST_PORT"},
			},
			&cli.StringFlag{
				Name:    "hostname",
				Aliases: []string{"n"},
				Usage:   "The hostname where the server is running",
				EnvVars: []string{"NEARCAST_HOSTNAME"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return err
			}
			if ctx.IsSet("database") {
				cfg.Database.Path = ctx.String("database")
			}
			if ctx.IsSet("port") {
				cfg.Server.Port = ctx.Int("port")
			}
			if ctx.IsSet("hostname") {
				cfg.Server.Hostname = ctx.String("hostname")
			}

			fmt.Println("Starting nearcast...")

			if err := db.Migrate(cfg.Database.Path); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			store, err := db.Connect(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := feed.NewEngine(store, feed.Options{
				DefaultLimit:   cfg.Feed.DefaultLimit,
				MaxLimit:       cfg.Feed.MaxLimit,
				OverfetchLimit: cfg.Feed.OverfetchLimit,
			})

			app := server.Server(&server.ServerConfig{
				Hostname: cfg.Server.Hostname,
				Engine:   engine,
				Store:    store,
				Sessions: store,
			})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)

			go func() {
				<-c
				fmt.Println("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
					log.Error("Error shutting down server", err)
				}
			}()

			log.WithFields(log.Fields{
				"port": cfg.Server.Port,
			}).Info("Starting server")

			return app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
		},
	}
}
