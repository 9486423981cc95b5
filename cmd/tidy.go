package cmd

import (
	"fmt"

	"nearcast/db"

	"github.com/urfave/cli/v2"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Remove old videos from the database",
		Description: `Deletes videos older than the retention window.

Use --dry-run to see how many videos would be removed without deleting
anything.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "Path to the SQLite database file",
				EnvVars: []string{"NEARCAST_DATABASE"},
				Value:   "nearcast.db",
			},
			&cli.IntFlag{
				Name:    "retention-days",
				Usage:   "Videos older than this many days are removed",
				EnvVars: []string{"NEARCAST_RETENTION_DAYS"},
				Value:   90,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would be deleted without deleting",
			},
		},
		Action: func(ctx *cli.Context) error {
			store, err := db.Connect(ctx.String("database"))
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Tidy(ctx.Context, ctx.Int("retention-days"), ctx.Bool("dry-run"))
			if err != nil {
				return err
			}

			if ctx.Bool("dry-run") {
				fmt.Printf("Would delete %d videos\n", n)
			} else {
				fmt.Printf("Deleted %d videos\n", n)
			}
			return nil
		},
	}
}
