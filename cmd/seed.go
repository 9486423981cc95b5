package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"nearcast/db"
	"nearcast/models"

	"github.com/cqroot/prompt"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

type seedBusiness struct {
	name     string
	category models.Category
	lat      float64
	lng      float64
}

// Demo businesses clustered around downtown Ithaca, NY. The last one has no
// coordinates on purpose so the radius filter's exclusion path shows up in
// demo data too.
var seedBusinesses = []seedBusiness{
	{"Gorge Coffee Roasters", models.CategoryCafe, 42.4406, -76.4966},
	{"State Street Tacos", models.CategoryRestaurant, 42.4393, -76.4951},
	{"Cascadilla Climbing Gym", models.CategoryFitness, 42.4440, -76.4892},
	{"The Night Owl", models.CategoryBar, 42.4381, -76.5010},
	{"Commons Vinyl & Books", models.CategoryRetail, 42.4399, -76.4973},
	{"Sunrise Bakehouse", models.CategoryBakery, 42.4452, -76.5031},
	{"Online Only Outfitters", models.CategoryRetail, 0, 0},
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert demo businesses and videos",
		Description: `Fills the database with a handful of demo businesses, a few
videos per business and a demo session token for the write endpoints.

Intended for local development only.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "Path to the SQLite database file",
				EnvVars: []string{"NEARCAST_DATABASE"},
				Value:   "nearcast.db",
			},
			&cli.IntFlag{
				Name:  "videos-per-business",
				Usage: "Number of demo videos per business",
				Value: 4,
			},
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Skip the confirmation prompt",
			},
		},
		Action: func(ctx *cli.Context) error {
			if !ctx.Bool("yes") {
				answer, err := prompt.New().
					Ask(fmt.Sprintf("Insert demo data into %s?", ctx.String("database"))).
					Choose([]string{"yes", "no"})
				if err != nil {
					return err
				}
				if answer != "yes" {
					fmt.Println("Aborted")
					return nil
				}
			}

			if err := db.Migrate(ctx.String("database")); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			store, err := db.Connect(ctx.String("database"))
			if err != nil {
				return err
			}
			defer store.Close()

			now := time.Now().Unix()
			perBusiness := ctx.Int("videos-per-business")

			for _, seed := range seedBusinesses {
				business := models.Business{
					Id:        uuid.New().String(),
					Name:      seed.name,
					Category:  seed.category,
					CreatedAt: now,
				}
				if seed.lat != 0 || seed.lng != 0 {
					lat, lng := seed.lat, seed.lng
					business.Latitude = &lat
					business.Longitude = &lng
				}

				if err := store.CreateBusiness(ctx.Context, business); err != nil {
					return err
				}

				for i := 0; i < perBusiness; i++ {
					video := models.Video{
						Id:           uuid.New().String(),
						BusinessId:   business.Id,
						Title:        fmt.Sprintf("%s clip #%d", seed.name, i+1),
						MediaUrl:     fmt.Sprintf("https://media.nearcast.example/%s/%d.mp4", business.Id, i+1),
						ThumbnailUrl: fmt.Sprintf("https://media.nearcast.example/%s/%d.jpg", business.Id, i+1),
						// Spread uploads over the last week
						CreatedAt: now - rand.Int63n(7*24*3600),
					}
					if err := store.CreateVideo(ctx.Context, video); err != nil {
						return err
					}
				}
			}

			token := uuid.New().String()
			session := models.Session{
				Token:     token,
				UserId:    "demo-user",
				ExpiresAt: time.Now().AddDate(0, 1, 0).Unix(),
			}
			if err := store.CreateSession(ctx.Context, session); err != nil {
				return err
			}

			fmt.Printf("Seeded %d businesses\n", len(seedBusinesses))
			fmt.Printf("Demo session token: %s\n", token)
			return nil
		},
	}
}
