package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"nearcast/db"
	"nearcast/feed"
	"nearcast/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Store is the persistence surface the HTTP layer needs beyond the feed
// engine's own candidate read.
type Store interface {
	GetBusiness(ctx context.Context, id string) (*models.Business, error)
	CreateBusiness(ctx context.Context, business models.Business) error
	UpdateBusiness(ctx context.Context, business models.Business) error
	CreateVideo(ctx context.Context, video models.Video) error
	DeleteVideo(ctx context.Context, id string) (bool, error)
	ListBusinessVideos(ctx context.Context, businessId string, limit int) ([]models.Video, error)
	GetVideoCountPerTime(ctx context.Context, category models.Category, timeAgg string) ([]models.VideosAggregatedByTime, error)
}

// Sessions resolves bearer tokens for the write endpoints.
type Sessions interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
}

var _ Store = (*db.DB)(nil)
var _ Sessions = (*db.DB)(nil)

type ServerConfig struct {

	// The hostname to use for the server
	Hostname string

	// The feed query engine serving GET /feed
	Engine *feed.Engine

	// The store backing the CRUD endpoints
	Store Store

	// Session lookup for authenticated writes
	Sessions Sessions
}

// Returns a fiber.App instance to be used as the HTTP server for the
// nearcast feed and its surrounding CRUD surface
func Server(config *ServerConfig) *fiber.App {

	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"status":  c.Response().StatusCode(),
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Authorization, Content-Type, Cache-Control",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/feed", func(c *fiber.Ctx) error {
		req := feed.Request{
			Category: c.Query("category", ""),
			Cursor:   c.Query("cursor", ""),
		}

		var err error
		if req.Latitude, err = optionalFloat(c, "lat"); err != nil {
			return badRequest(c, "lat must be a number")
		}
		if req.Longitude, err = optionalFloat(c, "lng"); err != nil {
			return badRequest(c, "lng must be a number")
		}
		if req.RadiusMiles, err = optionalFloat(c, "radiusMi"); err != nil {
			return badRequest(c, "radiusMi must be a number")
		}

		if raw := c.Query("limit", ""); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				return badRequest(c, "limit must be an integer")
			}
			req.Limit = limit
		}

		page, err := config.Engine.FetchPage(c.Context(), req)
		if err != nil {
			if feed.IsValidationError(err) {
				return badRequest(c, err.Error())
			}
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error fetching feed page")
			return internalError(c)
		}

		return c.JSON(page)
	})

	app.Get("/categories", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"categories": models.Categories})
	})

	app.Get("/stats/videos-per-time", func(c *fiber.Ctx) error {
		interval := c.Query("interval", "")
		if interval == "" {
			interval = "hour"
		}

		// check if interval is hour, day or week
		if interval != "hour" && interval != "day" && interval != "week" {
			return badRequest(c, "invalid interval")
		}

		var category models.Category
		if raw := c.Query("category", ""); raw != "" {
			parsed, ok := models.ParseCategory(raw)
			if !ok {
				return badRequest(c, "unknown category "+strconv.Quote(raw))
			}
			category = parsed
		}

		counts, err := config.Store.GetVideoCountPerTime(c.Context(), category, interval)
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error getting videos per time")
			return internalError(c)
		}

		log.WithFields(log.Fields{
			"category": category,
			"count":    len(counts),
		}).Info("Get videos per time")

		return c.Status(http.StatusOK).JSON(counts)
	})

	app.Get("/businesses/:id", func(c *fiber.Ctx) error {
		business, err := config.Store.GetBusiness(c.Context(), c.Params("id"))
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error getting business")
			return internalError(c)
		}
		if business == nil {
			return notFound(c, "business not found")
		}
		return c.JSON(business)
	})

	app.Get("/businesses/:id/videos", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "50"))
		if err != nil || limit < 1 || limit > 100 {
			limit = 50
		}

		videos, err := config.Store.ListBusinessVideos(c.Context(), c.Params("id"), limit)
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error listing business videos")
			return internalError(c)
		}
		if videos == nil {
			videos = []models.Video{}
		}
		return c.JSON(fiber.Map{"videos": videos})
	})

	auth := requireSession(config.Sessions)

	app.Post("/businesses", auth, func(c *fiber.Ctx) error {
		var body businessBody
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}

		business, errMsg := body.toBusiness()
		if errMsg != "" {
			return badRequest(c, errMsg)
		}

		business.Id = uuid.New().String()
		business.CreatedAt = time.Now().Unix()

		if err := config.Store.CreateBusiness(c.Context(), *business); err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error creating business")
			return internalError(c)
		}

		return c.Status(http.StatusCreated).JSON(business)
	})

	app.Patch("/businesses/:id", auth, func(c *fiber.Ctx) error {
		business, err := config.Store.GetBusiness(c.Context(), c.Params("id"))
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error getting business")
			return internalError(c)
		}
		if business == nil {
			return notFound(c, "business not found")
		}

		var body businessPatch
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}

		if errMsg := body.apply(business); errMsg != "" {
			return badRequest(c, errMsg)
		}

		if err := config.Store.UpdateBusiness(c.Context(), *business); err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error updating business")
			return internalError(c)
		}

		return c.JSON(business)
	})

	app.Post("/businesses/:id/videos", auth, func(c *fiber.Ctx) error {
		business, err := config.Store.GetBusiness(c.Context(), c.Params("id"))
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error getting business")
			return internalError(c)
		}
		if business == nil {
			return notFound(c, "business not found")
		}

		var body videoBody
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
		if body.Title == "" || body.MediaUrl == "" {
			return badRequest(c, "title and mediaUrl are required")
		}

		video := models.Video{
			Id:           uuid.New().String(),
			BusinessId:   business.Id,
			Title:        body.Title,
			MediaUrl:     body.MediaUrl,
			ThumbnailUrl: body.ThumbnailUrl,
			CreatedAt:    time.Now().Unix(),
		}

		if err := config.Store.CreateVideo(c.Context(), video); err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error creating video")
			return internalError(c)
		}

		return c.Status(http.StatusCreated).JSON(video)
	})

	app.Delete("/videos/:id", auth, func(c *fiber.Ctx) error {
		deleted, err := config.Store.DeleteVideo(c.Context(), c.Params("id"))
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error deleting video")
			return internalError(c)
		}
		if !deleted {
			return notFound(c, "video not found")
		}
		return c.SendStatus(http.StatusNoContent)
	})

	return app
}

type businessBody struct {
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (b *businessBody) toBusiness() (*models.Business, string) {
	if b.Name == "" {
		return nil, "name is required"
	}
	category, ok := models.ParseCategory(b.Category)
	if !ok {
		return nil, "unknown category " + strconv.Quote(b.Category)
	}
	if (b.Latitude == nil) != (b.Longitude == nil) {
		return nil, "latitude and longitude must be supplied together"
	}
	return &models.Business{
		Name:      b.Name,
		Category:  category,
		Latitude:  b.Latitude,
		Longitude: b.Longitude,
	}, ""
}

type businessPatch struct {
	Name      *string  `json:"name"`
	Category  *string  `json:"category"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (p *businessPatch) apply(business *models.Business) string {
	if p.Name != nil {
		if *p.Name == "" {
			return "name must not be empty"
		}
		business.Name = *p.Name
	}
	if p.Category != nil {
		category, ok := models.ParseCategory(*p.Category)
		if !ok {
			return "unknown category " + strconv.Quote(*p.Category)
		}
		business.Category = category
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return "latitude and longitude must be supplied together"
	}
	if p.Latitude != nil {
		business.Latitude = p.Latitude
		business.Longitude = p.Longitude
	}
	return ""
}

type videoBody struct {
	Title        string `json:"title"`
	MediaUrl     string `json:"mediaUrl"`
	ThumbnailUrl string `json:"thumbnailUrl"`
}

func optionalFloat(c *fiber.Ctx, name string) (*float64, error) {
	raw := c.Query(name, "")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
