package server

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pfrederiksen/ski-status/internal/aggregator"
	"github.com/pfrederiksen/ski-status/internal/filter"
	"github.com/pfrederiksen/ski-status/internal/resort"
)

var validate = validator.New()

// RegisterRoutes wires the API handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, results Results, loc *time.Location) {
	v1 := app.Group("/api/v1")

	v1.Get("/resorts", func(c *fiber.Ctx) error {
		var q resortsQuery
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		f, err := q.filter()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		all, updated := current(c, results)
		shown := f.Apply(all)

		return c.JSON(fiber.Map{
			"updated_at": updated.In(loc),
			"filter":     f.String(),
			"summary":    aggregator.Summarize(all),
			"resorts":    shown,
		})
	})

	v1.Get("/resorts/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		all, _ := current(c, results)
		for _, r := range all {
			if strings.EqualFold(r.ResortID, id) {
				return c.JSON(r)
			}
		}
		return fiber.NewError(fiber.StatusNotFound, "unknown resort: "+id)
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		all := results.Refresh(c.UserContext())
		return c.JSON(fiber.Map{
			"summary": aggregator.Summarize(all),
		})
	})
}

// current returns the latest results, running a pass first when none has
// completed yet.
func current(c *fiber.Ctx, results Results) ([]resort.ExtractionResult, time.Time) {
	all, updated := results.Latest()
	if all == nil {
		all = results.Refresh(c.UserContext())
		_, updated = results.Latest()
	}
	return all, updated
}

// resortsQuery holds query parameters for the resort list.
type resortsQuery struct {
	OpenOnly bool   `query:"open_only"`
	MinSnow  int    `query:"min_snow" validate:"gte=0,lte=600"`
	Status   string `query:"status"`
	ID       string `query:"id"`
}

func (q resortsQuery) filter() (*filter.Filter, error) {
	f := filter.NewFilter()
	f.OpenOnly = q.OpenOnly
	f.MinSnowDepth = q.MinSnow
	f.IDs = filter.ParseList(q.ID)

	statuses, err := filter.ParseStatuses(q.Status)
	if err != nil {
		return nil, err
	}
	f.Statuses = statuses
	return f, nil
}
