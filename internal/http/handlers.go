package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cleanflow/water-recovery-system/internal/domain"
	"github.com/cleanflow/water-recovery-system/internal/inference"
	"github.com/cleanflow/water-recovery-system/internal/recovery"
	"github.com/cleanflow/water-recovery-system/internal/service"
)

func Register(app *fiber.App, svcs *service.Services, simCfg recovery.Config) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	api.Post("predict", func(c *fiber.Ctx) error {
		var r domain.SensorReading
		if err := c.BodyParser(&r); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}
		res, err := svcs.Readings.Classify(c.Context(), r)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	})

	api.Get("stats", func(c *fiber.Ctx) error {
		w, err := parseWindow(c)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		metrics, err := svcs.Metrics.Compute(c.Context(), w)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(metrics)
	})

	api.Get("history", func(c *fiber.Ctx) error {
		records, err := svcs.Metrics.History(c.Context(), c.QueryInt("limit", 0))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(records)
	})

	api.Get("simulation", func(c *fiber.Ctx) error {
		return c.JSON(recovery.Simulate(simCfg))
	})
}

// parseWindow reads the optional limit/from/to query parameters. Timestamps
// are RFC3339.
func parseWindow(c *fiber.Ctx) (domain.Window, error) {
	w := domain.Window{Limit: c.QueryInt("limit", 0)}
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return domain.Window{}, errors.New("invalid from timestamp, want RFC3339")
		}
		w.From = t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return domain.Window{}, errors.New("invalid to timestamp, want RFC3339")
		}
		w.To = t
	}
	return w, nil
}

func fail(c *fiber.Ctx, err error) error {
	status := 500
	switch {
	case errors.Is(err, domain.ErrInvalidReading):
		status = 400
	case errors.Is(err, inference.ErrModelNotLoaded),
		errors.Is(err, domain.ErrStoreUnavailable):
		status = 503
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
