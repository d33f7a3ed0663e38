package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// heartbeatInterval paces SSE comments so a gone client surfaces as a write
// error even when the state is idle.
const heartbeatInterval = 15 * time.Second

// Dashboard is implemented by dashboard.Controller.
type Dashboard interface {
	State() dashboard.State
	SetSearchQuery(q string)
	Search() bool
	UseCurrentLocation()
	Refresh() bool
	Subscribe() (<-chan dashboard.State, func())
}

// DeviceHooks is implemented by location.Hooks.
type DeviceHooks interface {
	SetAuthorization(ctx context.Context, state location.AuthorizationState) location.AuthorizationState
	SetLocation(ctx context.Context, c weather.Coordinate)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. ctx outlives
// individual requests and is handed to background location requests.
func RegisterRoutes(ctx context.Context, app *fiber.App, d Dashboard, device DeviceHooks) {
	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(d.State().View())
	})

	v1.Put("/dashboard/query", func(c *fiber.Ctx) error {
		var req queryRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if req.Query == nil {
			return fiber.NewError(fiber.StatusBadRequest, "query is required")
		}
		d.SetSearchQuery(*req.Query)
		return c.JSON(d.State().View())
	})

	v1.Post("/dashboard/search", func(c *fiber.Ctx) error {
		if len(c.Body()) > 0 {
			var req queryRequest
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
			if req.Query != nil {
				d.SetSearchQuery(*req.Query)
			}
		}
		if !d.Search() {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "search query is empty")
		}
		return c.Status(fiber.StatusAccepted).JSON(d.State().View())
	})

	v1.Post("/dashboard/location", func(c *fiber.Ctx) error {
		d.UseCurrentLocation()
		return c.Status(fiber.StatusAccepted).JSON(d.State().View())
	})

	v1.Post("/dashboard/refresh", func(c *fiber.Ctx) error {
		if !d.Refresh() {
			return fiber.NewError(fiber.StatusConflict, "no weather loaded yet")
		}
		return c.Status(fiber.StatusAccepted).JSON(d.State().View())
	})

	v1.Get("/dashboard/events", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		states, unsubscribe := d.Subscribe()
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer unsubscribe()
			ticker := time.NewTicker(heartbeatInterval)
			defer ticker.Stop()
			streamStates(w, states, ticker.C)
		}))
		return nil
	})

	v1.Put("/device/authorization", func(c *fiber.Ctx) error {
		var req authorizationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		state := device.SetAuthorization(ctx, location.AuthorizationState(req.State))
		return c.JSON(fiber.Map{"authorizationState": state})
	})

	v1.Put("/device/location", func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		device.SetLocation(ctx, weather.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude})
		return c.SendStatus(fiber.StatusAccepted)
	})
}

type queryRequest struct {
	Query *string `json:"query"`
}

type authorizationRequest struct {
	State string `json:"state" validate:"required,oneof=notDetermined allowed denied"`
}

// Pointers tell a missing coordinate apart from 0.
type locationRequest struct {
	Latitude  *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

// streamStates writes every state as an event until states closes or a write
// fails, which is how a disconnected client shows up.
func streamStates(w *bufio.Writer, states <-chan dashboard.State, heartbeat <-chan time.Time) {
	for {
		select {
		case s, ok := <-states:
			if !ok {
				return
			}
			if err := writeEvent(w, s.View()); err != nil {
				return
			}
		case <-heartbeat:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w *bufio.Writer, v dashboard.View) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
