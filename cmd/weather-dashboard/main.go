package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/history"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/logging"
	"github.com/i474232898/weather-dashboard/internal/notify"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

const appName = "weather-dashboard"

// historyStore is satisfied by every store backend.
type historyStore interface {
	history.Store
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel, appName)
	slog.SetDefault(lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	base, _ := cfg.Language.Base()
	owm := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
		APIKey:   cfg.OpenWeatherAPIKey,
		BaseURL:  cfg.OpenWeatherBaseURL,
		Language: base.String(),
	})

	var geo weather.Geocoder
	switch cfg.Geocoder {
	case "openweather":
		geo = owm
	case "google":
		geo = providers.NewGoogleGeocoder(providers.GoogleConfig{
			APIKey:   cfg.GoogleGeocoderAPIKey,
			Language: base.String(),
			Timeout:  cfg.HTTPTimeout,
		})
	}

	service := weather.NewService(owm, geo, cfg.Language, lg.With("component", "weather"))

	st, err := openStore(ctx, cfg)
	if err != nil {
		lg.Error("failed to open history store", "backend", cfg.HistoryBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			lg.Warn("failed to close history store", "error", err)
		}
	}()

	hist := history.NewLog(st, lg.With("component", "history"))
	defer hist.Close()

	device := location.NewManualDevice(cfg.DeviceAuthorization, cfg.DeviceFix)
	tracker := location.NewTracker(device, lg.With("component", "location"))
	defer tracker.Close()

	ctrl := dashboard.New(service, hist, tracker, lg.With("component", "dashboard"))
	defer ctrl.Close()

	ctrl.OnAppear(ctx)
	go ctrl.Run(ctx)

	sched := scheduler.New(ctrl, cfg.AutoRefreshInterval, lg.With("component", "scheduler"))
	if err := sched.Start(); err != nil {
		lg.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	if cfg.MQTTBroker != "" {
		pub := notify.NewPublisher(notify.Config{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		}, lg.With("component", "mqtt"))
		if err := pub.Connect(ctx); err != nil {
			lg.Warn("mqtt unavailable, publishing disabled", "error", err)
		} else {
			defer pub.Disconnect()
			states, unsubscribe := ctrl.Subscribe()
			defer unsubscribe()
			go pub.Run(ctx, states)
		}
	}

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	httpapi.RegisterRoutes(ctx, app, ctrl, location.NewHooks(device, tracker))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			lg.Warn("fiber server stopped", "error", err)
		}
	}()
	lg.Info("listening", "port", cfg.Port, "history", cfg.HistoryBackend, "geocoder", cfg.Geocoder)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// SSE streams end when the controller closes their subscriptions.
	ctrl.Close()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Warn("error during shutdown", "error", err)
	}
	tracker.Close()
	hist.Flush()
}

func openStore(ctx context.Context, cfg *config.AppConfig) (historyStore, error) {
	switch cfg.HistoryBackend {
	case "file":
		return store.NewFileStore(cfg.HistoryFile), nil
	case "sqlite":
		return store.OpenSQLite(cfg.SQLitePath)
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return store.OpenMongo(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}
