package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

type AppConfig struct {
	OpenWeatherAPIKey  string `validate:"required"`
	OpenWeatherBaseURL string `validate:"required,url"`
	Language           language.Tag

	// HTTPTimeout bounds every provider call.
	HTTPTimeout time.Duration `validate:"gt=0"`

	Geocoder             string `validate:"oneof=openweather google none"`
	GoogleGeocoderAPIKey string `validate:"required_if=Geocoder google"`

	HistoryBackend string `validate:"oneof=file sqlite mongo memory"`
	HistoryFile    string `validate:"required_if=HistoryBackend file"`
	SQLitePath     string `validate:"required_if=HistoryBackend sqlite"`
	MongoURI       string `validate:"required_if=HistoryBackend mongo"`
	MongoDatabase  string `validate:"required_if=HistoryBackend mongo"`

	// AutoRefreshInterval of 0 disables periodic refresh.
	AutoRefreshInterval time.Duration `validate:"gte=0"`

	DeviceAuthorization location.AuthorizationState `validate:"oneof=notDetermined allowed denied"`
	DeviceFix           *weather.Coordinate

	// MQTT publishing is disabled when MQTTBroker is empty.
	MQTTBroker   string
	MQTTPort     int `validate:"gt=0,lte=65535"`
	MQTTTopic    string
	MQTTClientID string

	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level
	Port     string `validate:"required"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org")

	lang, err := language.Parse(getenvDefault("WEATHER_LANG", "en"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_LANG: %w", err)
	}
	cfg.Language = lang

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "20s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Geocoder = getenvDefault("GEOCODER", "openweather")
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	cfg.HistoryBackend = getenvDefault("HISTORY_BACKEND", "file")
	cfg.HistoryFile = getenvDefault("HISTORY_FILE", "weather-history.json")
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "weather-history.db")
	cfg.MongoURI = getenvDefault("MONGO_URI", "mongodb://localhost:27017")
	cfg.MongoDatabase = getenvDefault("MONGO_DB", "weather")

	interval, err := time.ParseDuration(getenvDefault("AUTO_REFRESH_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTO_REFRESH_INTERVAL: %w", err)
	}
	cfg.AutoRefreshInterval = interval

	cfg.DeviceAuthorization = location.AuthorizationState(getenvDefault("DEVICE_AUTHORIZATION", string(location.NotDetermined)))
	fix, err := loadDeviceFix()
	if err != nil {
		return nil, err
	}
	cfg.DeviceFix = fix

	cfg.MQTTBroker = os.Getenv("MQTT_BROKER")
	cfg.MQTTPort = getenvInt("MQTT_PORT", 1883)
	cfg.MQTTTopic = getenvDefault("MQTT_TOPIC", "weather/dashboard")
	cfg.MQTTClientID = getenvDefault("MQTT_CLIENT_ID", "weather-dashboard")

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadDeviceFix() (*weather.Coordinate, error) {
	latStr := strings.TrimSpace(os.Getenv("DEVICE_LAT"))
	lonStr := strings.TrimSpace(os.Getenv("DEVICE_LON"))
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("DEVICE_LAT and DEVICE_LON must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_LAT: %w", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_LON: %w", err)
	}

	c := &weather.Coordinate{Latitude: lat, Longitude: lon}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("invalid device coordinate: %w", err)
	}
	return c, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
