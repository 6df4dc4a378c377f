package config

import (
	"os"
	"strconv"
	"time"

	"github.com/jasmnyeh/staircase-fairy/internal/logger"

	"github.com/joho/godotenv"
)

// PositionMode selects how the engine obtains the user's coordinate.
type PositionMode string

const (
	// PositionModeDevice expects a device-reported fix embedded in the
	// trigger or delivered by a follow-up location message.
	PositionModeDevice PositionMode = "device"
	// PositionModeNetwork queries the external geolocation provider.
	PositionModeNetwork PositionMode = "network"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LocationsFile string
	PositionMode  PositionMode

	GeofenceRadiusM   float64
	ScanCooldown      time.Duration
	PendingTriggerTTL time.Duration

	GeolocationURL     string
	GeolocationAPIKey  string
	GeolocationTimeout time.Duration

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from the environment (.env is honored when
// present). Missing required values are fatal at startup.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	locationsFile := os.Getenv("LOCATIONS_FILE")
	if locationsFile == "" {
		locationsFile = "locations.json"
	}

	mode := PositionModeDevice
	switch os.Getenv("POSITION_MODE") {
	case "", string(PositionModeDevice):
	case string(PositionModeNetwork):
		mode = PositionModeNetwork
	default:
		logger.Fatal("POSITION_MODE must be device or network")
	}

	geoURL := os.Getenv("GEOLOCATION_URL")
	if mode == PositionModeNetwork && geoURL == "" {
		logger.Fatal("GEOLOCATION_URL is not set but POSITION_MODE=network")
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	radius := 20.0
	if v := os.Getenv("GEOFENCE_RADIUS_M"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			radius = f
		}
	}

	cooldown := 15 * time.Second
	if v := os.Getenv("SCAN_COOLDOWN_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cooldown = time.Duration(n) * time.Second
		}
	}

	pendingTTL := 5 * time.Minute
	if v := os.Getenv("PENDING_TRIGGER_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pendingTTL = time.Duration(n) * time.Second
		}
	}

	geoTimeout := 5 * time.Second
	if v := os.Getenv("GEOLOCATION_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			geoTimeout = time.Duration(n) * time.Second
		}
	}

	return &Config{
		AppPort:            port,
		DatabaseURL:        dbURL,
		JWTSecret:          jwtSecret,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,
		LocationsFile:      locationsFile,
		PositionMode:       mode,
		GeofenceRadiusM:    radius,
		ScanCooldown:       cooldown,
		PendingTriggerTTL:  pendingTTL,
		GeolocationURL:     geoURL,
		GeolocationAPIKey:  os.Getenv("GEOLOCATION_API_KEY"),
		GeolocationTimeout: geoTimeout,
		LogLevel:           os.Getenv("LOG_LEVEL"),
		LogJSON:            os.Getenv("LOG_JSON") == "true",
	}
}
