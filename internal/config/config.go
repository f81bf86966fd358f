package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host     string
	Port     string
	LogLevel string

	// The locator's SIM number and the single account that owns it.
	LocatorNumber string
	UserID        string

	JWTSecret string
	RedisURL  string

	MQTTBrokerURL string
	MQTTClientID  string

	// PollInterval drives periodic automatic location requests; zero
	// disables them. GeofenceInterval drives safe-zone evaluation.
	PollInterval     time.Duration
	GeofenceInterval time.Duration
	SweepInterval    time.Duration

	TestMode bool
}

func LoadConfig() *Config {
	cfg := &Config{
		Host:             getEnv("HOST", "0.0.0.0"),
		Port:             getEnv("PORT", "8000"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LocatorNumber:    getEnv("LOCATOR_NUMBER", ""),
		UserID:           getEnv("USER_ID", "default"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		MQTTBrokerURL:    getEnv("MQTT_BROKER_URL", ""),
		MQTTClientID:     getEnv("MQTT_CLIENT_ID", "trackmate-server"),
		PollInterval:     getDuration("POLL_INTERVAL", 60*time.Minute),
		GeofenceInterval: getDuration("GEOFENCE_INTERVAL", 15*time.Minute),
		SweepInterval:    getDuration("SWEEP_INTERVAL", 15*time.Second),
		TestMode:         strings.ToLower(os.Getenv("TEST_MODE")) == "true",
	}

	if cfg.LocatorNumber == "" && !cfg.TestMode {
		log.Fatal("LOCATOR_NUMBER environment variable is required when not in test mode")
	}
	if cfg.JWTSecret == "" && !cfg.TestMode {
		log.Fatal("JWT_SECRET environment variable is required when not in test mode")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

// getDuration reads a duration either as a Go duration string ("15m") or as
// a plain number of seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("invalid %s value %q, using default %s", key, value, defaultValue)
	return defaultValue
}
