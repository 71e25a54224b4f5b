// Package config provides centralized default values for the resonance engine
package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err == nil {
			log.Println("Loading configuration overrides from .env file...")
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Event Window Configuration
	EventWindowMaxEvents int
	EventWindowMaxAge    time.Duration

	// Inference Configuration
	RecentTargetCount int
	RecentActionCount int

	// History Bounds
	ProfileHistoryLimit int
	SessionHistoryLimit int
	OutcomeBufferLimit  int

	// User State Lifecycle
	UserStateTTL         time.Duration
	UserCleanupInterval  time.Duration
	MaxTrackedUsers      int
	SessionIdleThreshold time.Duration

	// Template Library
	LibraryPath string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Event Window Configuration
	EventWindowMaxEvents = getEnvInt("EVENT_WINDOW_MAX_EVENTS", 50)
	EventWindowMaxAge = time.Duration(getEnvInt("EVENT_WINDOW_MAX_AGE_MINUTES", 30)) * time.Minute

	// Inference Configuration
	RecentTargetCount = getEnvInt("RECENT_TARGET_COUNT", 3)
	RecentActionCount = getEnvInt("RECENT_ACTION_COUNT", 3)

	// History Bounds
	ProfileHistoryLimit = getEnvInt("PROFILE_HISTORY_LIMIT", 200)
	SessionHistoryLimit = getEnvInt("SESSION_HISTORY_LIMIT", 100)
	OutcomeBufferLimit = getEnvInt("OUTCOME_BUFFER_LIMIT", 1000)

	// User State Lifecycle
	UserStateTTL = time.Duration(getEnvInt("USER_STATE_TTL_HOURS", 168)) * time.Hour
	UserCleanupInterval = time.Duration(getEnvInt("USER_CLEANUP_INTERVAL_MINUTES", 30)) * time.Minute
	MaxTrackedUsers = getEnvInt("MAX_TRACKED_USERS", 10000)
	SessionIdleThreshold = time.Duration(getEnvInt("SESSION_IDLE_THRESHOLD_MINUTES", 30)) * time.Minute

	// Template Library
	LibraryPath = getEnvString("LIBRARY_PATH", "")
}
