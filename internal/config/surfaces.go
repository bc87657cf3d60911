package config

import (
	"strings"
	"time"
)

// Surface registry backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// SurfacesConfig selects where widget surfaces are registered and mirrored.
type SurfacesConfig struct {
	Backend         string
	RedisAddr       string
	RedisPassword   string
	DatabaseURL     string
	TelegramToken   string
	TelegramChatIDs string
}

// DesktopConfig controls the desktop widget host.
type DesktopConfig struct {
	Enabled  bool
	Command  string
	Interval time.Duration
}

func loadSurfaces() SurfacesConfig {
	backend := strings.ToLower(strings.TrimSpace(envOrDefault(envSurfaceStore, defaultSurfaceStore)))
	switch backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		backend = defaultSurfaceStore
	}
	return SurfacesConfig{
		Backend:         backend,
		RedisAddr:       envOrDefault(envRedisAddr, "localhost:6379"),
		RedisPassword:   envOrDefault(envRedisPassword, ""),
		DatabaseURL:     envOrDefault(envDatabaseURL, ""),
		TelegramToken:   envOrDefault(envTelegramToken, ""),
		TelegramChatIDs: envOrDefault(envTelegramChats, ""),
	}
}

func loadDesktop(baseURL string) DesktopConfig {
	return DesktopConfig{
		Enabled:  boolEnvOrDefault(envDesktopOn, true),
		Command:  envOrDefault(envDesktopCmd, "curl -s "+strings.TrimRight(baseURL, "/")+"/api/scoreboard"),
		Interval: durationEnvOrDefault(envDesktopRate, defaultDesktopRate),
	}
}
