package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the widget service.
type Config struct {
	Port         string
	APIBaseURL   string
	FetchTimeout Duration
	RetryDelay   Duration
	WidgetsFile  string
	// AllowedOrigins feeds both CORS and the websocket origin check.
	AllowedOrigins []string
	Logging        LoggingConfig
	Metrics        MetricsConfig
	Surfaces       SurfacesConfig
	Desktop        DesktopConfig
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	base := envOrDefault(envAPIBaseURL, defaultAPIBaseURL)
	return Config{
		Port:           envOrDefault(envPort, defaultPort),
		APIBaseURL:     base,
		FetchTimeout:   durationEnvOrDefault(envFetchTimeout, defaultFetchTimeout),
		RetryDelay:     durationEnvOrDefault(envRetryDelay, defaultRetryDelay),
		WidgetsFile:    envOrDefault(envWidgetsFile, ""),
		AllowedOrigins: listEnv(envCORSOrigins),
		Logging: LoggingConfig{
			Level:  envOrDefault(envLogLevel, defaultLogLevel),
			Format: envOrDefault(envLogFormat, defaultLogFormat),
		},
		Metrics:  loadMetrics(),
		Surfaces: loadSurfaces(),
		Desktop:  loadDesktop(base),
	}
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are not an error.
func LoadEnvFiles(logger *slog.Logger, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && logger != nil {
			logger.Debug("env file not loaded", "file", f, "error", err)
		}
	}
}
