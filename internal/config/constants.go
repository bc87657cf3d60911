package config

import "time"

const (
	envPort          = "PORT"
	envAPIBaseURL    = "API_BASE_URL"
	envFetchTimeout  = "FETCH_TIMEOUT"
	envRetryDelay    = "RETRY_DELAY"
	envLogLevel      = "LOG_LEVEL"
	envLogFormat     = "LOG_FORMAT"
	envMetricsPort   = "METRICS_PORT"
	envMetricsOn     = "METRICS_ENABLED"
	envOtelEndpoint  = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService   = "OTEL_SERVICE_NAME"
	envOtelInsecure  = "OTEL_EXPORTER_OTLP_INSECURE"
	envSurfaceStore  = "SURFACE_BACKEND"
	envRedisAddr     = "REDIS_ADDR"
	envRedisPassword = "REDIS_PASSWORD"
	envDatabaseURL   = "DATABASE_URL"
	envTelegramToken = "TELEGRAM_BOT_TOKEN"
	envTelegramChats = "TELEGRAM_CHAT_IDS"
	envDesktopOn     = "DESKTOP_ENABLED"
	envDesktopCmd    = "DESKTOP_COMMAND"
	envDesktopRate   = "DESKTOP_INTERVAL"
	envWidgetsFile   = "WIDGETS_FILE"
	envCORSOrigins   = "CORS_ALLOWED_ORIGINS"

	defaultPort       = "4000"
	defaultAPIBaseURL = "https://nbastables.com"
	// Upper end of the 10-15s window the widgets tolerate.
	defaultFetchTimeout = 15 * Duration(time.Second)
	defaultRetryDelay   = 30 * Duration(time.Second)
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultMetricsPort  = "9090"
	defaultServiceName  = "nba-stables-widgets"
	defaultSurfaceStore = BackendMemory
	defaultDesktopRate  = 60 * Duration(time.Second)
)
