package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/preston-bernstein/nba-stables-widgets/internal/config"
	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/http/handlers"
	"github.com/preston-bernstein/nba-stables-widgets/internal/logging"
	"github.com/preston-bernstein/nba-stables-widgets/internal/offline"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface/pgstore"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface/redisstore"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface/telegram"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface/wshub"
)

const offlineCacheTTL = 24 * time.Hour

var (
	redisConnect    = redisstore.Connect
	postgresOpen    = pgstore.Open
	telegramConnect = telegram.Connect
)

type namedCloser struct {
	name  string
	close func() error
}

// backends is every surface registry plus the pieces that share their
// connections.
type backends struct {
	primary    surface.Registry
	hub        *wshub.Hub
	registries []surface.Registry
	cache      offline.Cache
	checks     map[string]handlers.Check
	closers    []namedCloser
}

func buildBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{checks: make(map[string]handlers.Check)}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Surfaces.Backend {
	case config.BackendRedis:
		store, err := redisConnect(connectCtx, cfg.Surfaces.RedisAddr, cfg.Surfaces.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("surface backend: %w", err)
		}
		b.primary = store
		b.cache = offline.NewRedisCache(store.Client(), offlineCacheTTL)
		b.checks["redis"] = store.Ping
		b.closers = append(b.closers, namedCloser{name: "redis", close: store.Close})
	case config.BackendPostgres:
		store, err := postgresOpen(connectCtx, cfg.Surfaces.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("surface backend: %w", err)
		}
		if err := store.EnsureSchema(connectCtx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("surface backend: %w", err)
		}
		b.primary = store
		b.checks["postgres"] = store.Ping
		b.closers = append(b.closers, namedCloser{name: "postgres", close: store.Close})
	default:
		b.primary = surface.NewMemory()
	}
	if b.cache == nil {
		b.cache = offline.NewMemoryCache()
	}

	b.hub = wshub.New(logger, originChecker(cfg.AllowedOrigins))
	b.registries = []surface.Registry{b.primary, b.hub}

	if cfg.Surfaces.TelegramToken != "" {
		if tg := connectTelegram(ctx, cfg.Surfaces, logger); tg != nil {
			b.registries = append(b.registries, tg)
		}
	}

	logging.Info(logger, "surface backends ready",
		logging.FieldBackend, b.primary.Name(),
		logging.FieldCount, len(b.registries),
	)
	return b, nil
}

// connectTelegram authenticates the bot and subscribes every configured chat
// to every widget kind. Failures are logged and the bot is skipped.
func connectTelegram(ctx context.Context, cfg config.SurfacesConfig, logger *slog.Logger) surface.Registry {
	ids, err := telegram.ParseChatIDs(cfg.TelegramChatIDs)
	if err != nil {
		logging.Error(logger, "telegram chat ids invalid, skipping bot", err)
		return nil
	}
	tg, err := telegramConnect(cfg.TelegramToken)
	if err != nil {
		logging.Error(logger, "telegram connect failed, skipping bot", err)
		return nil
	}
	for _, kind := range domain.Kinds() {
		for _, id := range ids {
			if err := tg.Register(ctx, kind, id); err != nil {
				logging.Warn(logger, "telegram chat not registered",
					logging.FieldWidget, string(kind),
					logging.FieldSurfaceID, string(id),
					"error", err,
				)
			}
		}
	}
	return tg
}

// originChecker allows any origin when none are configured, otherwise only
// exact matches and same-host requests.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

func (b *backends) close(logger *slog.Logger) {
	for _, c := range b.closers {
		if err := c.close(); err != nil {
			logging.Warn(logger, "backend close failed", logging.FieldBackend, c.name, "error", err)
		}
	}
}
