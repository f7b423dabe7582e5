package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campaign-session/internal/config"
	"campaign-session/internal/controller"
	"campaign-session/internal/identity"
	"campaign-session/internal/pkg/logger"
	"campaign-session/internal/pkg/metrics"
	"campaign-session/internal/repository/contract"
	"campaign-session/internal/repository/implementation"
	"campaign-session/internal/repository/memory"
	"campaign-session/internal/service"
	"campaign-session/internal/websocket"
	"campaign-session/pkg/events"
	pktNats "campaign-session/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController controller.ISessionController
	LogController     controller.ILogController

	SessionService service.ISessionService

	// WebSockets & Metrics
	WebSocketHub *websocket.Hub
	Metrics      *metrics.Metrics

	Logger logger.ILogger

	closers []func() error
}

// NewContainer wires the session manager. db is only used when the store
// driver is postgres and may be nil otherwise.
func NewContainer(db *gorm.DB, cfg *config.Config, opts ...identity.GoogleOption) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	m := metrics.New()

	c := &Container{Logger: sysLogger, Metrics: m}

	// 2. Stores
	var (
		profiles  contract.ProfileRepository
		campaigns contract.CampaignRepository
	)
	switch cfg.App.StoreDriver {
	case "postgres":
		if db == nil {
			return nil, errors.New("store driver postgres requires a database connection")
		}
		profiles = implementation.NewProfileRepository(db)
		campaigns = implementation.NewCampaignRepository(db)
	default:
		sysLogger.Warn("Bootstrap", "Using in-memory stores, profiles will not survive a restart", nil)
		profiles = memory.NewProfileRepository()
		campaigns = memory.NewCampaignRepository()
	}

	tokens, err := c.tokenStore(cfg)
	if err != nil {
		return nil, err
	}

	// 3. Identity
	bus := identity.NewChangeBus(sysLogger)
	c.closers = append(c.closers, bus.Close)
	identityClient := identity.NewGoogleClient(cfg.OAuth, bus, sysLogger, opts...)

	// 4. Event publisher. A nil *Publisher must not leak into the interface.
	var publisher events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			publisher = natsPub
			c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
		}
	}

	// 5. Services
	campaignService := service.NewCampaignService(campaigns, memory.NewCampaignCache(), sysLogger)
	sessionService := service.NewSessionService(identityClient, profiles, campaignService, tokens, publisher, m, sysLogger)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(wsLogger)
	stopWatch := sessionService.Watch(wsHub.PublishState)
	c.closers = append(c.closers, func() error { stopWatch(); return nil })

	// 6. Controllers
	c.SessionService = sessionService
	c.WebSocketHub = wsHub
	c.SessionController = controller.NewSessionController(sessionService, sysLogger)
	c.LogController = controller.NewLogController(sysLogger)
	c.closers = append(c.closers, func() error { c.SessionController.Close(); return nil })

	return c, nil
}

func (c *Container) tokenStore(cfg *config.Config) (contract.TokenStore, error) {
	if cfg.App.TokenStore != "redis" {
		return memory.NewTokenStore(cfg.App.TokenKey), nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		c.Logger.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Save failures only warn, so sign-in still works without Redis.
		c.Logger.Warn("Bootstrap", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}
	c.closers = append(c.closers, rdb.Close)
	return implementation.NewRedisTokenStore(rdb, cfg.App.TokenKey), nil
}

// Close releases everything NewContainer opened, newest first.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	_ = c.Logger.Sync()
	if len(errs) > 0 {
		return fmt.Errorf("failed to close container: %w", errors.Join(errs...))
	}
	return nil
}
