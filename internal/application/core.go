package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/psds-microservice/search-facade/internal/cache"
	"github.com/psds-microservice/search-facade/internal/config"
	es "github.com/psds-microservice/search-facade/internal/elasticsearch"
	"github.com/psds-microservice/search-facade/internal/logger"
	"github.com/psds-microservice/search-facade/internal/metrics"
	"github.com/psds-microservice/search-facade/internal/service"
)

// Core holds what every command shares: logger, engine, metrics and the façade service.
type Core struct {
	Config  *config.Config
	Logger  *logger.Logger
	Engine  es.Engine
	Metrics *metrics.Metrics
	Service *service.Service

	closers []func() error
}

// NewCore validates cfg and builds the shared dependencies. An unreachable Redis disables the
// mapping cache instead of failing startup.
func NewCore(ctx context.Context, cfg *config.Config) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	c := &Core{Config: cfg, Logger: log, Metrics: metrics.New()}
	c.closers = append(c.closers, func() error { log.Sync(); return nil })

	engine, err := c.newEngine()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Engine = metrics.NewInstrumentedEngine(engine, c.Metrics)

	c.Service = service.New(c.Engine, service.Options{
		EmployeeIndex:  cfg.Indices.Employee,
		EcommerceIndex: cfg.Indices.Ecommerce,
		Timeout:        cfg.Engine.RequestTimeout,
		DefaultSize:    cfg.Search.DefaultSize,
		MaxWindow:      cfg.Search.MaxWindow,
		Mappings:       c.newMappingCache(ctx),
		Logger:         log.Logger,
	})
	return c, nil
}

func (c *Core) newEngine() (es.Engine, error) {
	switch c.Config.Engine.Mode {
	case config.EngineEmbedded:
		c.Logger.Info("engine: embedded in-memory index")
		e := es.NewEmbedded()
		c.closers = append(c.closers, e.Close)
		return e, nil
	default:
		client, err := es.NewClient(es.ClientOptions{
			Addresses:     c.Config.Elasticsearch.URLs,
			Username:      c.Config.Elasticsearch.Username,
			Password:      c.Config.Elasticsearch.Password,
			SkipTLSVerify: c.Config.Elasticsearch.SkipTLSVerify,
			Refresh:       c.Config.Elasticsearch.Refresh,
		})
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		c.Logger.Info("engine: elasticsearch", zap.Strings("urls", c.Config.Elasticsearch.URLs))
		return client, nil
	}
}

func (c *Core) newMappingCache(ctx context.Context) cache.MappingCache {
	if !c.Config.Cache.Enabled {
		return cache.Nop{}
	}
	client, err := cache.Dial(ctx, c.Config.Redis.Addr, c.Config.Redis.Password, c.Config.Redis.DB)
	if err != nil {
		c.Logger.Warn("mapping cache disabled", zap.String("addr", c.Config.Redis.Addr), zap.Error(err))
		return cache.Nop{}
	}
	rc := cache.NewRedisCache(client, c.Config.Cache.TTL, c.Logger.Logger)
	c.closers = append(c.closers, rc.Close)
	c.Logger.Info("mapping cache: redis", zap.String("addr", c.Config.Redis.Addr), zap.Duration("ttl", c.Config.Cache.TTL))
	return rc
}

// Close releases everything NewCore opened, newest first.
func (c *Core) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
