package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"healthkit-bridge/internal/bridge"
	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator/simulator"
	"healthkit-bridge/internal/common/aws"
	"healthkit-bridge/internal/common/config"
	"healthkit-bridge/internal/common/database"
	"healthkit-bridge/internal/common/logger"
	"healthkit-bridge/internal/common/observability"
	"healthkit-bridge/internal/facade"
	"healthkit-bridge/internal/screens"
	"healthkit-bridge/internal/store"
	"healthkit-bridge/internal/surface"
	"healthkit-bridge/pkg/registry"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App is the wired demo: simulator, bridge, facade and screens.
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Facade   *facade.Facade
	Bridge   *bridge.Bridge
	Screens  *screens.Registry
	Registry *registry.Registry

	zap     *zap.Logger
	metrics *promclient.Registry
	obs     *observability.Observability
	sim     *simulator.Simulator
	redis   *database.RedisClient
	pg      *database.PostgresClient
	server  *http.Server
	stop    context.CancelFunc
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// NewApp builds every component from cfg. Console notifications go to out.
func NewApp(ctx context.Context, cfg *config.Config, out io.Writer) (_ *App, err error) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
	})

	a := &App{Config: cfg, Logger: log, zap: zapLog, metrics: promclient.NewRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.obs, err = observability.New(cfg.App.Name, observability.WithRegisterer(a.metrics))
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}

	cat, err := catalog.FromConfig(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	if cfg.Collaborator.CloudStore == store.KindRedis || cfg.Bridge.RedisFeed.Enabled {
		a.redis = database.NewRedis(cfg.Database.Redis)
		if err = retryWithBackoff(func() error { return a.redis.Ping(ctx) }, 5, time.Second, log, "Redis connection"); err != nil {
			return nil, err
		}
	}
	if cfg.Collaborator.CloudStore == store.KindPostgres {
		a.pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		if err = retryWithBackoff(func() error { return a.pg.Ping(ctx) }, 5, time.Second, log, "PostgreSQL connection"); err != nil {
			return nil, err
		}
	}

	device, err := store.Open(ctx, cfg.Collaborator.DeviceStore, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("device store: %w", err)
	}
	cloud, err := store.Open(ctx, cfg.Collaborator.CloudStore, a.redis, a.pg)
	if err != nil {
		return nil, fmt.Errorf("cloud store: %w", err)
	}

	a.Bridge = bridge.New(log)
	a.sim = simulator.New(simulator.Options{
		Catalog:        cat,
		Device:         device,
		Cloud:          cloud,
		PackageName:    cfg.App.PackageName,
		SensorInterval: time.Duration(cfg.Collaborator.SensorIntervalMS) * time.Millisecond,
		ScanTimeScale:  cfg.Collaborator.ScanTimeScale,
		Logger:         log,
	})
	a.sim.SetEmitter(a.Bridge)

	var console surface.Notifier
	surfaceOpts := []surface.Option{surface.WithFailureNotifications(cfg.Notifications.NotifyFailures)}
	if cfg.Notifications.Console {
		console = surface.NewConsoleNotifier(out)
		surfaceOpts = append(surfaceOpts, surface.WithNotifier(console))
	}
	if sns := cfg.Notifications.SNS; sns.Enabled {
		client, err := aws.NewSNSClient(ctx, sns.Region, sns.TopicARN)
		if err != nil {
			return nil, err
		}
		surfaceOpts = append(surfaceOpts, surface.WithNotifier(surface.NewSNSNotifier(client, "["+cfg.App.Name+"]")))
	}

	a.Registry, err = registry.Default()
	if err != nil {
		return nil, fmt.Errorf("operation registry: %w", err)
	}

	a.Facade = facade.New(a.sim, cat,
		facade.WithRegistry(a.Registry),
		facade.WithSurfacer(surface.New(log, surfaceOpts...)),
		facade.WithObservability(a.obs),
		facade.WithLogger(log),
	)

	a.Screens = screens.NewRegistry(screens.Deps{
		Facade:      a.Facade,
		Bridge:      a.Bridge,
		Logger:      log,
		Notifier:    console,
		PackageName: cfg.App.PackageName,
	})

	if cfg.Bridge.RedisFeed.Enabled {
		if err = a.startFeed(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *App) startFeed(ctx context.Context) error {
	feed := bridge.NewRedisFeed(a.redis, a.Config.Bridge.RedisFeed.ChannelPrefix, a.Bridge, a.Logger)
	feedCtx, cancel := context.WithCancel(context.Background())
	a.stop = cancel

	failed := make(chan error, 1)
	go func() {
		if err := feed.Run(feedCtx); err != nil {
			a.Logger.Error("redis feed stopped", map[string]interface{}{"error": err.Error()})
			failed <- err
		}
	}()

	select {
	case <-feed.Ready():
		return nil
	case err := <-failed:
		return err
	case <-time.After(5 * time.Second):
		return errors.New("redis feed did not subscribe within 5s")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeMetrics exposes the process-wide collectors and this app's OpenTelemetry
// exporter on addr.
func (a *App) ServeMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		promclient.Gatherers{promclient.DefaultGatherer, a.metrics},
		promhttp.HandlerOpts{},
	))
	a.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.Logger.Info("metrics server listening", map[string]interface{}{"address": addr})
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}

// Close stops everything NewApp started. It is safe on a partially built App.
func (a *App) Close() {
	if a.stop != nil {
		a.stop()
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.server.Shutdown(ctx)
		cancel()
	}
	if a.sim != nil {
		a.sim.Close()
	}
	if a.Bridge != nil {
		a.Bridge.Close()
	}
	if a.obs != nil {
		a.obs.Shutdown(context.Background())
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.zap != nil {
		_ = a.zap.Sync()
	}
}
