package luxman

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wheelibin/luxman/internal/clock"
	"github.com/wheelibin/luxman/internal/codec"
	"github.com/wheelibin/luxman/internal/config"
	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/eventstream"
	"github.com/wheelibin/luxman/internal/hue"
	lightmanager "github.com/wheelibin/luxman/internal/lightManager"
	"github.com/wheelibin/luxman/internal/models"
	"github.com/wheelibin/luxman/internal/mqtt"
	physicalstatemanager "github.com/wheelibin/luxman/internal/physicalStateManager"
	"github.com/wheelibin/luxman/internal/repos"
	"github.com/wheelibin/luxman/internal/store"
	"github.com/wheelibin/luxman/internal/telemetry"
)

type dispatcher interface {
	Dispatch(ev lightmanager.Event) error
}

type snapshotter interface {
	Snapshot(now time.Time) models.TimeSnapshot
}

// Luxman owns every long running part of the daemon.
type Luxman struct {
	logger *log.Logger
	cfg    config.Config

	params      *repos.ParamRepo
	manager     *lightmanager.Manager
	output      *physicalstatemanager.PhysicalStateManager
	mqtt        *mqtt.Client
	events      *eventstream.Server
	metrics     *telemetry.Metrics
	clock       *clock.Clock
	hueConsumer *hue.HueEventConsumer
}

func NewLuxman(logger *log.Logger, cfg config.Config) (*Luxman, error) {
	params, err := repos.Open(logger, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	l := &Luxman{
		logger:  logger,
		cfg:     cfg,
		params:  params,
		metrics: telemetry.NewMetrics(),
		events:  eventstream.NewServer(logger),
		mqtt:    mqtt.NewClient(logger, cfg.MQTT),
	}

	l.clock, err = clock.NewClock(logger, cfg.GeoLocation, cfg.Clock, time.Local)
	if err != nil {
		params.Close()
		return nil, err
	}

	var lightIDs []string
	var hueService *hue.HueAPIService
	if cfg.Hue.BridgeIP != "" {
		hueService = hue.NewHueAPIService(logger, cfg.Hue.BridgeIP, cfg.Hue.AppKey)
		lightIDs = cfg.Hue.LightIDs
		if cfg.Hue.WatchEvents {
			l.hueConsumer = hue.NewHueEventConsumer(logger, cfg.Hue.BridgeIP, cfg.Hue.AppKey)
		}
	}
	l.output = physicalstatemanager.NewPhysicalStateManager(logger, hueService, lightIDs)

	l.manager = lightmanager.NewManager(
		logger,
		store.NewConfigStore(logger, params),
		Fanout{l.mqtt, l.events},
		l.output,
		lightmanager.Options{
			Base:            cfg.TopicBase,
			QueueSize:       cfg.Queue.Size,
			PutTimeout:      cfg.Queue.PutTimeout(),
			Codec:           codec.New(cfg.JSONSupport, time.Local),
			Metrics:         l.metrics,
			FollowVerbosity: cfg.Log.FollowVerbosity,
		},
	)
	return l, nil
}

// Run blocks until ctx is cancelled.
func (l *Luxman) Run(ctx context.Context) error {
	l.logger.Debug("Luxman.Run")
	defer l.params.Close()
	defer l.events.Close()

	l.manager.Start()
	if l.cfg.Backtest {
		if err := l.manager.Dispatch(lightmanager.BacktestEvent{Snapshot: l.clock.Snapshot(time.Now())}); err != nil {
			l.logger.Warn("unable to queue backtest", "err", err)
		}
	}

	if err := l.connect(); err != nil {
		return err
	}
	defer l.mqtt.Close()

	if l.hueConsumer != nil {
		if err := l.hueConsumer.Subscribe(l.output.Reassert); err == nil {
			defer l.hueConsumer.Unsubscribe()
		}
	}

	var httpServer *http.Server
	if l.cfg.HTTP.Addr != "" {
		httpServer = l.serveHTTP()
	}

	loops := []func(context.Context){l.output.Run, l.manager.Run}
	if l.cfg.Clock.Enabled {
		loops = append(loops, func(ctx context.Context) {
			RunClock(ctx, l.logger, l.clock, constants.TimeUpdateInterval, l.manager)
		})
	}

	// every loop has stopped before the deferred closes run
	RunLoops(ctx, loops...)
	l.logger.Info("Luxman.Run: stop signal received")

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			l.logger.Error("error stopping http server", "err", err)
		}
	}
	return nil
}

func (l *Luxman) connect() error {
	if err := l.mqtt.Connect(); err != nil {
		return err
	}

	handler := func(topic string, payload []byte) error {
		return l.manager.Post(topic, payload)
	}
	for _, prefix := range []string{"set/+", "get/+"} {
		topic := lightmanager.Topic(prefix, l.cfg.TopicBase)
		if err := l.mqtt.Subscribe(topic, handler); err != nil {
			l.mqtt.Close()
			return fmt.Errorf("error subscribing to %s: %w", topic, err)
		}
		l.logger.Info("subscribed", "topic", topic)
	}
	return nil
}

func (l *Luxman) serveHTTP() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/events", l.events)
	mux.Handle("/metrics", l.metrics.Handler())

	srv := &http.Server{Addr: l.cfg.HTTP.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		l.logger.Info("serving http", "addr", l.cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("http server stopped", "err", err)
		}
	}()
	return srv
}

// RunClock dispatches a time update for the current snapshot every interval
// until ctx is cancelled.
func RunClock(ctx context.Context, logger *log.Logger, c snapshotter, interval time.Duration, d dispatcher) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if err := d.Dispatch(lightmanager.TimeUpdateEvent{Snapshot: c.Snapshot(t)}); err != nil {
				logger.Warn("time update dropped", "err", err)
			}
		}
	}
}

// RunLoops runs every loop in its own goroutine and returns once ctx is
// cancelled and all of them have returned.
func RunLoops(ctx context.Context, loops ...func(context.Context)) {
	var wg sync.WaitGroup
	for _, loop := range loops {
		loop := loop
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop(ctx)
		}()
	}
	<-ctx.Done()
	wg.Wait()
}
