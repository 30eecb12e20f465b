// Package app wires the configured backends into a running service.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	apicharging "github.com/chargeq/chargeq/api/charging"
	"github.com/chargeq/chargeq/config"
	"github.com/chargeq/chargeq/core/charging"
	"github.com/chargeq/chargeq/core/orchestrator"
	"github.com/chargeq/chargeq/core/pool"
	"github.com/chargeq/chargeq/core/store"
	"github.com/chargeq/chargeq/infra/cache"
	"github.com/chargeq/chargeq/infra/logger"
	"github.com/chargeq/chargeq/infra/metrics"
	"github.com/chargeq/chargeq/infra/mqtt"
	"github.com/chargeq/chargeq/infra/notify/slack"
	"github.com/chargeq/chargeq/infra/profile"
	"github.com/chargeq/chargeq/infra/store/memstore"
	"github.com/chargeq/chargeq/infra/store/postgres"
	"github.com/chargeq/chargeq/internal/eventbus"
)

// Service holds the orchestrator with its transports and read models.
type Service struct {
	Orchestrator *orchestrator.Orchestrator

	feed        *eventbus.Feed
	bridge      *mqtt.Bridge
	mqttClient  *mqtt.PahoClient
	refresher   *cache.Refresher
	db          *sql.DB
	httpSrv     *http.Server
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// boardSource adapts the orchestrator's read views to the cache contract.
type boardSource struct {
	o *orchestrator.Orchestrator
}

func (b boardSource) CurrentBoard(ctx context.Context) (cache.Board, error) {
	slots, err := b.o.ListSlots(ctx)
	if err != nil {
		return cache.Board{}, err
	}
	queue, err := b.o.ListQueue(ctx)
	if err != nil {
		return cache.Board{}, err
	}
	return cache.Board{Slots: slots, Queue: queue, GeneratedAt: time.Now()}, nil
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	feed := eventbus.New()

	svc := &Service{
		feed:        feed,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}

	var st store.Store
	switch cfg.Store.Backend {
	case "postgres":
		db, err := postgres.NewDB(cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		svc.db = db
		st = postgres.New(db, feed)
	default:
		st = memstore.New(feed)
	}

	sink, err := metrics.FromConfig(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	notifier := slack.New(cfg.Slack.WebhookURL)
	if notifier.Enabled() {
		logg.Infof("slack notifications enabled")
	}

	orch, err := orchestrator.New(
		st,
		pool.New(cfg.Chargers.Names),
		charging.NewEstimator(),
		profile.NewCatalog(),
		notifier,
		sink,
		logger.New("orchestrator"),
		cfg.Charging.AmbientF,
	)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	svc.Orchestrator = orch

	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT.Config)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqttClient = client
		bridge, err := mqtt.NewBridge(client, feed, cfg.MQTT.TopicPrefix, logger.New("mqtt-bridge"))
		if err != nil {
			return nil, fmt.Errorf("mqtt bridge: %w", err)
		}
		svc.bridge = bridge
	}

	if cfg.Cache.Enabled {
		client, err := cache.NewRedisClient(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		board := cache.NewBoardCache(client, cfg.Cache.TTL(), logger.New("board-cache"))
		svc.refresher = cache.NewRefresher(board, boardSource{o: orch}, feed, logger.New("board-cache"))
	}

	svc.httpSrv = &http.Server{Addr: cfg.API.Addr, Handler: apicharging.NewMux(orch)}
	return svc, nil
}

// Run starts the transports and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.bridge != nil {
		go s.bridge.Run(ctx)
	}
	if s.refresher != nil {
		go s.refresher.Run(ctx)
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, ":"+s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	err := s.Orchestrator.Close()
	s.feed.Close()
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.db != nil {
		if dberr := s.db.Close(); err == nil {
			err = dberr
		}
	}
	return err
}
