package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/depotplan/api"
	"github.com/kilianp07/depotplan/config"
	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/history"
	corelogger "github.com/kilianp07/depotplan/core/logger"
	coremetrics "github.com/kilianp07/depotplan/core/metrics"
	"github.com/kilianp07/depotplan/core/registry"
	"github.com/kilianp07/depotplan/infra/logger"
	"github.com/kilianp07/depotplan/infra/metrics"
	"github.com/kilianp07/depotplan/infra/mqtt"
	"github.com/kilianp07/depotplan/internal/eventbus"
)

// Service orchestrates the allocation manager, the HTTP API and the
// observability adapters.
type Service struct {
	Manager     *alloc.Manager
	Registry    *registry.Registry
	History     history.Store
	bus         eventbus.EventBus
	log         corelogger.Logger
	httpAddr    string
	handler     http.Handler
	publisher   *mqtt.Publisher
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	reg, err := registry.New(config.Depots(cfg.Depots))
	if err != nil {
		return nil, fmt.Errorf("depot registry: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	var hist history.Store
	switch cfg.History.Backend {
	case "sqlite":
		hist, err = history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
	default:
		hist = history.NewMemoryStore()
	}

	bus := eventbus.New()
	mgr, err := alloc.NewManager(reg, logger.New("alloc"))
	if err != nil {
		return nil, fmt.Errorf("alloc manager: %w", err)
	}
	mgr.SetMetricsSink(sink)
	mgr.SetEventBus(bus)
	mgr.SetHistoryStore(hist)

	svc := &Service{
		Manager:     mgr,
		Registry:    reg,
		History:     hist,
		bus:         bus,
		log:         logg,
		httpAddr:    cfg.HTTP.Addr,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}
	srv := api.NewServer(mgr, reg, hist, sink, logger.New("api"), cfg.Optimizer.Budget)
	svc.handler = srv.Handler()

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPublisher(cfg.MQTT, bus, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}
	return svc, nil
}

// Run starts the HTTP listeners and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	srv := &http.Server{Addr: s.httpAddr, Handler: s.handler}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Close()
	}
	if s.History != nil {
		return s.History.Close()
	}
	return nil
}
