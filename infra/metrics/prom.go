package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/depotplan/core/metrics"
)

// PromSink records allocation events in Prometheus metrics.
type PromSink struct {
	allocations *prometheus.CounterVec
	waitTime    *prometheus.HistogramVec
	queueDepth  *prometheus.GaugeVec
	optimizer   *prometheus.CounterVec
}

// NewPromSink registers allocation metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_events_total",
		Help: "Total number of allocation decisions",
	}, []string{"depot", "placed", "from_waiting"})
	waitTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "allocation_wait_seconds",
		Help:    "Completed waiting time before placement",
		Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400, 28800, 86400},
	}, []string{"depot"})
	queueDepth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "waiting_vehicles",
		Help: "Number of vehicles currently waiting for a track",
	}, []string{"depot"})
	optimizer := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_passes_total",
		Help: "Total number of optimization passes",
	}, []string{"adopted", "budget_exhausted"})

	if err := register(reg, &allocations); err != nil {
		return nil, err
	}
	if err := registerHist(reg, &waitTime); err != nil {
		return nil, err
	}
	if err := registerGauge(reg, &queueDepth); err != nil {
		return nil, err
	}
	if err := register(reg, &optimizer); err != nil {
		return nil, err
	}
	return &PromSink{allocations: allocations, waitTime: waitTime, queueDepth: queueDepth, optimizer: optimizer}, nil
}

// RecordAllocation increments the counter for each allocation result and
// observes completed waits.
func (s *PromSink) RecordAllocation(res []coremetrics.AllocationResult) error {
	for _, r := range res {
		s.allocations.WithLabelValues(r.Depot, strconv.FormatBool(r.Placed), strconv.FormatBool(r.FromWaiting)).Inc()
		if r.Wait > 0 {
			s.waitTime.WithLabelValues(r.Depot).Observe(r.Wait.Seconds())
		}
	}
	return nil
}

// RecordQueueDepth sets the waiting gauge for the depot.
func (s *PromSink) RecordQueueDepth(ev coremetrics.QueueDepthEvent) error {
	s.queueDepth.WithLabelValues(ev.Depot).Set(float64(ev.Waiting))
	return nil
}

// RecordOptimizer counts optimization passes.
func (s *PromSink) RecordOptimizer(ev coremetrics.OptimizerEvent) error {
	s.optimizer.WithLabelValues(strconv.FormatBool(ev.Adopted), strconv.FormatBool(ev.BudgetExhausted)).Inc()
	return nil
}

func register(reg prometheus.Registerer, c **prometheus.CounterVec) error {
	if err := reg.Register(*c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*c = are.ExistingCollector.(*prometheus.CounterVec)
			return nil
		}
		return err
	}
	return nil
}

func registerHist(reg prometheus.Registerer, h **prometheus.HistogramVec) error {
	if err := reg.Register(*h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*h = are.ExistingCollector.(*prometheus.HistogramVec)
			return nil
		}
		return err
	}
	return nil
}

func registerGauge(reg prometheus.Registerer, g **prometheus.GaugeVec) error {
	if err := reg.Register(*g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*g = are.ExistingCollector.(*prometheus.GaugeVec)
			return nil
		}
		return err
	}
	return nil
}
