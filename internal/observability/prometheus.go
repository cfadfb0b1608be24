package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sheet_ledger"

type Prometheus struct {
	reg          *prometheus.Registry
	reconcile    *prometheus.HistogramVec
	snapshotRows prometheus.Gauge
	deliveries   *prometheus.CounterVec
	httpRequests *prometheus.HistogramVec
}

// NewPrometheus registers collectors on a private registry so tests can
// build as many instances as they like.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		reg: prometheus.NewRegistry(),
		reconcile: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_ms",
			Help:      "Duration of sheet reconcile runs by outcome.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
		}, []string{"outcome"}),
		snapshotRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_rows",
			Help:      "Rows in the last mirrored sheet snapshot.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Expiry notifications sent per recipient.",
		}, []string{"result"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"method", "route", "status"}),
	}
	p.reg.MustRegister(
		p.reconcile,
		p.snapshotRows,
		p.deliveries,
		p.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) ObserveReconcile(outcome string, durMs float64) {
	p.reconcile.WithLabelValues(outcome).Observe(durMs)
}

func (p *Prometheus) SetSnapshotRows(n int) { p.snapshotRows.Set(float64(n)) }

func (p *Prometheus) ObserveDelivery(ok bool) {
	result := "failed"
	if ok {
		result = "delivered"
	}
	p.deliveries.WithLabelValues(result).Inc()
}

func (p *Prometheus) ObserveHTTP(method, route string, status int, durMs float64) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(durMs)
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

func (p *Prometheus) Registry() *prometheus.Registry { return p.reg }
