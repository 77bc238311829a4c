package broker

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/diffuzzer/diffuzzer/event"
)

// metrics mirrors the per-instance stats the console prints as
// Prometheus gauges, so a run can be scraped externally alongside the
// broker's own log/console output. The gauges change whenever a stats
// message reaches the broker; heartbeat_interval plays no part in it.
type metrics struct {
	testsRun  *prometheus.GaugeVec
	crashes   *prometheus.GaugeVec
	accidents *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		testsRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "diffuzzer_tests_run_total",
			Help: "Number of tests executed by this instance.",
		}, []string{"instance"}),
		crashes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "diffuzzer_crashes_found_total",
			Help: "Number of crashes found by this instance.",
		}, []string{"instance"}),
		accidents: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "diffuzzer_accidents_found_total",
			Help: "Number of accidents found by this instance.",
		}, []string{"instance"}),
	}
}

func (m *metrics) observe(msg event.Message) {
	switch s := msg.(type) {
	case event.BlackBoxStats:
		m.testsRun.WithLabelValues(s.InstanceID()).Set(float64(s.TestsRun))
		m.crashes.WithLabelValues(s.InstanceID()).Set(float64(s.CrashesFound))
		m.accidents.WithLabelValues(s.InstanceID()).Set(float64(s.AccidentsFound))
	case event.GreyBoxStats:
		m.testsRun.WithLabelValues(s.InstanceID()).Set(float64(s.TestsRun))
		m.crashes.WithLabelValues(s.InstanceID()).Set(float64(s.CrashesFound))
		m.accidents.WithLabelValues(s.InstanceID()).Set(float64(s.AccidentsFound))
	}
}

// EnableMetrics registers Prometheus gauges against a fresh registry
// and starts an HTTP server exposing them at /metrics on addr in the
// background. The returned shutdown func should be deferred by the
// caller; any error from the server itself (beyond a clean Shutdown)
// is reported as a broker event.Error rather than returned here, since
// ListenAndServe only resolves after the caller has already moved on
// to running the fuzz loop.
func (b *Broker) EnableMetrics(addr string) (shutdown func(context.Context) error) {
	reg := prometheus.NewRegistry()
	b.metrics = newMetrics(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			b.Send(event.NewError("metrics", time.Now(), err))
		}
	}()

	return srv.Shutdown
}
