// internal/monitor/metrics.go
package monitor

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	PollCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flowlogger_poll_cycles_total",
		Help: "Completed poll cycles, successful or not",
	})

	PollFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowlogger_poll_failures_total",
			Help: "Failed poll cycles by failure kind",
		},
		[]string{"kind"},
	)

	SamplesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flowlogger_samples_recorded_total",
		Help: "Samples appended to the series",
	})

	LastSampleTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowlogger_last_sample_timestamp_seconds",
		Help: "Unix time of the most recent sample",
	})

	PollingActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowlogger_polling_active",
		Help: "1 while the polling controller is running",
	})

	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowlogger_goroutines",
		Help: "Current goroutine count",
	})

	MemoryUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flowlogger_memory_usage_bytes",
		Help: "Allocated heap bytes",
	})
)

type Monitor struct {
	log *logrus.Logger
}

func NewMonitor(log *logrus.Logger) *Monitor {
	prometheus.MustRegister(
		PollCycles,
		PollFailures,
		SamplesRecorded,
		LastSampleTime,
		PollingActive,
		GoroutineCount,
		MemoryUsage,
	)
	return &Monitor{log: log}
}

// Start serves /metrics and keeps the runtime gauges fresh.
func (m *Monitor) Start(listen string) {
	go m.collectRuntime()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		m.log.WithField("listen", listen).Info("metrics server started")
		if err := http.ListenAndServe(listen, mux); err != nil {
			m.log.WithError(err).Error("metrics server stopped")
		}
	}()
}

func (m *Monitor) collectRuntime() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		GoroutineCount.Set(float64(runtime.NumGoroutine()))
		MemoryUsage.Set(float64(ms.Alloc))
	}
}
