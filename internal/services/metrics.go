package services

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for the HTTP layer and the
// circulation counters. A nil *MetricsService is a valid no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	loanEvents      *prometheus.CounterVec
	finesCreated    *prometheus.CounterVec
	fineAmount      prometheus.Counter
	userBlocks      prometheus.Counter
	fineRuns        *prometheus.CounterVec
}

func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settings_cache_lookups_total",
		Help: "Settings cache lookups by result",
	}, []string{"result"})

	loanEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "library_loan_events_total",
		Help: "Loan lifecycle events",
	}, []string{"event"})

	finesCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "library_fines_created_total",
		Help: "Fines created by origin",
	}, []string{"origin"})

	fineAmount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "library_fines_amount_total",
		Help: "Sum of all fine amounts created",
	})

	userBlocks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "library_user_blocks_total",
		Help: "Borrowing blocks applied to users",
	})

	fineRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "library_automatic_fine_runs_total",
		Help: "Automatic fine processing runs by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, loanEvents, finesCreated, fineAmount, userBlocks, fineRuns, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		loanEvents:      loanEvents,
		finesCreated:    finesCreated,
		fineAmount:      fineAmount,
		userBlocks:      userBlocks,
		fineRuns:        fineRuns,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordLoanEvent counts borrow, return, renew and late_return events.
func (m *MetricsService) RecordLoanEvent(event string) {
	if m == nil {
		return
	}
	m.loanEvents.WithLabelValues(event).Inc()
}

func (m *MetricsService) RecordFineCreated(origin string, amount float64) {
	if m == nil {
		return
	}
	m.finesCreated.WithLabelValues(origin).Inc()
	m.fineAmount.Add(amount)
}

func (m *MetricsService) RecordUserBlock() {
	if m == nil {
		return
	}
	m.userBlocks.Inc()
}

func (m *MetricsService) RecordFineRun(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.fineRuns.WithLabelValues("error").Inc()
		return
	}
	m.fineRuns.WithLabelValues("ok").Inc()
}
