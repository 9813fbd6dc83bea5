package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/perchlabs/boothboard/internal/common/config"
)

type Metrics struct {
	registry     *prometheus.Registry
	namespace    string
	httpReqCnt   *prometheus.CounterVec
	httpDur      *prometheus.HistogramVec
	httpInfl     *prometheus.GaugeVec
	sheetFetch   *prometheus.CounterVec
	sheetDur     *prometheus.HistogramVec
	cacheHits    *prometheus.CounterVec
	tableReloads *prometheus.CounterVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	// Register standard process and Go collectors
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	sheetFetch := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "sheet_fetch_total"}, []string{"worksheet", "status"})
	sheetDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "sheet_fetch_duration_seconds", Buckets: cfg.Buckets}, []string{"worksheet"})
	r.MustRegister(sheetFetch, sheetDur)

	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "sheet_cache_total"}, []string{"result"})
	tableReloads := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "table_reload_total"}, []string{"status"})
	r.MustRegister(cacheHits, tableReloads)

	return &Metrics{
		registry:     r,
		namespace:    ns,
		httpReqCnt:   httpReqCnt,
		httpDur:      httpDur,
		httpInfl:     httpInfl,
		sheetFetch:   sheetFetch,
		sheetDur:     sheetDur,
		cacheHits:    cacheHits,
		tableReloads: tableReloads,
	}
}

// SheetFetchDone records one worksheet fetch against the external source.
func (m *Metrics) SheetFetchDone(worksheet, status string, since time.Time) {
	m.sheetFetch.WithLabelValues(worksheet, status).Inc()
	m.sheetDur.WithLabelValues(worksheet).Observe(time.Since(since).Seconds())
}

// CacheResult records a cache lookup outcome ("hit" or "miss").
func (m *Metrics) CacheResult(result string) {
	m.cacheHits.WithLabelValues(result).Inc()
}

// TableReload records the outcome of a CSV table reload ("ok" or "error").
func (m *Metrics) TableReload(status string) {
	m.tableReloads.WithLabelValues(status).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
