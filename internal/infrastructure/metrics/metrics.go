// Package metrics exposes Prometheus collectors for the classification API.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/ginext"
	"github.com/yokitheyo/imageclassifier/internal/domain"
)

// unknownModel replaces model ids outside the allow-list in label values.
const unknownModel = "unknown"

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry
	models   []string

	Classifications        *prometheus.CounterVec
	ClassificationDuration *prometheus.HistogramVec
	Requests               *prometheus.CounterVec
	RequestDuration        *prometheus.HistogramVec
}

// New builds the collectors. models is the set of model ids allowed as label
// values; anything else is recorded as "unknown".
func New(models []string) (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		models:   slices.Clone(models),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classifier_classifications_total",
			Help: "Total number of classifications by model and outcome.",
		}, []string{"model", "outcome"}),
		ClassificationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classifier_classification_duration_seconds",
			Help:    "Duration of classifications, including image resolution and preprocessing.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"model"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classifier_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classifier_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{
		m.Classifications,
		m.ClassificationDuration,
		m.Requests,
		m.RequestDuration,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// ObserveClassification records one classification attempt.
func (m *Metrics) ObserveClassification(modelID string, took time.Duration, err error) {
	if !slices.Contains(m.models, modelID) {
		modelID = unknownModel
	}
	m.Classifications.WithLabelValues(modelID, outcome(err)).Inc()
	if err == nil {
		m.ClassificationDuration.WithLabelValues(modelID).Observe(took.Seconds())
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrImageNotFound), errors.Is(err, domain.ErrInvalidImageID):
		return "not_found"
	case errors.Is(err, domain.ErrUnknownModel):
		return "unknown_model"
	case errors.Is(err, domain.ErrDecodeFailed):
		return "decode_error"
	default:
		return "error"
	}
}

// Middleware counts requests per matched route. Unmatched paths share one
// label value so that scanners cannot blow up cardinality.
func (m *Metrics) Middleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

func (m *Metrics) RegisterRoutes(engine *ginext.Engine) {
	h := m.Handler()
	engine.GET("/metrics", func(c *ginext.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	})
}
