package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Record methods
// are no-ops on a nil Collector.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Domain metrics
	WorkspacesCreated   prometheus.Counter
	VerificationRetries prometheus.Counter
	RepairPasses        prometheus.Counter
	PlaceholdersCreated prometheus.Counter
	RepairErrors        prometheus.Counter
	BatchItems          *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of document store operations",
		}, []string{"operation", "collection", "status"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "collection"}),
		WorkspacesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workspaces_created_total",
			Help:      "Total number of workspaces created and verified",
		}),
		VerificationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workspace_verification_retries_total",
			Help:      "Read-after-write verification attempts that found nothing",
		}),
		RepairPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_passes_total",
			Help:      "Total number of consistency repair passes",
		}),
		PlaceholdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_placeholders_created_total",
			Help:      "Placeholder nodes created by consistency repair",
		}),
		RepairErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_errors_total",
			Help:      "Per-node failures recorded by consistency repair",
		}),
		BatchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Items processed by batch operations",
		}, []string{"operation", "outcome"}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.StoreOperations,
		c.StoreDuration,
		c.WorkspacesCreated,
		c.VerificationRetries,
		c.RepairPasses,
		c.PlaceholdersCreated,
		c.RepairErrors,
		c.BatchItems,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTP records one served request
func (c *Collector) RecordHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordStoreOperation records one document store call
func (c *Collector) RecordStoreOperation(operation, collection, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.StoreOperations.WithLabelValues(operation, collection, status).Inc()
	c.StoreDuration.WithLabelValues(operation, collection).Observe(elapsed.Seconds())
}

// RecordBatch records the outcome counts of a batch call
func (c *Collector) RecordBatch(operation string, succeeded, failed int) {
	if c == nil {
		return
	}
	c.BatchItems.WithLabelValues(operation, "succeeded").Add(float64(succeeded))
	c.BatchItems.WithLabelValues(operation, "failed").Add(float64(failed))
}

// RecordWorkspaceCreated records a verified workspace creation and the extra
// reads it took to confirm it
func (c *Collector) RecordWorkspaceCreated(retries int) {
	if c == nil {
		return
	}
	c.WorkspacesCreated.Inc()
	c.VerificationRetries.Add(float64(retries))
}

// RecordRepair records one repair pass
func (c *Collector) RecordRepair(created, errors int) {
	if c == nil {
		return
	}
	c.RepairPasses.Inc()
	c.PlaceholdersCreated.Add(float64(created))
	c.RepairErrors.Add(float64(errors))
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
