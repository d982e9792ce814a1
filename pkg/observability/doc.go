// Package observability provides structured JSON logging and Prometheus
// metrics for the session coordinator.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("application_id", appID).Info("session opened")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics(registry)
//	metrics.AuthRequestsTotal.WithLabelValues("reuse").Inc()
//	metrics.SessionTransitionsTotal.WithLabelValues("opened").Inc()
//
// # Related Packages
//
//   - pkg/config: observability configuration
//   - pkg/lifecycle: the metrics' main producer
package observability
