// Package metrics exposes Prometheus metrics for RPN evaluations.
//
// Example usage:
//
//	collector := metrics.NewCollector("dago", nil)
//	collector.RecordEvaluation("success", 12, time.Since(start))
//
//	mux.Handle("/metrics", collector.Handler())
package metrics
