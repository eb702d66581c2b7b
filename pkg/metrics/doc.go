// Package metrics provides Prometheus instrumentation for the scheduler.
package metrics
