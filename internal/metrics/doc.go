// Package metrics collects the service's Prometheus metrics. Collector
// registers everything under one namespace via promauto and doubles as the
// wave's Recorder, feeding model, validation and repair metrics straight
// from the completion loop.
package metrics
