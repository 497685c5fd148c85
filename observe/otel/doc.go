// Package otel provides an OpenTelemetry observer plugin for the coop
// executor. It emits span events (spawn, cancel, join, finish) with low
// overhead.
package otel
