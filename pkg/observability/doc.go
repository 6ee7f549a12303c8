/*
Package observability provides tracers for monitoring a running graph.

The execution context reports every tick, frame and state change to a
ports.Tracer. This package offers the common sinks: an in-memory Recorder
used for run reports and tests, a structured-logging tracer, Prometheus
metrics and a fan-out that combines them.
*/
package observability
