// Package tracing is a thin wrapper around OpenTelemetry. Init installs a
// global tracer provider exporting to stdout or a file; StartSpan/EndSpan
// open and close spans on any trace.Tracer so the engine can be tested with
// an in-memory span recorder.
package tracing
