// Package exporters holds the OpenTelemetry exporters that write spans, logs, and metrics
// as platform trace events (ETW TraceLogging and Linux user_events EventHeader), along
// with a span file exporter for recording and replay and a debug exporter that logs the
// decoded events.
package exporters
