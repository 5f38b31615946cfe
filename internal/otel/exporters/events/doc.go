// This package writes OpenTelemetry spans and log records as native platform trace events:
// ETW TraceLogging events on Windows, and EventHeader user_events on Linux.
//
// A span is written as an activity: a start event and a stop event that share an
// activity ID derived from the span ID, with span events and links written as
// informational events in between. Spans and logs can also be written as
// Common Schema 4.0 events, which group fields into PartA (envelope), PartB (span or log
// data), and PartC (attributes) structs.
//
// Drivers come in two forms:
//   - [SpanExporter] and [LogExporter] write completed spans and records, and are used with
//     the SDK batch processors.
//   - [SpanProcessor] and [LogProcessor] write events synchronously as spans start, end, and
//     record events, and as logs are emitted.
//
// Before encoding an event, drivers check whether the platform has a listener for the
// event's (level, keyword), and skip the event entirely if not.
//
// Based on the [C++ OTel] ETW Exporter.
//
// [C++ OTel]: https://github.com/open-telemetry/opentelemetry-cpp/tree/main/exporters/etw
package events
