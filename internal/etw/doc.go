// This package registers ETW providers and writes pre-built TraceLogging events to them.
//
// The enable state tracking is platform independent; registration and writes are
// only available on Windows.
package etw
