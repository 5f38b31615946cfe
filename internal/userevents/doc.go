// This package registers Linux user_events tracepoints for EventHeader providers and
// writes pre-built events to them.
//
// See https://docs.kernel.org/trace/user_events.html
package userevents
