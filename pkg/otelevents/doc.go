// Package otelevents exports OpenTelemetry spans, logs, and metrics as native platform
// trace events: ETW TraceLogging events on Windows, and user_events EventHeader events
// on Linux.
//
// A [Provider] registers the platform provider once, and every exporter or processor
// created from it shares that registration:
//
//	p, err := otelevents.NewProvider("Microsoft.MyService", otelevents.WithCommonSchema(true))
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	tp, shutdown, err := p.TracerProvider(tracesdk.WithResource(rsc))
//
// Events are only encoded when a trace session is listening for their level and keyword.
package otelevents
