package main

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// logSpanProcessor writes every finished span as a Debug log record.
type logSpanProcessor struct {
	log *zap.Logger
}

func newLogSpanProcessor(log *zap.Logger) sdktrace.SpanProcessor {
	return &logSpanProcessor{log: log}
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	ce := p.log.Check(zap.DebugLevel, s.Name())
	if ce == nil {
		return
	}
	fields := make([]zap.Field, 0, len(s.Attributes())+1)
	fields = append(fields, zap.Stringer("trace_id", s.SpanContext().TraceID()))
	for _, kv := range s.Attributes() {
		fields = append(fields, zap.String(string(kv.Key), kv.Value.Emit()))
	}
	ce.Write(fields...)
}

func (p *logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }
