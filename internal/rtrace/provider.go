package rtrace

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Provider wraps the otel SDK tracer provider installed as the global
// provider for the lifetime of a CLI invocation, with Shutdown flushing
// the stdouttrace exporter on exit.
type Provider struct {
	tp *trace.TracerProvider
}

// NewStdoutProvider builds and installs a tracer provider whose spans are
// written as pretty-printed JSON to w, for the CLI's --trace flag.
func NewStdoutProvider(w io.Writer) (*Provider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := trace.NewTracerProvider(trace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans and shuts the provider down; it stays
// installed as the global provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}
