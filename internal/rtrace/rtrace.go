// Package rtrace wraps formula compilation and solving with otel root
// spans: otel.Tracer(...).Start, span.RecordError + codes.Error on
// failure, always span.End via defer.
package rtrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/rationlp/rationlp"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// CompileFormula wraps a formula-compile call in a "compile_formula" span
// carrying formula.name, recording err (if any) and setting codes.Error.
func CompileFormula(ctx context.Context, formulaName string, fn func(context.Context) error) error {
	ctx, span := tracer().Start(ctx, "compile_formula",
		trace.WithAttributes(attribute.String("formula.name", formulaName)))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Solve wraps a solver invocation in a "solve" span carrying formula.name,
// solver.status, and solver.iterations attributes. status and iterations
// are supplied by the caller once fn returns, since the span needs to
// outlive the solve to attach them.
func Solve(ctx context.Context, formulaName string, fn func(context.Context) (status string, iterations int, err error)) error {
	ctx, span := tracer().Start(ctx, "solve",
		trace.WithAttributes(attribute.String("formula.name", formulaName)))
	defer span.End()

	status, iterations, err := fn(ctx)
	span.SetAttributes(
		attribute.String("solver.status", status),
		attribute.Int("solver.iterations", iterations),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
