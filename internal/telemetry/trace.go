package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer names used by the service packages.
const (
	TracerIAM       = "orbyqapi/services/iam"
	TracerResources = "orbyqapi/services/resources"
	TracerDataport  = "orbyqapi/services/dataport"
)

// StartSpan creates a new span for a service operation.
//
// Usage in services:
//
//	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.Login",
//	    attribute.String(telemetry.AttrUserEmail, email),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records err on the span and marks the span as failed.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddEvent adds a named business event to the span, e.g. an ownership denial.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Span attribute keys.
const (
	AttrUserEmail     = "user.email"
	AttrUserID        = "user.id"
	AttrResourceKind  = "resource.kind"
	AttrResourceID    = "resource.id"
	AttrOwnerDecision = "ownership.allowed"
	AttrTokenKind     = "token.kind"
)
