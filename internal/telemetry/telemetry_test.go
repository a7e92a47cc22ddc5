package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/KshitijThareja/Orbyq/internal/config"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), config.ObservabilityConfig{ServiceName: "orbyqapi"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_RejectsGRPC(t *testing.T) {
	_, err := Init(context.Background(), config.ObservabilityConfig{
		OTLPEndpoint: "localhost:4317",
		OTLPProtocol: "grpc",
		ServiceName:  "orbyqapi",
	})
	assert.Error(t, err)
}

func TestStartSpan_RecordsErrorAndEvents(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	_, span := StartSpan(context.Background(), TracerResources, "resources.Update",
		attribute.String(AttrResourceKind, "Todo"),
	)
	AddEvent(span, "ownership.denied", attribute.Bool(AttrOwnerDecision, false))
	RecordError(span, errors.New("forbidden"))
	RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "resources.Update", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "forbidden", ended[0].Status().Description)

	var names []string
	for _, ev := range ended[0].Events() {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "ownership.denied")
	assert.Contains(t, names, "exception")
}

func TestMetrics_RecordWithGlobalMeter(t *testing.T) {
	ctx := context.Background()

	server, err := NewServerMetrics()
	require.NoError(t, err)
	server.ConnectionOpened(ctx)
	server.RecordRequest(ctx, "GET", "/api/todos/{id}", "500", 12.5)
	server.ConnectionClosed(ctx)

	db, err := NewDatabaseMetrics()
	require.NoError(t, err)
	db.RecordQuery(ctx, "SELECT", 1.2, nil)
	db.RecordQuery(ctx, "UPDATE", 3.4, errors.New("boom"))

	authMetrics, err := NewAuthMetrics()
	require.NoError(t, err)
	authMetrics.RecordAuth(ctx, "login", false, 80)
}
