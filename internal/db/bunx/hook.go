package bunx

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// QueryRecorder receives one observation per executed query.
// telemetry.DatabaseMetrics satisfies it.
type QueryRecorder interface {
	RecordQuery(ctx context.Context, operation string, durationMs float64, err error)
}

// MetricsHook is a bun.QueryHook that reports query counts, latency and errors.
type MetricsHook struct {
	recorder QueryRecorder
}

var _ bun.QueryHook = (*MetricsHook)(nil)

// NewMetricsHook wraps recorder as a bun query hook.
func NewMetricsHook(recorder QueryRecorder) *MetricsHook {
	return &MetricsHook{recorder: recorder}
}

func (h *MetricsHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *MetricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	err := event.Err
	// An empty lookup is an answer, not a failure.
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	h.recorder.RecordQuery(ctx, event.Operation(), float64(time.Since(event.StartTime).Microseconds())/1000, err)
}
