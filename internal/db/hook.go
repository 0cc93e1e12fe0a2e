package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"project-ledger/internal/metrics"

	"github.com/uptrace/bun"
)

const maxLoggedQueryLen = 500

// QueryHook records every query in the database metrics and warns about slow ones.
type QueryHook struct {
	metrics   *metrics.DatabaseMetrics
	logger    *slog.Logger
	threshold time.Duration
}

var _ bun.QueryHook = (*QueryHook)(nil)

func NewQueryHook(m *metrics.DatabaseMetrics, logger *slog.Logger, threshold time.Duration) *QueryHook {
	return &QueryHook{
		metrics:   m,
		logger:    logger,
		threshold: threshold,
	}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	operation := event.Operation()
	table := tableName(event)

	// a miss is reported to callers as not found, not as a failing query
	err := event.Err
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}

	h.metrics.RecordQuery(ctx, operation, table, duration, err)

	if h.threshold > 0 && duration >= h.threshold {
		h.metrics.RecordSlowQuery(ctx, operation, table)

		query := event.Query
		if len(query) > maxLoggedQueryLen {
			query = query[:maxLoggedQueryLen] + "..."
		}
		h.logger.WarnContext(ctx, "slow query",
			"operation", operation,
			"table", table,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", h.threshold.Milliseconds(),
			"query", query,
		)
	}
}

func tableName(event *bun.QueryEvent) string {
	if q, ok := event.IQuery.(interface{ GetTableName() string }); ok {
		return q.GetTableName()
	}
	return ""
}
