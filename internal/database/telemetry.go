package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Querier is the read path shared by pgxpool.Pool, pgx.Conn and pgxmock.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// TracedDB wraps a Querier and records a span per query.
type TracedDB struct {
	querier Querier
	tracer  trace.Tracer
}

// NewTracedDB creates a traced querier using the global tracer provider.
func NewTracedDB(querier Querier) *TracedDB {
	return &TracedDB{
		querier: querier,
		tracer:  otel.Tracer("github.com/irfndi/leadlag-ai-go/internal/database"),
	}
}

// Query executes a query inside a db.query span.
func (db *TracedDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := db.tracer.Start(ctx, "db.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", sql),
			attribute.Int("db.args", len(args)),
		),
	)
	defer span.End()

	rows, err := db.querier.Query(ctx, sql, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return rows, err
}
