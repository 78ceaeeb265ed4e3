package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tilsley/repomark/apps/server/internal/convert"
)

const instrName = "github.com/tilsley/repomark"

// Compile-time check: *PGEventStore implements convert.EventRecorder.
var _ convert.EventRecorder = (*PGEventStore)(nil)

// PGEventStore implements convert.EventRecorder backed by PostgreSQL.
type PGEventStore struct {
	pool *pgxpool.Pool

	// Size of every successfully assembled document, emitted on insert.
	documentBytes metric.Int64Histogram
}

// NewPGEventStore creates a new PGEventStore with the given connection pool.
func NewPGEventStore(pool *pgxpool.Pool) *PGEventStore {
	m := otel.Meter(instrName)
	documentBytes, _ := m.Int64Histogram("repomark.conversion.bytes",
		metric.WithDescription("Size of assembled Markdown documents"),
		metric.WithUnit("By"))

	return &PGEventStore{
		pool:          pool,
		documentBytes: documentBytes,
	}
}

// RecordConversion inserts one conversion_events row.
func (s *PGEventStore) RecordConversion(ctx context.Context, ev convert.ConversionEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversion_events (id, owner, repo, outcome, error_kind, files, bytes, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.Owner, ev.Repo, ev.Outcome, nilIfEmpty(string(ev.ErrorKind)),
		ev.Files, ev.Bytes, ev.DurationMs, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversion_event: %w", err)
	}

	if ev.Outcome == convert.OutcomeSucceeded {
		s.documentBytes.Record(ctx, int64(ev.Bytes), metric.WithAttributes(
			attribute.String("repo", ev.Owner+"/"+ev.Repo),
		))
	}
	return nil
}

// Overview returns aggregate totals over every recorded conversion.
func (s *PGEventStore) Overview(ctx context.Context) (*convert.Overview, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE outcome = 'succeeded'),
			COUNT(*) FILTER (WHERE outcome = 'failed'),
			COALESCE(SUM(files), 0),
			COALESCE(AVG(duration_ms), 0)
		FROM conversion_events
	`)

	o := convert.Overview{FailuresByKind: map[string]int64{}}
	if err := row.Scan(&o.Total, &o.Succeeded, &o.Failed, &o.FilesRendered, &o.AvgDurationMs); err != nil {
		return nil, fmt.Errorf("overview query: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT error_kind, COUNT(*)
		FROM conversion_events
		WHERE outcome = 'failed' AND error_kind IS NOT NULL
		GROUP BY error_kind
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failures by kind query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan failures by kind: %w", err)
		}
		o.FailuresByKind[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failures by kind rows: %w", err)
	}
	return &o, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
