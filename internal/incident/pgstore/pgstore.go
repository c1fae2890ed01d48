// Package pgstore provides a PostgreSQL implementation of incident.Store.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/incidentd/internal/incident"
)

var tracer = otel.Tracer("github.com/linnemanlabs/incidentd/internal/incident/pgstore")

//go:embed schema.sql
var schema string

// Store persists incidents in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool is owned by the
// caller and stays open after Close.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const incidentColumns = `id, text, description, status, source, created_at`

// Create inserts a new incident. ID and created_at come back from the
// database so the returned record reflects exactly what was persisted.
func (s *Store) Create(ctx context.Context, inc *incident.Incident) (*incident.Incident, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Create", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	query := `INSERT INTO incidents (text, description, status, source)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + incidentColumns

	created, err := scanIncidentRow(s.pool.QueryRow(ctx, query,
		inc.Text, inc.Description, string(inc.Status), inc.Source,
	))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("insert incident: %w", err)
	}
	return created, nil
}

// Get retrieves an incident by ID.
func (s *Store) Get(ctx context.Context, id int64) (*incident.Incident, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	inc, err := scanIncidentRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("get incident: %w", err)
	}
	return inc, true, nil
}

// List returns incidents ordered by created_at descending with ID as
// tiebreak, optionally filtered by status and bounded by offset/limit.
func (s *Store) List(ctx context.Context, f incident.Filter) ([]incident.Incident, error) {
	ctx, span := tracer.Start(ctx, "pgstore.List", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var (
		rows pgx.Rows
		err  error
	)
	if f.Status != nil {
		query := `SELECT ` + incidentColumns + ` FROM incidents
			WHERE status = $1
			ORDER BY created_at DESC, id DESC OFFSET $2 LIMIT $3`
		rows, err = s.pool.Query(ctx, query, string(*f.Status), f.Offset, f.Limit)
	} else {
		query := `SELECT ` + incidentColumns + ` FROM incidents
			ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`
		rows, err = s.pool.Query(ctx, query, f.Offset, f.Limit)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	incidents := []incident.Incident{}
	for rows.Next() {
		inc, err := scanIncidentRow(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		incidents = append(incidents, *inc)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return incidents, nil
}

// Update applies only the non-nil patch fields in a single statement and
// returns the updated record. An empty patch is rejected; the service layer
// turns those into plain reads.
func (s *Store) Update(ctx context.Context, id int64, p incident.Patch) (*incident.Incident, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Update", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	if p.Empty() {
		return nil, false, fmt.Errorf("update incident %d: empty patch", id)
	}

	set := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(col string, val any) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Text != nil {
		add("text", *p.Text)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.Source != nil {
		add("source", *p.Source)
	}

	args = append(args, id)
	query := `UPDATE incidents SET ` + strings.Join(set, ", ") +
		fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args)) + incidentColumns

	inc, err := scanIncidentRow(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("update incident: %w", err)
	}
	return inc, true, nil
}

// CountByStatus reports the number of incidents per status.
func (s *Store) CountByStatus(ctx context.Context) (map[incident.Status]int64, error) {
	ctx, span := tracer.Start(ctx, "pgstore.CountByStatus", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM incidents GROUP BY status`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("count incidents: %w", err)
	}
	defer rows.Close()

	counts := make(map[incident.Status]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[incident.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// scanIncidentRow scans a single row into an incident.Incident.
func scanIncidentRow(row pgx.Row) (*incident.Incident, error) {
	var (
		inc    incident.Incident
		status string
	)
	err := row.Scan(&inc.ID, &inc.Text, &inc.Description, &status, &inc.Source, &inc.CreatedAt)
	if err != nil {
		return nil, err
	}
	inc.Status = incident.Status(status)
	return &inc, nil
}
