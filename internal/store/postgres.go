package store

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	createSamplesTable = `CREATE TABLE IF NOT EXISTS health_samples (
	data_type   TEXT             NOT NULL,
	field       TEXT             NOT NULL,
	start_ns    BIGINT           NOT NULL,
	end_ns      BIGINT           NOT NULL,
	int_value   BIGINT           NOT NULL DEFAULT 0,
	float_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (data_type, field, start_ns, end_ns)
)`
	upsertSample = `INSERT INTO health_samples (data_type, field, start_ns, end_ns, int_value, float_value)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (data_type, field, start_ns, end_ns)
DO UPDATE SET int_value = EXCLUDED.int_value, float_value = EXCLUDED.float_value`
	deleteSamples = `DELETE FROM health_samples WHERE data_type = $1 AND start_ns >= $2 AND end_ns <= $3`
	querySamples  = `SELECT data_type, field, start_ns, end_ns, int_value, float_value FROM health_samples WHERE data_type = $1 AND start_ns >= $2 AND end_ns <= $3 ORDER BY start_ns, field`
	allSamples    = `SELECT data_type, field, start_ns, end_ns, int_value, float_value FROM health_samples ORDER BY start_ns, data_type, field`
	clearSamples  = `DELETE FROM health_samples`
)

// PostgresStore keeps samples in the health_samples table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createSamplesTable); err != nil {
		return fmt.Errorf("create health_samples: %w", err)
	}
	return nil
}

func (p *PostgresStore) Insert(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	for _, s := range samples {
		if _, err := tx.ExecContext(ctx, upsertSample, s.DataType, s.Field, s.Start, s.End, s.IntValue, s.FloatValue); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert sample: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, dataType string, from, to int64) (int, error) {
	res, err := p.db.ExecContext(ctx, deleteSamples, dataType, from, to)
	if err != nil {
		return 0, fmt.Errorf("delete samples: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete samples: %w", err)
	}
	return int(n), nil
}

func (p *PostgresStore) Query(ctx context.Context, dataType string, from, to int64) ([]Sample, error) {
	rows, err := p.db.QueryContext(ctx, querySamples, dataType, from, to)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	return scanSamples(rows)
}

func (p *PostgresStore) All(ctx context.Context) ([]Sample, error) {
	rows, err := p.db.QueryContext(ctx, allSamples)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	return scanSamples(rows)
}

func (p *PostgresStore) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, clearSamples); err != nil {
		return fmt.Errorf("clear samples: %w", err)
	}
	return nil
}

func scanSamples(rows *sql.Rows) ([]Sample, error) {
	defer rows.Close()
	out := make([]Sample, 0)
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.DataType, &s.Field, &s.Start, &s.End, &s.IntValue, &s.FloatValue); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
