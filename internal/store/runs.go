// Package store persists extraction run summaries in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/payrollx/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS extraction_runs (
	id          UUID PRIMARY KEY,
	file_name   TEXT NOT NULL,
	format      TEXT,
	stage       TEXT,
	header_line INTEGER NOT NULL DEFAULT 0,
	input_rows  INTEGER NOT NULL DEFAULT 0,
	accepted    INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	dropped     INTEGER NOT NULL DEFAULT 0,
	bytes       BIGINT NOT NULL DEFAULT 0,
	error       TEXT,
	client_ip   TEXT,
	user_agent  TEXT,
	api_key_id  TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS extraction_runs_started_at_idx ON extraction_runs (started_at DESC);
`

const insertRun = `INSERT INTO extraction_runs (
	id, file_name, format, stage, header_line, input_rows, accepted, failed,
	dropped, bytes, error, client_ip, user_agent, api_key_id, started_at, duration_ms
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

const selectRuns = `SELECT id, file_name, format, stage, header_line, input_rows,
	accepted, failed, dropped, bytes, error, client_ip, user_agent, api_key_id,
	started_at, duration_ms
	FROM extraction_runs ORDER BY started_at DESC LIMIT $1`

// RunStore implements core.RunStore on the extraction_runs table.
type RunStore struct {
	db DBTX
}

var _ core.RunStore = (*RunStore)(nil)

func NewRunStore(db DBTX) *RunStore {
	return &RunStore{db: db}
}

// EnsureSchema creates the extraction_runs table if it does not exist.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create extraction_runs: %w", err)
	}
	return nil
}

func (s *RunStore) RecordRun(ctx context.Context, run core.RunSummary) error {
	_, err := s.db.Exec(ctx, insertRun,
		pgtype.UUID{Bytes: run.ID, Valid: true},
		run.FileName,
		toText(string(run.Format)),
		toText(string(run.Stage)),
		int32(run.HeaderLine),
		int32(run.InputRows),
		int32(run.Accepted),
		int32(run.Failed),
		int32(run.Dropped),
		run.Bytes,
		toText(run.Error),
		toText(run.ClientIP),
		toText(run.UserAgent),
		toText(run.APIKeyID),
		run.StartedAt,
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]core.RunSummary, error) {
	if limit <= 0 {
		limit = core.DefaultHistorySize
	}

	rows, err := s.db.Query(ctx, selectRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]core.RunSummary, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows pgx.Rows) (core.RunSummary, error) {
	var (
		id                                    pgtype.UUID
		fileName                              string
		format, stage, errText, ip, userAgent pgtype.Text
		apiKeyID                              pgtype.Text
		headerLine, inputRows                 int32
		accepted, failed, dropped             int32
		size, durationMS                      int64
		startedAt                             time.Time
	)

	err := rows.Scan(
		&id, &fileName, &format, &stage, &headerLine, &inputRows,
		&accepted, &failed, &dropped, &size, &errText, &ip, &userAgent,
		&apiKeyID, &startedAt, &durationMS,
	)
	if err != nil {
		return core.RunSummary{}, fmt.Errorf("scan run: %w", err)
	}

	return core.RunSummary{
		ID:         uuid.UUID(id.Bytes),
		FileName:   fileName,
		Format:     core.Format(format.String),
		Stage:      core.Stage(stage.String),
		HeaderLine: int(headerLine),
		InputRows:  int(inputRows),
		Accepted:   int(accepted),
		Failed:     int(failed),
		Dropped:    int(dropped),
		Bytes:      size,
		Error:      errText.String,
		ClientIP:   ip.String,
		UserAgent:  userAgent.String,
		APIKeyID:   apiKeyID.String,
		StartedAt:  startedAt,
		Duration:   time.Duration(durationMS) * time.Millisecond,
	}, nil
}

// toText maps "" to NULL.
func toText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
