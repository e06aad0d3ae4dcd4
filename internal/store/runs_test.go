package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/payrollx/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	execErr  error

	queryArgs []any
	rows      [][]any
	queryErr  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	f.queryArgs = args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{rows: f.rows, idx: -1}, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

// fakeRows serves canned values; Scan assigns each value to its destination.
type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.idx], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

func TestRunStore_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewRunStore(db).EnsureSchema(context.Background()))
	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], "CREATE TABLE IF NOT EXISTS extraction_runs")
}

func TestRunStore_RecordRun(t *testing.T) {
	db := &fakeDB{}
	id := uuid.New()
	run := core.RunSummary{
		ID:        id,
		FileName:  "jan.xlsx",
		Format:    core.FormatWorkbook,
		Stage:     core.StageRelocated,
		Accepted:  12,
		StartedAt: time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}

	require.NoError(t, NewRunStore(db).RecordRun(context.Background(), run))
	require.Len(t, db.execArgs, 1)

	args := db.execArgs[0]
	require.Len(t, args, 16)
	assert.Equal(t, pgtype.UUID{Bytes: id, Valid: true}, args[0])
	assert.Equal(t, pgtype.Text{String: "header_relocate", Valid: true}, args[3])
	assert.Equal(t, int32(12), args[6])
	assert.Equal(t, pgtype.Text{}, args[10], "empty error is stored as NULL")
	assert.Equal(t, int64(1500), args[15])
}

func TestRunStore_RecordRun_Error(t *testing.T) {
	db := &fakeDB{execErr: errors.New("connection refused")}
	err := NewRunStore(db).RecordRun(context.Background(), core.RunSummary{ID: uuid.New()})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "insert run "))
}

func TestRunStore_ListRuns(t *testing.T) {
	id := uuid.New()
	started := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)
	db := &fakeDB{rows: [][]any{{
		pgtype.UUID{Bytes: id, Valid: true},
		"feb.csv",
		pgtype.Text{String: "csv", Valid: true},
		pgtype.Text{String: "fallback_extract", Valid: true},
		int32(0), int32(4),
		int32(3), int32(1), int32(0),
		int64(512),
		pgtype.Text{},
		pgtype.Text{String: "10.1.1.1", Valid: true},
		pgtype.Text{},
		pgtype.Text{String: "3f9a1c2b", Valid: true},
		started,
		int64(42),
	}}}

	runs, err := NewRunStore(db).ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []any{core.DefaultHistorySize}, db.queryArgs)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, core.StageFallback, got.Stage)
	assert.Equal(t, 3, got.Accepted)
	assert.Equal(t, "10.1.1.1", got.ClientIP)
	assert.Empty(t, got.Error)
	assert.Equal(t, "3f9a1c2b", got.APIKeyID)
	assert.Equal(t, 42*time.Millisecond, got.Duration)
	assert.True(t, got.StartedAt.Equal(started))
}

func TestRunStore_ListRuns_QueryError(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("connection reset by peer")}
	_, err := NewRunStore(db).ListRuns(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query runs")
}
