package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/pronuncia/internal/scoring"
)

type mockRow struct {
	values []any
	err    error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type mockRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *mockRows) Close()                                       {}
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error { return assign(r.data[r.idx-1], dest) }

func assign(row, dest []any) error {
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *uuid.UUID:
			*d = v.(uuid.UUID)
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	pingErr      error
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{err: pgx.ErrNoRows}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (m *mockDB) Ping(context.Context) error { return m.pingErr }

func rowFor(t *testing.T, a Attempt) []any {
	t.Helper()
	res, err := json.Marshal(a.Result)
	if err != nil {
		t.Fatal(err)
	}
	return []any{a.ID, a.UserID, a.Expected, a.Transcript, a.AudioName, a.TranscriptionProvider, res, a.CreatedAt}
}

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()
	var gotSQL string
	s := NewPostgresStore(&mockDB{execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
		gotSQL = sql
		return pgconn.CommandTag{}, nil
	}})
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gotSQL, "CREATE TABLE IF NOT EXISTS pronunciation_attempts") {
		t.Errorf("unexpected DDL: %s", gotSQL)
	}

	failing := NewPostgresStore(&mockDB{execFunc: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, errors.New("permission denied")
	}})
	if err := failing.Migrate(context.Background()); err == nil || !strings.Contains(err.Error(), "attempt: migrate") {
		t.Errorf("err = %v", err)
	}
}

func TestPostgresStore_Record(t *testing.T) {
	t.Parallel()
	var args []any
	s := NewPostgresStore(&mockDB{execFunc: func(_ context.Context, _ string, a ...any) (pgconn.CommandTag, error) {
		args = a
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}})

	a := newAttempt("ana", "borboleta")
	a.AudioName = "gravacao.wav"
	if err := s.Record(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	if a.ID == uuid.Nil || a.CreatedAt.IsZero() {
		t.Fatalf("ID/CreatedAt not set: %+v", a)
	}
	if len(args) != 10 {
		t.Fatalf("got %d args", len(args))
	}
	if args[1] != "ana" || args[4] != "gravacao.wav" || args[6] != 100.0 || args[7] != scoring.MethodLevenshtein {
		t.Errorf("args = %v", args)
	}
	var stored scoring.Result
	if err := json.Unmarshal(args[8].([]byte), &stored); err != nil {
		t.Fatalf("result column is not JSON: %v", err)
	}
	if stored.Method != scoring.MethodLevenshtein {
		t.Errorf("stored method = %q", stored.Method)
	}
}

func TestPostgresStore_RecordValidates(t *testing.T) {
	t.Parallel()
	called := false
	s := NewPostgresStore(&mockDB{execFunc: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
		called = true
		return pgconn.CommandTag{}, nil
	}})
	if err := s.Record(context.Background(), newAttempt("", "x")); err == nil {
		t.Error("expected validation error")
	}
	if called {
		t.Error("Exec called for invalid attempt")
	}
}

func TestPostgresStore_Get(t *testing.T) {
	t.Parallel()
	want := *newAttempt("ana", "casa")
	want.ID = uuid.New()
	want.CreatedAt = time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	s := NewPostgresStore(&mockDB{queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
		if args[0] != want.ID {
			return &mockRow{err: pgx.ErrNoRows}
		}
		return &mockRow{values: rowFor(t, want)}
	}})

	got, err := s.Get(context.Background(), want.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "ana" || got.Result.Score != 100 || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("Get() = %+v", got)
	}

	if _, err := s.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresStore_ListByUser(t *testing.T) {
	t.Parallel()
	first := *newAttempt("ana", "um")
	first.ID = uuid.New()
	second := *newAttempt("ana", "dois")
	second.ID = uuid.New()

	var gotArgs []any
	s := NewPostgresStore(&mockDB{queryFunc: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
		gotArgs = args
		return &mockRows{data: [][]any{rowFor(t, second), rowFor(t, first)}}, nil
	}})

	list, err := s.ListByUser(context.Background(), "ana", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Expected != "dois" {
		t.Errorf("list = %+v", list)
	}
	if gotArgs[0] != "ana" || gotArgs[1] != DefaultListLimit {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestPostgresStore_ListByUserErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		db   *mockDB
	}{
		{"query", &mockDB{queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
			return nil, errors.New("boom")
		}}},
		{"rows", &mockDB{queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
			return &mockRows{err: errors.New("conn reset")}, nil
		}}},
		{"bad json", &mockDB{queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
			return &mockRows{data: [][]any{{uuid.New(), "ana", "x", "x", "", "", []byte("{"), time.Now()}}}, nil
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewPostgresStore(tt.db).ListByUser(context.Background(), "ana", 5); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	t.Parallel()
	s := NewPostgresStore(&mockDB{pingErr: errors.New("down")})
	if err := s.Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}

// TestPostgresStore_Integration runs against a real database when
// PRONUNCIA_TEST_POSTGRES_DSN is set.
func TestPostgresStore_Integration(t *testing.T) {
	dsn := os.Getenv("PRONUNCIA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PRONUNCIA_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	user := "it-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM pronunciation_attempts WHERE user_id = $1`, user)
	})

	older := newAttempt(user, "sapo")
	older.CreatedAt = time.Now().Add(-time.Minute).UTC().Truncate(time.Microsecond)
	newer := newAttempt(user, "saco")
	for _, a := range []*Attempt{older, newer} {
		if err := s.Record(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Get(ctx, older.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Expected != "sapo" || got.Result.Method != scoring.MethodLevenshtein {
		t.Errorf("Get() = %+v", got)
	}

	list, err := s.ListByUser(ctx, user, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Errorf("list = %+v", list)
	}
}
