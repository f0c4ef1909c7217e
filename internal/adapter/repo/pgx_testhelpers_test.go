package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// valuesRow scans vals into dest pointers of the same types.
func valuesRow(vals ...any) simpleRow {
	return simpleRow{scan: func(dest ...any) error { return assign(dest, vals) }}
}

func errRow(err error) simpleRow {
	return simpleRow{scan: func(...any) error { return err }}
}

func assign(dest []any, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(vals))
	}
	for i := range dest {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(vals[i]))
	}
	return nil
}

type testRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *testRows) Close()                                       {}
func (r *testRows) Err() error                                   { return r.err }
func (r *testRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *testRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *testRows) Conn() *pgx.Conn                              { return nil }
func (r *testRows) RawValues() [][]byte                          { return nil }

func (r *testRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (r *testRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *testRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.idx-1])
}

type call struct {
	query string
	args  []any
}

// stubSQL answers each statement from the handler registered for it.
type stubSQL struct {
	rows  map[string]func(args []any) pgx.Row
	query map[string]func(args []any) (pgx.Rows, error)
	exec  map[string]func(args []any) (pgconn.CommandTag, error)
	calls []call
}

func newStubSQL() *stubSQL {
	return &stubSQL{
		rows:  map[string]func([]any) pgx.Row{},
		query: map[string]func([]any) (pgx.Rows, error){},
		exec:  map[string]func([]any) (pgconn.CommandTag, error){},
	}
}

func (s *stubSQL) Exec(_ context.Context, q string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, call{q, args})
	if fn, ok := s.exec[q]; ok {
		return fn(args)
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected exec")
}

func (s *stubSQL) QueryRow(_ context.Context, q string, args ...any) pgx.Row {
	s.calls = append(s.calls, call{q, args})
	if fn, ok := s.rows[q]; ok {
		return fn(args)
	}
	return errRow(fmt.Errorf("unexpected query row"))
}

func (s *stubSQL) Query(_ context.Context, q string, args ...any) (pgx.Rows, error) {
	s.calls = append(s.calls, call{q, args})
	if fn, ok := s.query[q]; ok {
		return fn(args)
	}
	return nil, fmt.Errorf("unexpected query")
}
