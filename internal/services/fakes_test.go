package services

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
)

// fakeDB implements DB with per-call hooks so each test controls only
// the statements it cares about.
type fakeDB struct {
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	ExecFunc     func(ctx context.Context, sql string, args ...any) (Result, error)
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if f.QueryRowFunc != nil {
		return f.QueryRowFunc(ctx, sql, args...)
	}
	return rowWithError(pgx.ErrNoRows)
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, sql, args...)
	}
	return &fakeRows{}, nil
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (Result, error) {
	if f.ExecFunc != nil {
		return f.ExecFunc(ctx, sql, args...)
	}
	return fakeResult(0), nil
}

type fakeResult int64

func (r fakeResult) RowsAffected() int64 { return int64(r) }

type fakeRow struct {
	values []any
	err    error
}

func rowFromValues(values ...any) Row { return &fakeRow{values: values} }

func rowWithError(err error) Row { return &fakeRow{err: err} }

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	return assignValues(dest, r.values)
}

type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.idx < len(r.rows) {
		r.idx++
		return true
	}
	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	return assignValues(dest, r.rows[r.idx-1])
}

func (r *fakeRows) Close() {}

func (r *fakeRows) Err() error { return r.err }

func assignValues(dest, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		dv := reflect.ValueOf(dest[i]).Elem()
		sv := reflect.ValueOf(v)
		switch {
		case sv.Type().AssignableTo(dv.Type()):
			dv.Set(sv)
		case sv.Type().ConvertibleTo(dv.Type()):
			dv.Set(sv.Convert(dv.Type()))
		default:
			return fmt.Errorf("scan: cannot assign %T to %s", v, dv.Type())
		}
	}
	return nil
}

func ptrString(s string) *string { return &s }
