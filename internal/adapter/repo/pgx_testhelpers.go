package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// SimpleRow adapts a scan function to pgx.Row so repository tests can run
// without a database. A nil scanner behaves like an empty result set.
type SimpleRow struct {
	scan func(dest ...any) error
}

func NewSimpleRow(scanner func(dest ...any) error) SimpleRow {
	return SimpleRow{scan: scanner}
}

func (r SimpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// ScriptedSQL replays one SimpleRow per QueryRow call and records the
// queries it saw, in order.
type ScriptedSQL struct {
	Rows    []SimpleRow
	Queries []string
	Args    [][]any
}

func (s *ScriptedSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	s.Queries = append(s.Queries, query)
	s.Args = append(s.Args, args)
	if len(s.Rows) == 0 {
		return SimpleRow{}
	}
	row := s.Rows[0]
	s.Rows = s.Rows[1:]
	return row
}
