// Package records is the adapter between the assistant and its tabular
// store. Every table is addressed by name and keyed on the date column.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnavailable means the store was not configured for this process.
	ErrUnavailable = errors.New("record store unavailable")
	// ErrStore wraps every other backend failure.
	ErrStore = errors.New("record store error")
	// ErrNotFound is returned by FindRowKey when no row has the key.
	ErrNotFound = errors.New("row not found")
)

// Backend is the primitive tabular service. Rows are 1-indexed, columns
// 0-indexed; Read returns every row from the top including the header, and
// rows may be shorter than the requested span when trailing cells are empty.
type Backend interface {
	Append(ctx context.Context, table string, values []string) error
	Update(ctx context.Context, table string, row, col int, values []string) error
	Read(ctx context.Context, table string, fromCol, toCol int) ([][]string, error)
}

// Store translates domain writes into backend primitives.
type Store struct {
	backend Backend
	log     *slog.Logger

	// mu makes find-then-update atomic so two writers for the same date
	// cannot both synthesize a row.
	mu sync.Mutex
}

func NewStore(b Backend) *Store {
	return &Store{backend: b, log: slog.Default().With("component", "records")}
}

func (s *Store) wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	s.log.Warn("store call failed", "op", op, "table", table, "error", err)
	return fmt.Errorf("%w: %s %s: %w", ErrStore, op, table, err)
}

// AppendRow adds one row at the end of a table.
func (s *Store) AppendRow(ctx context.Context, table string, values []string) error {
	return s.wrap("append", table, s.backend.Append(ctx, table, values))
}

// FindRowKey returns the 1-indexed row whose first column equals key.
func (s *Store) FindRowKey(ctx context.Context, table, key string) (int, error) {
	rows, err := s.backend.Read(ctx, table, 0, 0)
	if err != nil {
		return 0, s.wrap("find", table, err)
	}
	for i, r := range rows {
		if len(r) > 0 && strings.TrimSpace(r[0]) == key {
			return i + 1, nil
		}
	}
	return 0, ErrNotFound
}

// UpdateRange overwrites columns start..end of the row keyed by rowKey. When
// no such row exists one is appended with the key, empty placeholders up to
// start and then the values, so columns stay aligned however the groups of a
// day arrive.
func (s *Store) UpdateRange(ctx context.Context, table, rowKey string, start, end int, values []string) error {
	if start < 1 || end < start {
		return fmt.Errorf("invalid column range %d..%d for %s", start, end, table)
	}
	if len(values) != end-start+1 {
		return fmt.Errorf("range %s:%s of %s needs %d values, got %d",
			ColumnLetter(start), ColumnLetter(end), table, end-start+1, len(values))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.FindRowKey(ctx, table, rowKey)
	switch {
	case errors.Is(err, ErrNotFound):
		full := make([]string, start, end+1)
		full[0] = rowKey
		full = append(full, values...)
		return s.wrap("append", table, s.backend.Append(ctx, table, full))
	case err != nil:
		return err
	}
	return s.wrap("update", table, s.backend.Update(ctx, table, row, start, values))
}

// UpdateFields writes the named cells of a keyed row, leaving every other
// cell untouched. Adjacent fields are written as one range.
func (s *Store) UpdateFields(ctx context.Context, t Table, rowKey string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	cols := make([]int, 0, len(fields))
	byCol := make(map[int]string, len(fields))
	for name, v := range fields {
		i := t.Index(name)
		if i < 1 {
			return fmt.Errorf("%s has no writable column %q", t.Name, name)
		}
		cols = append(cols, i)
		byCol[i] = v
	}
	sort.Ints(cols)

	for i := 0; i < len(cols); {
		j := i
		for j+1 < len(cols) && cols[j+1] == cols[j]+1 {
			j++
		}
		values := make([]string, 0, j-i+1)
		for _, c := range cols[i : j+1] {
			values = append(values, byCol[c])
		}
		if err := s.UpdateRange(ctx, t.Name, rowKey, cols[i], cols[j], values); err != nil {
			return err
		}
		i = j + 1
	}
	return nil
}

// ReadRange returns the data rows (header excluded) for a column span such
// as "A:D". Every row is padded to the span's width.
func (s *Store) ReadRange(ctx context.Context, table, span string) ([][]string, error) {
	from, to, err := ParseRange(span)
	if err != nil {
		return nil, err
	}
	rows, err := s.backend.Read(ctx, table, from, to)
	if err != nil {
		return nil, s.wrap("read", table, err)
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	width := to - from + 1
	out := make([][]string, len(rows))
	for i, r := range rows {
		padded := make([]string, width)
		copy(padded, r)
		out[i] = padded
	}
	return out, nil
}

// RowByKey reads the full row for a key from a table, or nil when absent.
func (s *Store) RowByKey(ctx context.Context, t Table, key string) ([]string, error) {
	rows, err := s.ReadRange(ctx, t.Name, "A:"+ColumnLetter(len(t.Columns)-1))
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if strings.TrimSpace(r[0]) == key {
			return r, nil
		}
	}
	return nil, nil
}

// EnsureTables writes the header row of every empty table.
func (s *Store) EnsureTables(ctx context.Context) error {
	for _, t := range Tables {
		rows, err := s.backend.Read(ctx, t.Name, 0, 0)
		if err != nil {
			return s.wrap("read", t.Name, err)
		}
		if len(rows) > 0 {
			continue
		}
		if err := s.AppendRow(ctx, t.Name, t.Columns); err != nil {
			return err
		}
		s.log.Info("created table header", "table", t.Name)
	}
	return nil
}
