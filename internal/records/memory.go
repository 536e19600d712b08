package records

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend keeps tables in process memory. It backs tests and the
// "memory" store setting.
type MemoryBackend struct {
	mu     sync.Mutex
	tables map[string][][]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tables: map[string][][]string{}}
}

func (m *MemoryBackend) Append(_ context.Context, table string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], append([]string(nil), values...))
	return nil
}

func (m *MemoryBackend) Update(_ context.Context, table string, row, col int, values []string) error {
	if row < 1 || col < 0 {
		return fmt.Errorf("invalid cell %d,%d", row, col)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	for len(rows) < row {
		rows = append(rows, nil)
	}
	r := rows[row-1]
	for len(r) < col+len(values) {
		r = append(r, "")
	}
	copy(r[col:], values)
	rows[row-1] = r
	m.tables[table] = rows
	return nil
}

func (m *MemoryBackend) Read(_ context.Context, table string, fromCol, toCol int) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = span(r, fromCol, toCol)
	}
	return out, nil
}

// Rows returns a copy of every row of a table, header included.
func (m *MemoryBackend) Rows(table string) [][]string {
	rows, _ := m.Read(context.Background(), table, 0, 1<<16)
	return rows
}

// span copies cells from..to of a row, truncated to what the row holds.
func span(r []string, from, to int) []string {
	if from >= len(r) {
		return []string{}
	}
	end := min(to+1, len(r))
	return append([]string(nil), r[from:end]...)
}

// Unavailable is the backend used when the store is not configured. Every
// call fails with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Append(context.Context, string, []string) error { return ErrUnavailable }

func (Unavailable) Update(context.Context, string, int, int, []string) error {
	return ErrUnavailable
}

func (Unavailable) Read(context.Context, string, int, int) ([][]string, error) {
	return nil, ErrUnavailable
}
