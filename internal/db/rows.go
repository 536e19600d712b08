package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Append stores values as the next row of a table.
func (d *DB) Append(ctx context.Context, table string, values []string) error {
	cells := "[]"
	for _, v := range values {
		var err error
		if cells, err = sjson.Set(cells, "-1", v); err != nil {
			return fmt.Errorf("encoding row for %s: %w", table, err)
		}
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning append to %s: %w", table, err)
	}
	defer tx.Rollback()

	var last int
	err = tx.QueryRowContext(ctx, d.rebind(
		`SELECT COALESCE(MAX(row_num), 0) FROM sheet_rows WHERE table_name = ?`), table).Scan(&last)
	if err != nil {
		return fmt.Errorf("finding end of %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, d.rebind(
		`INSERT INTO sheet_rows (table_name, row_num, cells) VALUES (?, ?, ?)`),
		table, last+1, cells); err != nil {
		return fmt.Errorf("appending to %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing append to %s: %w", table, err)
	}
	d.log.Debug("row appended", "table", table, "row", last+1)
	return nil
}

// Update overwrites cells starting at col in a 1-indexed row. Missing rows
// and cells are created empty.
func (d *DB) Update(ctx context.Context, table string, row, col int, values []string) error {
	if row < 1 || col < 0 {
		return fmt.Errorf("invalid cell %d,%d", row, col)
	}
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning update of %s: %w", table, err)
	}
	defer tx.Rollback()

	var cells string
	err = tx.QueryRowContext(ctx, d.rebind(
		`SELECT cells FROM sheet_rows WHERE table_name = ? AND row_num = ?`), table, row).Scan(&cells)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cells = "[]"
	case err != nil:
		return fmt.Errorf("loading %s row %d: %w", table, row, err)
	}

	// sjson pads past-the-end indexes with nulls, which read back as "".
	for i, v := range values {
		if cells, err = sjson.Set(cells, strconv.Itoa(col+i), v); err != nil {
			return fmt.Errorf("setting %s row %d col %d: %w", table, row, col+i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, d.rebind(
		`INSERT INTO sheet_rows (table_name, row_num, cells) VALUES (?, ?, ?)
		 ON CONFLICT (table_name, row_num) DO UPDATE SET cells = excluded.cells`),
		table, row, cells); err != nil {
		return fmt.Errorf("writing %s row %d: %w", table, row, err)
	}
	return tx.Commit()
}

// Read returns cells fromCol..toCol of every row from row 1 on. Row gaps
// come back as empty rows so positions match row numbers.
func (d *DB) Read(ctx context.Context, table string, fromCol, toCol int) ([][]string, error) {
	rows, err := d.conn.QueryContext(ctx, d.rebind(
		`SELECT row_num, cells FROM sheet_rows WHERE table_name = ? ORDER BY row_num`), table)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var (
			num   int
			cells string
		)
		if err := rows.Scan(&num, &cells); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		for len(out) < num-1 {
			out = append(out, []string{})
		}
		out = append(out, cellSpan(cells, fromCol, toCol))
	}
	return out, rows.Err()
}

func cellSpan(cells string, from, to int) []string {
	arr := gjson.Parse(cells).Array()
	out := []string{}
	for i := from; i <= to && i < len(arr); i++ {
		out = append(out, arr[i].String())
	}
	return out
}
