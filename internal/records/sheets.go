package records

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsBackend stores each table as a tab of one Google spreadsheet.
type SheetsBackend struct {
	values  *sheets.SpreadsheetsValuesService
	sheetID string
}

// NewSheetsBackend authenticates with a service-account JSON blob.
func NewSheetsBackend(ctx context.Context, credentialsJSON []byte, sheetID string) (*SheetsBackend, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}
	return &SheetsBackend{values: srv.Spreadsheets.Values, sheetID: sheetID}, nil
}

func toRow(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func (b *SheetsBackend) Append(ctx context.Context, table string, values []string) error {
	_, err := b.values.Append(b.sheetID, table+"!A1", &sheets.ValueRange{Values: [][]any{toRow(values)}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

func (b *SheetsBackend) Update(ctx context.Context, table string, row, col int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	rng := fmt.Sprintf("%s!%s%d:%s%d", table, ColumnLetter(col), row, ColumnLetter(col+len(values)-1), row)
	_, err := b.values.Update(b.sheetID, rng, &sheets.ValueRange{Values: [][]any{toRow(values)}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	return err
}

func (b *SheetsBackend) Read(ctx context.Context, table string, fromCol, toCol int) ([][]string, error) {
	rng := fmt.Sprintf("%s!%s:%s", table, ColumnLetter(fromCol), ColumnLetter(toCol))
	resp, err := b.values.Get(b.sheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		out[i] = make([]string, len(r))
		for j, cell := range r {
			out[i][j] = fmt.Sprint(cell)
		}
	}
	return out, nil
}
