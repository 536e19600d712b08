package records

import (
	"fmt"
	"strings"
)

// ColumnLetter converts a 0-based column index to spreadsheet letters
// (0 → A, 25 → Z, 26 → AA).
func ColumnLetter(i int) string {
	var b []byte
	for i++; i > 0; i = (i - 1) / 26 {
		b = append([]byte{byte('A' + (i-1)%26)}, b...)
	}
	return string(b)
}

// ColumnIndex converts spreadsheet letters to a 0-based column index.
func ColumnIndex(letters string) (int, error) {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if letters == "" {
		return 0, fmt.Errorf("empty column")
	}
	n := 0
	for _, c := range letters {
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("invalid column %q", letters)
		}
		n = n*26 + int(c-'A'+1)
	}
	return n - 1, nil
}

// ParseRange parses a column span such as "A:D" or "AG" into inclusive
// 0-based bounds.
func ParseRange(spec string) (from, to int, err error) {
	a, b, ok := strings.Cut(spec, ":")
	if !ok {
		b = a
	}
	if from, err = ColumnIndex(a); err != nil {
		return 0, 0, err
	}
	if to, err = ColumnIndex(b); err != nil {
		return 0, 0, err
	}
	if to < from {
		return 0, 0, fmt.Errorf("invalid range %q", spec)
	}
	return from, to, nil
}
