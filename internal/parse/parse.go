// Package parse maps one line of free-text answer into typed records.
//
// Parsers never panic and never touch the network or the store. A line that
// cannot satisfy a parser's minimum shape yields an error wrapping
// ErrUnparsed; the caller decides what to do with it.
package parse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnparsed signals an input-shape error (too few tokens, non-numeric
// where a number is required).
var ErrUnparsed = errors.New("unparsed answer")

const (
	Yes = "YES"
	No  = "NO"
)

var (
	affirmative = map[string]bool{"ja": true, "yes": true, "y": true, "j": true}
	negative    = map[string]bool{"nein": true, "no": true, "n": true}
)

// YesNo coerces a yes/no token. Known tokens map to Yes or No and ok is true;
// anything else is returned unchanged with ok false, so fields that may hold
// a clock time instead of a yes/no keep the raw value.
func YesNo(tok string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(tok))
	switch {
	case affirmative[t]:
		return Yes, true
	case negative[t]:
		return No, true
	}
	return tok, false
}

// Bool is YesNo for strictly two-valued fields: anything not affirmative is No.
func Bool(tok string) string {
	if v, ok := YesNo(tok); ok && v == Yes {
		return Yes
	}
	return No
}

// IsNone reports whether an answer means "nothing to log".
func IsNone(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "nein", "no", "n", "none", "0", "-":
		return true
	}
	return false
}

func unparsed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnparsed, fmt.Sprintf(format, args...))
}

func fields(text string) []string {
	return strings.Fields(strings.TrimSpace(text))
}

// splitEntries splits a multi-entry answer on sep and drops empty pieces.
func splitEntries(text, sep string) []string {
	var out []string
	for _, p := range strings.Split(text, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// intOr parses a whole-number token, returning def when it is not one.
func intOr(tok string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(tok))
	if err != nil {
		return def
	}
	return n
}

// number parses a decimal token; a comma decimal separator is accepted.
func number(tok string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(tok), ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatFloat renders a measurement without trailing zeros.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BatchError reports the pieces of a multi-entry answer that failed to
// parse. The pieces that did parse are still returned alongside it.
type BatchError struct {
	Failed []string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d entr(y/ies) not recognised: %s", len(e.Failed), strings.Join(e.Failed, ", "))
}

func (e *BatchError) Unwrap() error { return ErrUnparsed }

// batch applies one single-entry parser to each piece independently.
func batch[T any](text, sep string, one func(string) (T, error)) ([]T, error) {
	var (
		out    []T
		failed []string
	)
	for _, piece := range splitEntries(text, sep) {
		v, err := one(piece)
		if err != nil {
			failed = append(failed, piece)
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 && len(failed) == 0 {
		return nil, unparsed("empty answer")
	}
	if len(failed) > 0 {
		return out, &BatchError{Failed: failed}
	}
	return out, nil
}
