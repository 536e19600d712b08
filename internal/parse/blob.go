package parse

import (
	"strings"

	"github.com/tidwall/gjson"
)

// FindObject returns the first balanced, valid JSON object in a model
// answer, tolerating code fences and prose around it.
func FindObject(answer string) (string, error) {
	s := stripFences(answer)
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end := matchBrace(s, start); end >= 0 {
			if obj := s[start : end+1]; gjson.Valid(obj) {
				return obj, nil
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", unparsed("no JSON object in answer")
}

func stripFences(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
