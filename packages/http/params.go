package http

import (
	"fmt"
	"strings"
)

// SubstituteParameters replaces each start..end token in raw with the next
// positional value, left to right. Tokens beyond the supplied values become
// empty strings. A value containing a space is rejected.
func SubstituteParameters(raw, start, end string, params []any) (string, error) {
	var b strings.Builder
	next := 0
	rest := raw

	for {
		i := strings.Index(rest, start)
		if i < 0 {
			break
		}
		j := strings.Index(rest[i+len(start):], end)
		if j < 0 {
			return "", configError("unterminated parameter token %q in %q", start, raw)
		}

		value := ""
		if next < len(params) {
			value = fmt.Sprint(params[next])
			if strings.Contains(value, " ") {
				return "", configError("URL parameter [%d] cannot contain a space", next+1)
			}
			next++
		}

		b.WriteString(rest[:i])
		b.WriteString(value)
		rest = rest[i+len(start)+j+len(end):]
	}

	b.WriteString(rest)
	return b.String(), nil
}
