package bootstrap

import "strings"

// Split divides a script into individual statements on ';'. Semicolons
// inside quoted strings or identifiers are kept, "--" line comments are
// dropped, and empty statements are skipped.
func Split(script string) []string {
	var statements []string
	var current strings.Builder
	var quote byte

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]

		if quote != 0 {
			current.WriteByte(ch)
			// A doubled quote is an escaped quote and toggles twice.
			if ch == quote {
				quote = 0
			}
			continue
		}

		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			current.WriteByte(ch)
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()

	return statements
}
