package sqlite

import (
	"strconv"
	"strings"
)

// This file is a small SQL tokenizer: enough to split batches on top-level
// semicolons, classify statements as row-returning, and count bind
// parameters. It never interprets or rewrites SQL.

// splitStatements splits a batch into individual statements, respecting
// string literals, quoted identifiers and comments.
func splitStatements(batch string) []string {
	var out []string
	start := 0

	for i := 0; i < len(batch); {
		switch batch[i] {
		case '\'', '"', '`':
			i = skipQuoted(batch, i)
		case '[':
			i = skipBracketed(batch, i)
		case '-', '/':
			i = skipComment(batch, i)
		case ';':
			if stmt := strings.TrimSpace(batch[start:i]); stmt != "" {
				out = append(out, stmt)
			}
			i++
			start = i
		default:
			i++
		}
	}

	if stmt := strings.TrimSpace(batch[start:]); stmt != "" {
		out = append(out, stmt)
	}
	return out
}

// stmtReturnsRows reports whether a statement produces a result set, judged
// from its top-level keywords. DML statements return rows only with a
// RETURNING clause.
func stmtReturnsRows(stmt string) bool {
	words := topLevelWords(stmt)
	if len(words) == 0 {
		return false
	}

	switch words[0] {
	case "SELECT", "VALUES", "PRAGMA", "EXPLAIN":
		return true
	case "INSERT", "UPDATE", "DELETE", "REPLACE":
		return containsWord(words, "RETURNING")
	case "WITH":
		// A CTE prefix can lead either a SELECT or a DML statement; the
		// first top-level keyword after the definitions decides.
		for _, w := range words[1:] {
			switch w {
			case "SELECT", "VALUES":
				return true
			case "INSERT", "UPDATE", "DELETE", "REPLACE":
				return containsWord(words, "RETURNING")
			}
		}
		return false
	default:
		return false
	}
}

// countPlaceholders returns the number of bind parameters in a statement,
// following SQLite's numbering: "?" takes the next free index, "?NNN" takes
// index NNN, and each distinct named parameter takes one index.
func countPlaceholders(stmt string) int {
	maxIndex := 0
	named := make(map[string]struct{})

	for i := 0; i < len(stmt); {
		switch stmt[i] {
		case '\'', '"', '`':
			i = skipQuoted(stmt, i)
		case '[':
			i = skipBracketed(stmt, i)
		case '-', '/':
			i = skipComment(stmt, i)
		case '?':
			i++
			digits := i
			for i < len(stmt) && stmt[i] >= '0' && stmt[i] <= '9' {
				i++
			}
			if digits == i {
				maxIndex++
			} else if n, err := strconv.Atoi(stmt[digits:i]); err == nil && n > maxIndex {
				maxIndex = n
			}
		case ':', '@', '$':
			i++
			start := i
			for i < len(stmt) && isIdentByte(stmt[i]) {
				i++
			}
			if name := stmt[start:i]; name != "" {
				if _, seen := named[name]; !seen {
					named[name] = struct{}{}
					maxIndex++
				}
			}
		default:
			i++
		}
	}

	return maxIndex
}

// topLevelWords collects the uppercased keyword-like tokens that appear
// outside parentheses, strings and comments.
func topLevelWords(stmt string) []string {
	var words []string
	depth := 0

	for i := 0; i < len(stmt); {
		c := stmt[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(stmt, i)
		case c == '[':
			i = skipBracketed(stmt, i)
		case c == '-' || c == '/':
			i = skipComment(stmt, i)
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			i++
		case isWordStart(c):
			start := i
			for i < len(stmt) && isIdentByte(stmt[i]) {
				i++
			}
			if depth == 0 {
				words = append(words, strings.ToUpper(stmt[start:i]))
			}
		default:
			i++
		}
	}

	return words
}

// skipQuoted advances past a quoted region starting at i, where a doubled
// quote character is an escape.
func skipQuoted(s string, i int) int {
	q := s[i]
	i++
	for i < len(s) {
		if s[i] != q {
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i += 2
			continue
		}
		return i + 1
	}
	return i
}

func skipBracketed(s string, i int) int {
	for i < len(s) && s[i] != ']' {
		i++
	}
	if i < len(s) {
		i++
	}
	return i
}

// skipComment advances past a -- line comment or /* */ block comment
// starting at i; if s[i] does not open a comment it advances one byte.
func skipComment(s string, i int) int {
	if s[i] == '-' && i+1 < len(s) && s[i+1] == '-' {
		for i < len(s) && s[i] != '\n' {
			i++
		}
		return i
	}
	if s[i] == '/' && i+1 < len(s) && s[i+1] == '*' {
		i += 2
		for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
			i++
		}
		return min(i+2, len(s))
	}
	return i + 1
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}

func containsWord(words []string, want string) bool {
	for _, w := range words {
		if w == want {
			return true
		}
	}
	return false
}
