package recovery

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Repair is a named textual fix applied to a JSON-like candidate.
type Repair struct {
	Name  string
	Apply func(string) string
}

var (
	RepairStripComments       = Repair{Name: "strip_comments", Apply: stripComments}
	RepairNormalizeQuotes     = Repair{Name: "normalize_quotes", Apply: normalizeQuotes}
	RepairQuoteKeys           = Repair{Name: "quote_keys", Apply: quoteKeys}
	RepairNormalizeLiterals   = Repair{Name: "normalize_literals", Apply: normalizeLiterals}
	RepairStripTrailingCommas = Repair{Name: "strip_trailing_commas", Apply: stripTrailingCommas}
)

// DefaultRepairs returns the repairs in the order they are applied.
func DefaultRepairs() []Repair {
	return []Repair{
		RepairStripComments,
		RepairNormalizeQuotes,
		RepairQuoteKeys,
		RepairNormalizeLiterals,
		RepairStripTrailingCommas,
	}
}

// stripComments removes //, /* */ and # comments outside quoted strings.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '"' || c == '\'':
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/', c == '#':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 3
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// normalizeQuotes rewrites single-quoted and typographic-quoted strings as
// double-quoted JSON strings.
func normalizeQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	const (
		none = iota
		double
		single
		smart
	)
	state := none
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch state {
		case none:
			switch r {
			case '"':
				state = double
				b.WriteByte('"')
			case '\'':
				state = single
				b.WriteByte('"')
			case '“', '”':
				state = smart
				b.WriteByte('"')
			default:
				b.WriteRune(r)
			}
		case double:
			b.WriteRune(r)
			if r == '\\' && i+size < len(s) {
				_, next := utf8.DecodeRuneInString(s[i+size:])
				b.WriteString(s[i+size : i+size+next])
				size += next
			} else if r == '"' {
				state = none
			}
		case single, smart:
			switch {
			case r == '\\' && i+size < len(s):
				nr, next := utf8.DecodeRuneInString(s[i+size:])
				if nr == '\'' {
					b.WriteByte('\'')
				} else {
					b.WriteByte('\\')
					b.WriteRune(nr)
				}
				size += next
			case state == single && r == '\'', state == smart && (r == '”' || r == '“' || r == '"'):
				state = none
				b.WriteByte('"')
			case r == '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
		}
		i += size
	}
	return b.String()
}

// quoteKeys wraps bare identifier keys in double quotes.
func quoteKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	inString := false
	last := byte(0) // last significant byte written outside strings

	for i := 0; i < len(s); {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(s[i+1])
				i += 2
				continue
			}
			if c == '"' {
				inString = false
				last = '"'
			}
			i++
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			i++
			continue
		}

		if (last == '{' || last == ',') && isIdentStart(s, i) {
			end := identEnd(s, i)
			j := end
			for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
				j++
			}
			if j < len(s) && s[j] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:end])
				b.WriteByte('"')
				last = '"'
				i = end
				continue
			}
		}

		b.WriteByte(c)
		if !unicode.IsSpace(rune(c)) {
			last = c
		}
		i++
	}
	return b.String()
}

var literalFixes = map[string]string{
	"True":      "true",
	"TRUE":      "true",
	"False":     "false",
	"FALSE":     "false",
	"None":      "null",
	"NULL":      "null",
	"Null":      "null",
	"nil":       "null",
	"undefined": "null",
}

// normalizeLiterals rewrites foreign boolean and null spellings outside
// strings.
func normalizeLiterals(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	for i := 0; i < len(s); {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(s[i+1])
				i += 2
				continue
			}
			if c == '"' {
				inString = false
			}
			i++
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			i++
			continue
		}
		if isIdentStart(s, i) {
			end := identEnd(s, i)
			word := s[i:end]
			if fixed, ok := literalFixes[word]; ok {
				word = fixed
			}
			b.WriteString(word)
			i = end
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// stripTrailingCommas drops commas directly before a closing bracket.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && unicode.IsSpace(rune(s[j])) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isIdentStart(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func identEnd(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r != '_' && r != '$' && r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		i += size
	}
	return i
}
