package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// CoerceText converts free text into the most specific Value it spells:
// integer/float grammar becomes Number, true/false becomes Bool, null or
// empty becomes Null, and anything else becomes a String with one pair of
// surrounding matching quotes stripped.
func CoerceText(text string) Value {
	t := strings.TrimSpace(text)
	if t == "" {
		return Null()
	}
	switch strings.ToLower(t) {
	case "null":
		return Null()
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if IsNumeric(t) {
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return Number(f)
		}
	}
	return String(Unquote(t))
}

// IsNumeric reports whether text matches the integer/float grammar.
func IsNumeric(text string) bool {
	return numberPattern.MatchString(text)
}

// Unquote strips one pair of matching surrounding quotes (double, single or
// backtick). Text without such a pair is returned unchanged.
func Unquote(text string) string {
	if len(text) < 2 {
		return text
	}
	first, last := text[0], text[len(text)-1]
	if first == last && (first == '"' || first == '\'' || first == '`') {
		return text[1 : len(text)-1]
	}
	return text
}
