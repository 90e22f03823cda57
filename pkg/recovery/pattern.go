package recovery

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/fable/pkg/domain"
)

// nextPairPattern finds where a second "key:" pair starts on a line.
var nextPairPattern = regexp.MustCompile(`,\s*["']?[\p{L}_][\p{L}\p{N}_.\-]*["']?\s*[:=]`)

// ParsePatterns scans free text for key=value, key: value and
// "key": "value" pairs. Quoted values stay strings; unquoted values are
// coerced with domain.CoerceText. A repeated key keeps its last value.
func ParsePatterns(text string) map[string]domain.Value {
	out := make(map[string]domain.Value)
	for i := 0; i < len(text); {
		sep := text[i]
		if (sep != '=' && sep != ':') || !isSeparator(text, i) {
			i++
			continue
		}
		key, ok := keyBefore(text, i)
		if !ok {
			i++
			continue
		}
		value, end := valueAfter(text, i+1, sep)
		out[key] = value
		i = end
	}
	return out
}

// MatchPattern collects the key/value pairs captured by re in text. Keys and
// values are trimmed; matches with an empty key are skipped. An expression
// with fewer than two groups matches nothing.
func MatchPattern(re *regexp.Regexp, text string) map[string]domain.Value {
	keyAt, valueAt := re.SubexpIndex("key"), re.SubexpIndex("value")
	if keyAt < 0 || valueAt < 0 {
		keyAt, valueAt = 1, 2
	}
	if re.NumSubexp() < 2 {
		return nil
	}

	out := make(map[string]domain.Value)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		key := strings.TrimSpace(m[keyAt])
		if key == "" {
			continue
		}
		out[key] = domain.String(strings.TrimSpace(m[valueAt]))
	}
	return out
}

func isSeparator(text string, i int) bool {
	if text[i] == '=' {
		if i+1 < len(text) && text[i+1] == '=' {
			return false
		}
		if i > 0 && strings.IndexByte("=!<>", text[i-1]) >= 0 {
			return false
		}
		return true
	}
	// "scheme://" is not a pair
	return !strings.HasPrefix(text[i+1:], "//")
}

// keyBefore reads the key ending right before the separator at sep.
func keyBefore(text string, sep int) (string, bool) {
	j := sep
	for j > 0 && (text[j-1] == ' ' || text[j-1] == '\t') {
		j--
	}
	if j == 0 {
		return "", false
	}

	var key string
	start := j
	if q := text[j-1]; q == '"' || q == '\'' {
		open := strings.LastIndexByte(text[:j-1], q)
		if open < 0 {
			return "", false
		}
		key = text[open+1 : j-1]
		if key == "" || strings.ContainsAny(key, "\n\r") {
			return "", false
		}
		start = open
	} else {
		for start > 0 {
			r, size := utf8.DecodeLastRuneInString(text[:start])
			if !isKeyRune(r) {
				break
			}
			start -= size
		}
		key = text[start:j]
		if key == "" {
			return "", false
		}
	}

	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if !isKeyBoundary(r) {
			return "", false
		}
	}
	return strings.TrimSpace(key), true
}

// valueAfter reads the value following a separator and returns it with the
// offset where scanning resumes.
func valueAfter(text string, pos int, sep byte) (domain.Value, int) {
	for pos < len(text) && (text[pos] == ' ' || text[pos] == '\t') {
		pos++
	}
	if pos >= len(text) || text[pos] == '\n' || text[pos] == '\r' {
		return domain.Null(), pos
	}

	if q := text[pos]; q == '"' || q == '\'' {
		if closeAt := closingQuote(text, pos); closeAt > 0 {
			return domain.String(unescape(text[pos+1:closeAt], q)), closeAt + 1
		}
	}

	if sep == '=' {
		end := pos
		for end < len(text) && strings.IndexByte(" \t\r\n,;})", text[end]) < 0 {
			end++
		}
		return domain.CoerceText(text[pos:end]), end
	}

	end := strings.IndexAny(text[pos:], "\r\n")
	if end < 0 {
		end = len(text)
	} else {
		end += pos
	}
	line := text[pos:end]
	if loc := nextPairPattern.FindStringIndex(line); loc != nil {
		end = pos + loc[0] + 1 // resume after the comma
		line = line[:loc[0]]
	}
	line = strings.TrimRight(strings.TrimSpace(line), ",;}")
	return coerceLoose(line), end
}

// coerceLoose is CoerceText plus embedded JSON arrays and objects.
func coerceLoose(text string) domain.Value {
	t := strings.TrimSpace(text)
	if t != "" && (t[0] == '[' || t[0] == '{') {
		var v domain.Value
		if err := v.UnmarshalJSON([]byte(t)); err == nil {
			return v
		}
	}
	return domain.CoerceText(t)
}

func closingQuote(text string, open int) int {
	q := text[open]
	for i := open + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case q:
			return i
		}
	}
	return -1
}

func unescape(s string, q byte) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	return strings.NewReplacer(`\`+string(q), string(q), `\\`, `\`, `\n`, "\n", `\t`, "\t").Replace(s)
}

func isKeyRune(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r >= utf8.RuneSelf || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

func isKeyBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', ',', ';', '{', '(', '[':
		return true
	}
	return false
}
