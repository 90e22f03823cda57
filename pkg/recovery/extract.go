package recovery

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")

// FencedBlocks returns the trimmed contents of every ``` fenced block.
func FencedBlocks(text string) []string {
	var blocks []string
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		if body := strings.TrimSpace(m[1]); body != "" {
			blocks = append(blocks, body)
		}
	}
	return blocks
}

// BraceSpan returns the substring from the first '{' to its matching '}',
// skipping braces inside double-quoted strings. complete is false when the
// object never closes; the span then runs to the end of text.
func BraceSpan(text string) (span string, complete bool, found bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true, true
			}
		}
	}
	return text[start:], false, true
}

// OuterSpan returns the text between the first '{' and the last '}'.
func OuterSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// candidates lists the substrings worth a strict parse, most specific first,
// without duplicates.
func candidates(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, block := range FencedBlocks(text) {
		if span, _, ok := BraceSpan(block); ok {
			add(span)
		}
		add(block)
	}
	if span, _, ok := BraceSpan(text); ok {
		add(span)
	}
	if span, ok := OuterSpan(text); ok {
		add(span)
	}
	return out
}

// primaryCandidate is the object text handed to the repair stages: the
// first fenced block holding a brace, else the brace span of the whole text.
func primaryCandidate(text string) (string, bool) {
	for _, block := range FencedBlocks(text) {
		if span, _, ok := BraceSpan(block); ok {
			return strings.TrimSpace(span), true
		}
	}
	span, _, ok := BraceSpan(text)
	return strings.TrimSpace(span), ok
}
